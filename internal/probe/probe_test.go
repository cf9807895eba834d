package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestModelByName(t *testing.T) {
	m, ok := ModelByName("gpt-4-turbo")
	if !ok {
		t.Fatal("gpt-4-turbo not in catalogue")
	}
	if m.Provider != ProviderOpenAI || m.MaxTokens != 128000 {
		t.Errorf("gpt-4-turbo = %+v", m)
	}
	if _, ok := ModelByName("no-such-model"); ok {
		t.Error("unexpected hit for unknown model")
	}
}

func TestProviderForModel(t *testing.T) {
	p, ok := ProviderForModel("claude-3-haiku-20240307")
	if !ok || p != ProviderAnthropic {
		t.Errorf("provider = %s, ok = %v", p, ok)
	}
}

func TestModelsByProvider(t *testing.T) {
	for _, m := range ModelsByProvider(ProviderOpenRouter) {
		if m.Provider != ProviderOpenRouter {
			t.Errorf("%s has provider %s", m.Name, m.Provider)
		}
	}
	if len(ModelsByProvider(ProviderOpenAI)) != 5 {
		t.Errorf("openai catalogue size = %d, want 5", len(ModelsByProvider(ProviderOpenAI)))
	}
}

func TestRecommendedModels(t *testing.T) {
	budget := RecommendedModels("budget")
	if len(budget) != 3 {
		t.Fatalf("budget recommendations = %d, want 3", len(budget))
	}
	for _, m := range budget {
		if m.CostPer1KTokens > 0.001 {
			t.Errorf("%s is not a budget model", m.Name)
		}
	}
	if len(RecommendedModels("something-else")) == 0 {
		t.Error("unknown task type should fall back to general recommendations")
	}
}

func TestEstimateExperimentCost(t *testing.T) {
	m, _ := ModelByName("gpt-4-turbo")
	// 126000 tokens at $0.01 per 1k.
	if got := EstimateExperimentCost(m); got != 1.26 {
		t.Errorf("cost = %v, want 1.26", got)
	}
}

func newTestProbe(srv *httptest.Server) *ProviderProbe {
	return NewProviderProbeWith(ProviderEndpoints{
		OpenAI:     srv.URL + "/openai/models",
		Anthropic:  srv.URL + "/anthropic/messages",
		OpenRouter: srv.URL + "/openrouter/models",
	}, 2*time.Second)
}

func TestValidateKey_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[{"id":"gpt-4-turbo"},{"id":"gpt-4o"}]}`))
	}))
	defer srv.Close()
	p := newTestProbe(srv)

	check, err := p.ValidateKey(context.Background(), ProviderOpenAI, "sk-good")
	if err != nil {
		t.Fatal(err)
	}
	if !check.Valid || check.TotalModels != 2 {
		t.Errorf("check = %+v", check)
	}

	check, err = p.ValidateKey(context.Background(), ProviderOpenAI, "sk-bad")
	if err != nil {
		t.Fatal(err)
	}
	if check.Valid || check.Message != "Invalid API key" {
		t.Errorf("check = %+v", check)
	}
}

func TestValidateKey_AnthropicRateLimitIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") == "" {
			t.Error("missing x-api-key header")
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	check, err := newTestProbe(srv).ValidateKey(context.Background(), ProviderAnthropic, "sk-ant")
	if err != nil {
		t.Fatal(err)
	}
	if !check.Valid {
		t.Error("429 from anthropic should still count as a valid key")
	}
}

func TestValidateKey_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	p := newTestProbe(srv)
	srv.Close()

	if _, err := p.ValidateKey(context.Background(), ProviderOpenAI, "sk-x"); err == nil {
		t.Error("expected network error against closed server")
	}
}

func TestCheckCompatibility(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"gpt-4-turbo"}]}`))
	}))
	defer srv.Close()
	p := newTestProbe(srv)
	ctx := context.Background()

	res := p.CheckCompatibility(ctx, "gpt-4-turbo", ProviderOpenAI, "sk-good")
	if !res.Compatible || !res.ModelAvailable || !res.APIKeyValid {
		t.Errorf("result = %+v", res)
	}
	if res.EstimatedCost == nil || *res.EstimatedCost != 1.26 {
		t.Errorf("estimated cost = %v", res.EstimatedCost)
	}

	res = p.CheckCompatibility(ctx, "gpt-4o", ProviderOpenAI, "sk-good")
	if res.Compatible || !res.APIKeyValid {
		t.Errorf("unlisted model result = %+v", res)
	}

	res = p.CheckCompatibility(ctx, "made-up-model", ProviderOpenAI, "sk-good")
	if res.Compatible || res.Message != "Unknown model: made-up-model" {
		t.Errorf("unknown model result = %+v", res)
	}

	res = p.CheckCompatibility(ctx, "gpt-4-turbo", ProviderAnthropic, "sk-good")
	if res.Compatible {
		t.Errorf("provider mismatch result = %+v", res)
	}
}

func TestFilesystem(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "task.md")
	if err := os.WriteFile(file, []byte("goal"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	var fs Filesystem

	if ok, err := fs.FileExists(ctx, file); err != nil || !ok {
		t.Errorf("FileExists(%s) = %v, %v", file, ok, err)
	}
	if ok, _ := fs.FileExists(ctx, filepath.Join(dir, "missing")); ok {
		t.Error("FileExists should be false for missing path")
	}
	if ok, err := fs.DirectoryExists(ctx, dir); err != nil || !ok {
		t.Errorf("DirectoryExists(%s) = %v, %v", dir, ok, err)
	}
	if ok, _ := fs.DirectoryExists(ctx, file); ok {
		t.Error("DirectoryExists should be false for a regular file")
	}
}
