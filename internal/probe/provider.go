package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
)

// ProviderEndpoints maps each provider to the URL used for key probes.
// Overridable for tests.
type ProviderEndpoints struct {
	OpenAI     string
	Anthropic  string
	OpenRouter string
}

// DefaultEndpoints returns the production provider URLs.
func DefaultEndpoints() ProviderEndpoints {
	return ProviderEndpoints{
		OpenAI:     "https://api.openai.com/v1/models",
		Anthropic:  "https://api.anthropic.com/v1/messages",
		OpenRouter: "https://openrouter.ai/api/v1/models",
	}
}

// KeyCheck is the outcome of a provider key probe.
type KeyCheck struct {
	Valid           bool     `json:"valid"`
	Provider        Provider `json:"provider"`
	Message         string   `json:"message"`
	AvailableModels []string `json:"available_models,omitempty"`
	TotalModels     int      `json:"total_models,omitempty"`
}

// CompatibilityResult is the outcome of a model/key compatibility check.
type CompatibilityResult struct {
	Compatible     bool     `json:"compatible"`
	ModelAvailable bool     `json:"model_available"`
	APIKeyValid    bool     `json:"api_key_valid"`
	Message        string   `json:"message"`
	EstimatedCost  *float64 `json:"estimated_cost,omitempty"`
}

// ProviderProbe checks API keys and model availability against live
// provider endpoints.
type ProviderProbe struct {
	client    *http.Client
	endpoints ProviderEndpoints
}

// NewProviderProbe builds a probe with a 10 second request timeout.
func NewProviderProbe() *ProviderProbe {
	return NewProviderProbeWith(DefaultEndpoints(), 10*time.Second)
}

// NewProviderProbeWith builds a probe against custom endpoints, used by
// tests to point at a local server.
func NewProviderProbeWith(endpoints ProviderEndpoints, timeout time.Duration) *ProviderProbe {
	return &ProviderProbe{
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
	}
}

// ValidateKey probes the provider with a minimal request and reports
// whether the key is accepted. Network failures return a DomainError so
// the caller can degrade rather than reject the key.
func (p *ProviderProbe) ValidateKey(ctx context.Context, provider Provider, apiKey string) (KeyCheck, error) {
	if apiKey == "" {
		return KeyCheck{}, core.ErrValidation(core.CodeInvalidConfig, "api key is required")
	}
	switch provider {
	case ProviderOpenAI:
		return p.validateViaModelList(ctx, provider, p.endpoints.OpenAI, apiKey)
	case ProviderOpenRouter:
		return p.validateViaModelList(ctx, provider, p.endpoints.OpenRouter, apiKey)
	case ProviderAnthropic:
		return p.validateAnthropic(ctx, apiKey)
	default:
		return KeyCheck{}, core.ErrValidation(core.CodeInvalidConfig, fmt.Sprintf("unsupported provider: %s", provider))
	}
}

type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (p *ProviderProbe) validateViaModelList(ctx context.Context, provider Provider, url, apiKey string) (KeyCheck, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return KeyCheck{}, core.ErrInternal("REQUEST_BUILD", "building provider request").WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return KeyCheck{}, core.ErrNetwork(fmt.Sprintf("reaching %s", provider)).WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var body modelListResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return KeyCheck{}, core.ErrNetwork("decoding provider response").WithCause(err)
		}
		if len(body.Data) == 0 {
			return KeyCheck{Provider: provider, Message: "No models available with this API key"}, nil
		}
		var names []string
		for _, m := range body.Data {
			names = append(names, m.ID)
		}
		return KeyCheck{
			Valid:           true,
			Provider:        provider,
			Message:         "Valid API key",
			AvailableModels: names,
			TotalModels:     len(names),
		}, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return KeyCheck{Provider: provider, Message: "Invalid API key"}, nil
	case resp.StatusCode == http.StatusForbidden:
		return KeyCheck{Provider: provider, Message: "Permission denied - check API key permissions"}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return KeyCheck{Provider: provider, Message: "Rate limit exceeded - try again later"}, nil
	default:
		return KeyCheck{}, core.ErrNetwork(fmt.Sprintf("%s returned status %d", provider, resp.StatusCode))
	}
}

// validateAnthropic sends a one-token message; Anthropic has no models
// endpoint. A rate-limit response still proves the key is accepted.
func (p *ProviderProbe) validateAnthropic(ctx context.Context, apiKey string) (KeyCheck, error) {
	payload := map[string]interface{}{
		"model":      "claude-3-haiku-20240307",
		"max_tokens": 1,
		"messages":   []map[string]string{{"role": "user", "content": "Hi"}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return KeyCheck{}, core.ErrInternal("REQUEST_BUILD", "encoding probe payload").WithCause(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoints.Anthropic, bytes.NewReader(body))
	if err != nil {
		return KeyCheck{}, core.ErrInternal("REQUEST_BUILD", "building provider request").WithCause(err)
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return KeyCheck{}, core.ErrNetwork("reaching anthropic").WithCause(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusTooManyRequests:
		return KeyCheck{Valid: true, Provider: ProviderAnthropic, Message: "Valid API key"}, nil
	case http.StatusUnauthorized:
		return KeyCheck{Provider: ProviderAnthropic, Message: "Invalid API key"}, nil
	case http.StatusForbidden:
		return KeyCheck{Provider: ProviderAnthropic, Message: "Permission denied - check API key permissions"}, nil
	default:
		return KeyCheck{}, core.ErrNetwork(fmt.Sprintf("anthropic returned status %d", resp.StatusCode))
	}
}

// AvailableModels lists the models reachable with a key. Anthropic has no
// listing endpoint, so its catalogue entries are returned as-is.
func (p *ProviderProbe) AvailableModels(ctx context.Context, provider Provider, apiKey string) ([]string, error) {
	if provider == ProviderAnthropic {
		var names []string
		for _, m := range ModelsByProvider(ProviderAnthropic) {
			names = append(names, m.Name)
		}
		return names, nil
	}
	check, err := p.ValidateKey(ctx, provider, apiKey)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, core.ErrValidation(core.CodeInvalidConfig, check.Message)
	}
	return check.AvailableModels, nil
}

// CheckCompatibility verifies that a model is known, matches its declared
// provider, and is reachable with the key. All failures are reported in
// the result, never as an error.
func (p *ProviderProbe) CheckCompatibility(ctx context.Context, model string, provider Provider, apiKey string) CompatibilityResult {
	info, ok := ModelByName(model)
	if !ok {
		return CompatibilityResult{Message: fmt.Sprintf("Unknown model: %s", model)}
	}
	if info.Provider != provider {
		return CompatibilityResult{
			Message: fmt.Sprintf("Model %s is not available from provider %s", model, provider),
		}
	}

	check, err := p.ValidateKey(ctx, provider, apiKey)
	if err != nil || !check.Valid {
		return CompatibilityResult{Message: "Invalid API key for the specified provider"}
	}

	available, err := p.AvailableModels(ctx, provider, apiKey)
	if err != nil {
		return CompatibilityResult{
			APIKeyValid: true,
			Message:     fmt.Sprintf("Model %s is not available with this API key", model),
		}
	}
	for _, name := range available {
		if name == model {
			cost := EstimateExperimentCost(info)
			return CompatibilityResult{
				Compatible:     true,
				ModelAvailable: true,
				APIKeyValid:    true,
				Message:        fmt.Sprintf("Model %s is available and compatible", model),
				EstimatedCost:  &cost,
			}
		}
	}
	return CompatibilityResult{
		APIKeyValid: true,
		Message:     fmt.Sprintf("Model %s is not available with this API key", model),
	}
}
