package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hugo-lorenzo-mato/aideconf/internal/document"
	"github.com/hugo-lorenzo-mato/aideconf/internal/schema"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand_ValidFile(t *testing.T) {
	doc, err := document.SetPath(schema.Builtin().Defaults(), "goal", document.String("predict churn"))
	if err != nil {
		t.Fatal(err)
	}
	content, err := document.EncodeYAML(doc)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "validate", path)
	if err != nil {
		t.Fatalf("expected valid config, got: %v\n%s", err, out)
	}
	if !strings.Contains(out, "configuration is valid") {
		t.Errorf("missing success line in output:\n%s", out)
	}
}

func TestValidateCommand_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("agent:\n  steps: 500\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "validate", path)
	if err == nil {
		t.Fatalf("expected failure for out-of-range steps, output:\n%s", out)
	}
	if !strings.Contains(out, "agent.steps") {
		t.Errorf("expected agent.steps error in output:\n%s", out)
	}
}

func TestValidateCommand_BadSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{unclosed: ["), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := runCommand(t, "validate", path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-08-30")
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"aideconf 1.2.3", "abc123", "2026-08-30"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}
