package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"saucebatch/internal/config"
)

func runCLI(t *testing.T, args []string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, err = runCLI(t, []string{"config", "init", "--path", target})
	if err == nil {
		t.Fatal("expected error when config already exists")
	}

	out, err = runCLI(t, []string{"--config", target, "config", "validate"})
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, []string{"version", "--short"})
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Fatalf("expected %q, got %q", version, strings.TrimSpace(out))
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.Default()
	cmd := newSearchCommand(new(string))
	if err := cmd.Flags().Parse([]string{
		"--api-key", "key123",
		"--similarity", "85.5",
		"--proxy-port", "8080",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	values := flagValues{apiKey: "key123", similarity: 85.5, proxyPort: 8080}
	applyFlagOverrides(&cfg, cmd, values)

	if cfg.SauceNAO.APIKey != "key123" {
		t.Fatalf("api key not applied: %q", cfg.SauceNAO.APIKey)
	}
	if cfg.Search.Similarity != 85.5 {
		t.Fatalf("similarity not applied: %v", cfg.Search.Similarity)
	}
	if !cfg.Proxy.Enabled || cfg.Proxy.Port != 8080 {
		t.Fatalf("proxy override not applied: %+v", cfg.Proxy)
	}
	if cfg.Search.SleepSeconds != 10 {
		t.Fatalf("unset flag should keep default sleep, got %d", cfg.Search.SleepSeconds)
	}
}

func TestSearchRequiresAPIKey(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.toml")
	if err := os.WriteFile(cfgPath, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := runCLI(t, []string{"--config", cfgPath, "search", tmp})
	if err == nil || !strings.Contains(err.Error(), "api key required") {
		t.Fatalf("expected api key error, got %v", err)
	}
}
