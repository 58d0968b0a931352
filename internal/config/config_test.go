package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	t.Setenv("HOME", dir)
	t.Cleanup(func() {
		viper.Reset()
	})
	return dir
}

func TestLoadDefaults(t *testing.T) {
	setupTestConfig(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Suffix != DefaultSuffix {
		t.Errorf("default suffix = %q", cfg.Output.Suffix)
	}
	if cfg.Watch.DebounceMs != DefaultDebounceMs {
		t.Errorf("default debounce = %d", cfg.Watch.DebounceMs)
	}
	if cfg.Verify || cfg.Audit.Enabled {
		t.Error("verify and audit should be off by default")
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := setupTestConfig(t)
	path := filepath.Join(dir, "custom.yaml")
	content := "type: xlsx\nverify: true\noutput:\n  suffix: .beacon\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Type != "xlsx" || !cfg.Verify || cfg.Output.Suffix != ".beacon" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	dir := setupTestConfig(t)
	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("DOCTRACK_OUTPUT_SUFFIX", ".env")
	t.Setenv("DOCTRACK_TYPE", "docm")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Suffix != ".env" {
		t.Errorf("suffix = %q, want .env", cfg.Output.Suffix)
	}
	if cfg.Type != "docm" {
		t.Errorf("type = %q, want docm", cfg.Type)
	}
}

func TestValidateUnknownType(t *testing.T) {
	setupTestConfig(t)
	setDefaults()
	viper.Set("type", "pptx")

	issues := Validate()
	found := false
	for _, issue := range issues {
		if issue.Key == "type" && issue.Severity == "error" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected error for unsupported type, got %+v", issues)
	}
}

func TestValidateEmptySuffix(t *testing.T) {
	setupTestConfig(t)
	setDefaults()
	viper.Set("output.suffix", "")

	issues := Validate()
	if len(issues) == 0 || issues[0].Key != "output.suffix" {
		t.Errorf("expected output.suffix issue, got %+v", issues)
	}
}

func TestValidateDefaultsClean(t *testing.T) {
	setupTestConfig(t)
	setDefaults()
	for _, issue := range Validate() {
		if issue.Severity == "error" {
			t.Errorf("unexpected error: %s", issue.Message)
		}
	}
}

func TestToEnv(t *testing.T) {
	setupTestConfig(t)
	viper.Set("type", "xlsx")
	viper.Set("watch.debounce_ms", 250)

	env := ToEnv()
	if env["DOCTRACK_TYPE"] != "xlsx" {
		t.Errorf("DOCTRACK_TYPE = %q", env["DOCTRACK_TYPE"])
	}
	if env["DOCTRACK_WATCH_DEBOUNCE_MS"] != "250" {
		t.Errorf("DOCTRACK_WATCH_DEBOUNCE_MS = %q", env["DOCTRACK_WATCH_DEBOUNCE_MS"])
	}
}

func TestSetAndGet(t *testing.T) {
	dir := setupTestConfig(t)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if err := Set("type", "dotx"); err != nil {
		t.Fatal(err)
	}
	if got := Get("type"); got != "dotx" {
		t.Errorf("Get(type) = %q, want dotx", got)
	}
	if _, err := os.Stat(filepath.Join(dir, ".doctrack", "config.yaml")); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}

func TestSetUnknownKey(t *testing.T) {
	setupTestConfig(t)
	err := Set("provider", "openai")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestShowConfig(t *testing.T) {
	setupTestConfig(t)
	setDefaults()
	viper.Set("type", "xlsm")

	out := ShowConfig()
	for _, want := range []string{"xlsm", ".tracked", "debounce_ms", "audit"} {
		if !strings.Contains(out, want) {
			t.Errorf("ShowConfig should contain %q:\n%s", want, out)
		}
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if !strings.Contains(path, ".doctrack") || !strings.HasSuffix(path, "config.yaml") {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestResetConfig(t *testing.T) {
	setupTestConfig(t)
	viper.SetConfigType("yaml")
	viper.Set("output.suffix", ".custom")
	if err := SaveConfig(); err != nil {
		t.Fatal(err)
	}

	if err := ResetConfig(); err != nil {
		t.Fatal(err)
	}
	if got := viper.GetString("output.suffix"); got != DefaultSuffix {
		t.Errorf("suffix should reset to default, got %q", got)
	}
	if _, err := os.Stat(ConfigPath()); !os.IsNotExist(err) {
		t.Error("config file should be removed")
	}
}

func TestExpandHome(t *testing.T) {
	dir := setupTestConfig(t)
	if got := ExpandHome("~/logs/a.log"); got != filepath.Join(dir, "logs", "a.log") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
}
