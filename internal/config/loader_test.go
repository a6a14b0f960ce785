package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// isolate points the global config dir at an empty temp dir and runs the
// test from another temp dir so no real config leaks in.
func isolate(t *testing.T) (home, wd string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	wd = t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(wd); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	return home, wd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	home, _ := isolate(t)

	cfg, err := LoadConfig(viper.New())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Renterd.Address != "http://localhost:9980/api" {
		t.Errorf("Renterd.Address = %q", cfg.Renterd.Address)
	}
	if cfg.Metrics.Refresh != 30*time.Second {
		t.Errorf("Metrics.Refresh = %v, want %v", cfg.Metrics.Refresh, 30*time.Second)
	}
	if cfg.Defaults.AutoLock != nil {
		t.Errorf("Defaults.AutoLock = %v, want unset", *cfg.Defaults.AutoLock)
	}
	if cfg.Defaults.AutoLockTimeout != 0 {
		t.Errorf("Defaults.AutoLockTimeout = %v, want unset", cfg.Defaults.AutoLockTimeout)
	}

	wantSettings := filepath.Join(home, GlobalConfigDir, "settings.json")
	if cfg.Paths.Settings != wantSettings {
		t.Errorf("Paths.Settings = %q, want %q", cfg.Paths.Settings, wantSettings)
	}
	wantLog := filepath.Join(home, GlobalConfigDir, "siadash.log")
	if cfg.Paths.Log != wantLog {
		t.Errorf("Paths.Log = %q, want %q", cfg.Paths.Log, wantLog)
	}
	wantEvents := filepath.Join(home, GlobalConfigDir, "activity.jsonl")
	if cfg.Paths.Events != wantEvents {
		t.Errorf("Paths.Events = %q, want %q", cfg.Paths.Events, wantEvents)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	home, _ := isolate(t)

	writeFile(t, filepath.Join(home, GlobalConfigDir, GlobalConfigFile), `
renterd:
  address: http://global:9980/api
  password: global-secret
metrics:
  periods: 14
`)
	writeFile(t, filepath.Join(ProjectConfigDir, ProjectConfigFile), `
renterd:
  address: http://project:9980/api
defaults:
  theme: dark
`)

	v := viper.New()
	// Simulate env var by setting directly in viper (env binding happens in CLI)
	v.Set("defaults.theme", "light")

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Renterd.Address != "http://project:9980/api" {
		t.Errorf("Renterd.Address = %q, want project value", cfg.Renterd.Address)
	}
	if cfg.Renterd.Password != "global-secret" {
		t.Errorf("Renterd.Password = %q, want global value", cfg.Renterd.Password)
	}
	if cfg.Metrics.Periods != 14 {
		t.Errorf("Metrics.Periods = %d, want 14", cfg.Metrics.Periods)
	}
	if cfg.Defaults.Theme != "light" {
		t.Errorf("Defaults.Theme = %q, want env value", cfg.Defaults.Theme)
	}
	if cfg.Metrics.Interval != 24*time.Hour {
		t.Errorf("Metrics.Interval = %v, want default", cfg.Metrics.Interval)
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	isolate(t)

	configPath := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, configPath, `
paths:
  settings: /tmp/siadash-test/settings.json
defaults:
  auto_lock: false
  siascan: true
  fiat_currency: eur
`)

	v := viper.New()
	v.Set("config", configPath)

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Paths.Settings != "/tmp/siadash-test/settings.json" {
		t.Errorf("Paths.Settings = %q", cfg.Paths.Settings)
	}
	if cfg.Defaults.AutoLock == nil || *cfg.Defaults.AutoLock {
		t.Errorf("Defaults.AutoLock = %v, want false", cfg.Defaults.AutoLock)
	}
	if cfg.Defaults.Siascan == nil || !*cfg.Defaults.Siascan {
		t.Errorf("Defaults.Siascan = %v, want true", cfg.Defaults.Siascan)
	}
	if cfg.Defaults.FiatCurrency != "eur" {
		t.Errorf("Defaults.FiatCurrency = %q, want eur", cfg.Defaults.FiatCurrency)
	}
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	isolate(t)

	v := viper.New()
	v.Set("config", "/nonexistent/path/config.yaml")

	if _, err := LoadConfig(v); err == nil {
		t.Error("LoadConfig should fail for missing explicit config")
	}
}

func TestLoadConfig_DurationParsing(t *testing.T) {
	isolate(t)
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		yaml    string
		wantDur time.Duration
	}{
		{name: "minutes", yaml: "defaults:\n  auto_lock_timeout: 10m", wantDur: 10 * time.Minute},
		{name: "hours", yaml: "defaults:\n  auto_lock_timeout: 1h", wantDur: time.Hour},
		{name: "milliseconds", yaml: "defaults:\n  auto_lock_timeout: 300000", wantDur: 5 * time.Minute},
		{name: "combined", yaml: "defaults:\n  auto_lock_timeout: 1h30m", wantDur: 90 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, tt.name+".yaml")
			writeFile(t, configPath, tt.yaml)

			v := viper.New()
			v.Set("config", configPath)

			cfg, err := LoadConfig(v)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if cfg.Defaults.AutoLockTimeout != tt.wantDur {
				t.Errorf("got %v, want %v", cfg.Defaults.AutoLockTimeout, tt.wantDur)
			}
		})
	}
}

func TestGlobalConfigPath(t *testing.T) {
	home, _ := isolate(t)

	if path := globalConfigPath(); path != "" {
		t.Errorf("globalConfigPath() = %q, want empty", path)
	}

	want := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
	writeFile(t, want, "renterd:\n  timeout: 5s\n")
	if path := globalConfigPath(); path != want {
		t.Errorf("globalConfigPath() = %q, want %q", path, want)
	}
}

func TestProjectConfigPath(t *testing.T) {
	isolate(t)

	if path := projectConfigPath(); path != "" {
		t.Errorf("projectConfigPath() = %q, want empty", path)
	}
	writeFile(t, filepath.Join(ProjectConfigDir, ProjectConfigFile), "gpu:\n  capable: true\n")
	if path := projectConfigPath(); path == "" {
		t.Error("projectConfigPath() empty after creating file")
	}
}
