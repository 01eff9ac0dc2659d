package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/rawes/logger"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "rawes"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug logging, got %q", cfg.Logging.Level)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "rawes", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info logging, got %q", cfg.Logging.Level)
		}
	})

	t.Run("explicit level wins", func(t *testing.T) {
		cfg := ServiceConfig{Name: "rawes", Logging: logger.Config{Level: "warn"}}
		cfg.ApplyDefaults()
		if cfg.Logging.Level != "warn" {
			t.Errorf("expected warn, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	valid := func(env string) ServiceConfig {
		cfg := ServiceConfig{Name: "rawes", Environment: env}
		cfg.ApplyDefaults()
		return cfg
	}
	badLogging := valid("staging")
	badLogging.Logging.Format = "xml"

	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", valid("development"), false, ""},
		{"valid staging", valid("staging"), false, ""},
		{"valid production", valid("production"), false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "rawes", Environment: "invalid"}, true, "config.environment must be one of"},
		{"invalid logging", badLogging, true, "config.logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

type cliConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	URL           string        `yaml:"url" mapstructure:"url"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: rawes
environment: staging
version: "1.0.0"
url: localhost:9500
timeout: 5s
logging:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg cliConfig
	err := LoadConfig("rawes", &cfg, WithConfigFile(configPath), WithEnvPrefix("RAWES_TEST"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "rawes" {
		t.Errorf("expected name 'rawes', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.URL != "localhost:9500" {
		t.Errorf("expected url from file, got %q", cfg.URL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Timeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected nested logging level, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg cliConfig
	// With no config file found, LoadConfig should still succeed (just empty config)
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestResolverSearchOrder(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		opts       LoaderConfig
		wantConfig string
		wantEnv    string
	}{
		{"nothing found", nil, LoaderConfig{}, "", ""},
		{"working dir wins", []string{"./rawes.yml", "/home/u/.config/rawes/config.yml"}, LoaderConfig{}, "./rawes.yml", ""},
		{"hidden file", []string{"./.rawes.yml"}, LoaderConfig{}, "./.rawes.yml", ""},
		{"user config dir", []string{"/home/u/.config/rawes/config.yml"}, LoaderConfig{}, "/home/u/.config/rawes/config.yml", ""},
		{"app env file first", []string{".env", ".env.rawes"}, LoaderConfig{}, "", ".env.rawes"},
		{"explicit paths kept", []string{"./rawes.yml"}, LoaderConfig{ConfigFile: "x.yml", EnvFile: "x.env"}, "x.yml", "x.env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &mockFS{files: map[string]bool{}}
			for _, f := range tt.files {
				fs.files[f] = true
			}
			r := &Resolver{FileSystem: fs}
			got := r.ResolveFiles("rawes", tt.opts)
			if got.ConfigFile != tt.wantConfig || got.EnvFile != tt.wantEnv {
				t.Errorf("ResolveFiles = %+v, want config %q env %q", got, tt.wantConfig, tt.wantEnv)
			}
		})
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error { return nil }
func (m *mockFS) UserConfigDir() (string, error) { return "/home/u/.config", nil }

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("url: [unterminated\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	var cfg cliConfig
	if err := LoadConfig("rawes", &cfg, WithConfigFile(path)); err == nil {
		t.Error("expected malformed config file to fail")
	}
}

func TestWithFileSystemOption(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
}

func TestWithConfigFileOption(t *testing.T) {
	var lc LoaderConfig
	WithConfigFile("/path/to/config.yml")(&lc)
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
}

func TestWithEnvFileOption(t *testing.T) {
	var lc LoaderConfig
	WithEnvFile("/path/to/.env")(&lc)
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}

func TestLoadConfigEnvPrefix(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: rawes\nurl: localhost:9200\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("RAWESCFG_URL", "thrift://search:9500")
	t.Setenv("RAWESCFG_TIMEOUT", "250ms")
	t.Setenv("RAWESCFG_LOGGING_LEVEL", "error")
	t.Setenv("URL", "ignored:1")

	var cfg cliConfig
	if err := LoadConfig("rawes", &cfg, WithConfigFile(configPath), WithEnvPrefix("rawescfg_")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.URL != "thrift://search:9500" {
		t.Errorf("expected env url, got %q", cfg.URL)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Timeout)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected env logging level, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("RAWESENV_URL=localhost:9601\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("RAWESENV_URL") })

	var cfg cliConfig
	err := LoadConfig("rawes", &cfg,
		WithConfigFile(filepath.Join(dir, "missing.yml")),
		WithEnvFile(envPath),
		WithEnvPrefix("RAWESENV"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.URL != "localhost:9601" {
		t.Errorf("expected url from .env, got %q", cfg.URL)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("LOGGING_MAX_SIZE")
	for _, want := range []string{"logging_max_size", "logging.max.size", "logging.max_size"} {
		found := false
		for _, g := range got {
			if g == want {
				found = true
			}
		}
		if !found {
			t.Errorf("variants %v missing %q", got, want)
		}
	}
	if got := generateEnvKeyVariants("URL"); len(got) != 1 || got[0] != "url" {
		t.Errorf("single word variants = %v", got)
	}
}
