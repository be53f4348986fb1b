package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Workers)
	}
	if cfg.Strategy != "oldest" {
		t.Errorf("strategy = %q, want %q", cfg.Strategy, "oldest")
	}
}

func TestLoad_MissingFileAtDefaultPath(t *testing.T) {
	// Point the home directory at an empty temp dir so no config exists.
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Default()
	if !reflect.DeepEqual(*cfg, want) {
		t.Errorf("missing config should yield defaults: got %+v", *cfg)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("an explicitly named missing file should be an error")
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := Default()
	cfg.Threshold = 8
	cfg.Strategy = "largest"
	cfg.FileTypes = []string{"jpg", "cr2"}
	cfg.ExcludePatterns = []string{"*.tmp"}
	cfg.AutoConfirm = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(*loaded, cfg) {
		t.Errorf("roundtrip mismatch:\n got  %+v\n want %+v", *loaded, cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("threshold = 4\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Threshold != 4 {
		t.Errorf("threshold = %d, want 4", cfg.Threshold)
	}
	if cfg.Workers != 8 {
		t.Errorf("unset keys should keep defaults: workers = %d, want 8", cfg.Workers)
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("threshold = [not toml"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed toml should be an error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"threshold too high", func(c *Config) { c.Threshold = 65 }, true},
		{"threshold negative", func(c *Config) { c.Threshold = -1 }, true},
		{"threshold zero", func(c *Config) { c.Threshold = 0 }, false},
		{"unknown strategy", func(c *Config) { c.Strategy = "best" }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, true},
		{"json format", func(c *Config) { c.LogFormat = "json" }, false},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("threshold", "12"); err != nil {
		t.Fatalf("Set threshold failed: %v", err)
	}
	if cfg.Threshold != 12 {
		t.Errorf("threshold = %d, want 12", cfg.Threshold)
	}

	if err := cfg.Set("auto_confirm", "true"); err != nil {
		t.Fatalf("Set auto_confirm failed: %v", err)
	}
	if !cfg.AutoConfirm {
		t.Error("auto_confirm should be true")
	}

	if err := cfg.Set("file_types", "jpg, png ,cr2"); err != nil {
		t.Fatalf("Set file_types failed: %v", err)
	}
	if want := []string{"jpg", "png", "cr2"}; !reflect.DeepEqual(cfg.FileTypes, want) {
		t.Errorf("file_types = %v, want %v", cfg.FileTypes, want)
	}

	if err := cfg.Set("threshold", "abc"); err == nil {
		t.Error("non-integer threshold should be an error")
	}
	if err := cfg.Set("threshold", "99"); err == nil {
		t.Error("out-of-range threshold should fail validation")
	}
	if err := cfg.Set("nonsense", "x"); err == nil {
		t.Error("unknown key should be an error")
	}
}
