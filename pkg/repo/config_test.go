package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_RoundTrip(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Identity() != "" {
		t.Errorf("default Identity = %q, want empty", cfg.Identity())
	}

	cfg.User.Name = "Ada"
	cfg.User.Email = "ada@example.com"
	cfg.Log.MaxDepth = 50
	if err := r.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	got, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if *got != *cfg {
		t.Errorf("ReadConfig = %+v, want %+v", got, cfg)
	}
	if got.Identity() != "Ada <ada@example.com>" {
		t.Errorf("Identity = %q", got.Identity())
	}
}

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := os.Remove(filepath.Join(r.LutDir, "config.toml")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("ReadConfig = %+v, want defaults", cfg)
	}
}

func TestConfig_HandWritten(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	body := "[user]\nname = \"Grace\"\n\n[log]\nmax_depth = 3\n"
	if err := os.WriteFile(filepath.Join(r.LutDir, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Identity() != "Grace" || cfg.Log.MaxDepth != 3 {
		t.Errorf("ReadConfig = %+v", cfg)
	}
}

func TestConfig_RejectsNegativeDepth(t *testing.T) {
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := os.WriteFile(filepath.Join(r.LutDir, "config.toml"), []byte("[log]\nmax_depth = -1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := r.ReadConfig(); err == nil {
		t.Fatal("ReadConfig should reject a negative max_depth")
	}
}
