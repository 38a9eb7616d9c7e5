package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfigDefaults(t *testing.T) {
	writeConfig(t, "http:\n  addr: \":3001\"\n")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":3001" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Logging.Service != "collab-service" || cfg.Logging.Env != "dev" {
		t.Fatalf("logging defaults not applied: %+v", cfg.Logging)
	}
	if cfg.Logging.Backend != "std" {
		t.Fatalf("backend default = %q", cfg.Logging.Backend)
	}
}

func TestLoadConfigRequiresAddr(t *testing.T) {
	writeConfig(t, "logging:\n  env: prod\n")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("config without http.addr accepted")
	}
}

func TestDurationHelpers(t *testing.T) {
	h := HTTP{ReadTimeout: "5s", WriteTimeout: "bogus"}
	if d := h.ReadTimeoutOr(time.Second); d != 5*time.Second {
		t.Fatalf("read timeout = %s", d)
	}
	if d := h.WriteTimeoutOr(15 * time.Second); d != 15*time.Second {
		t.Fatalf("write timeout fallback = %s", d)
	}

	w := WS{}
	if d := w.PingIntervalOr(15 * time.Second); d != 15*time.Second {
		t.Fatalf("ping interval fallback = %s", d)
	}
}
