package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	settings, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if settings.DaemonAddr != ":9321" {
		t.Fatalf("unexpected default addr %q", settings.DaemonAddr)
	}
	if settings.MCPToken == "" || settings.AdminToken == "" {
		t.Fatalf("expected generated tokens")
	}
	if settings.CommandTimeout != 15*time.Second {
		t.Fatalf("unexpected default command timeout %v", settings.CommandTimeout)
	}

	// Reloading must keep the generated tokens stable.
	again, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.MCPToken != settings.MCPToken || again.AdminToken != settings.AdminToken {
		t.Fatalf("tokens must persist across loads")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	settings, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	settings.DaemonAddr = "127.0.0.1:9400"
	settings.CommandTimeout = 7 * time.Second
	saved, err := Save(settings)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.DaemonAddr != "127.0.0.1:9400" || saved.CommandTimeout != 7*time.Second {
		t.Fatalf("saved settings not round-tripped: %+v", saved)
	}
	if saved.AdminBaseURL == "" {
		t.Fatalf("expected derived admin base url")
	}
}
