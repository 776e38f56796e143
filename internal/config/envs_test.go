package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerURL != "ws://localhost:8080/spectate" {
		t.Fatalf("unexpected default server URL: %q", cfg.ServerURL)
	}
	if cfg.ConnectTimeout != 3*time.Second {
		t.Fatalf("unexpected default connect timeout: %s", cfg.ConnectTimeout)
	}
	if cfg.RetryInitial != 500*time.Millisecond || cfg.RetryMax != 10*time.Second {
		t.Fatalf("unexpected default retry window: %s..%s", cfg.RetryInitial, cfg.RetryMax)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SPECTATOR_SERVER_URL", "ws://feed.example:9000/spectate")
	t.Setenv("SPECTATOR_CONNECT_TIMEOUT_MS", "1500")

	cfg := Load()
	if cfg.ServerURL != "ws://feed.example:9000/spectate" {
		t.Fatalf("unexpected server URL: %q", cfg.ServerURL)
	}
	if cfg.ConnectTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected connect timeout: %s", cfg.ConnectTimeout)
	}
}

func TestLoadRejectsNonIntegerMillis(t *testing.T) {
	t.Setenv("SPECTATOR_RETRY_INITIAL_MS", "soon")

	cfg := Load()
	if cfg.RetryInitial != 500*time.Millisecond {
		t.Fatalf("expected the default on a bad value, got %s", cfg.RetryInitial)
	}
}
