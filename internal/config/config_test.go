package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 0 {
		t.Errorf("origins = %v, want empty", cfg.Server.AllowedOrigins)
	}
	if cfg.Game.TickRate != 60 {
		t.Errorf("tick rate = %d, want 60", cfg.Game.TickRate)
	}
	if cfg.Game.BroadcastInterval != 16*time.Millisecond {
		t.Errorf("broadcast interval = %s, want 16ms", cfg.Game.BroadcastInterval)
	}
	if cfg.Game.ReconnectTimeout != 30*time.Second {
		t.Errorf("reconnect timeout = %s, want 30s", cfg.Game.ReconnectTimeout)
	}
	if cfg.Limits.InputsPerSec != 60 {
		t.Errorf("inputs/s = %v, want 60", cfg.Limits.InputsPerSec)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DISABLE_DEBUG_SERVER", "true")
	t.Setenv("TICK_RATE", "30")
	t.Setenv("BROADCAST_INTERVAL_MS", "50")
	t.Setenv("ROOM_RECONNECT_TIMEOUT_MS", "5000")
	t.Setenv("MAP_ID", "stage-2")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[0] != "https://a.example" {
		t.Errorf("origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("log level = %s", cfg.Server.LogLevel)
	}
	if !cfg.Server.DisableDebug {
		t.Error("debug server should be disabled")
	}
	if cfg.Game.TickRate != 30 {
		t.Errorf("tick rate = %d, want 30", cfg.Game.TickRate)
	}
	if cfg.Game.BroadcastInterval != 50*time.Millisecond {
		t.Errorf("broadcast interval = %s, want 50ms", cfg.Game.BroadcastInterval)
	}
	if cfg.Game.ReconnectTimeout != 5*time.Second {
		t.Errorf("reconnect timeout = %s, want 5s", cfg.Game.ReconnectTimeout)
	}
	if cfg.Game.MapID != "stage-2" {
		t.Errorf("map id = %s", cfg.Game.MapID)
	}
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("TICK_RATE", "-5")

	cfg := Load()
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want default 3000", cfg.Server.Port)
	}
	if cfg.Game.TickRate != 60 {
		t.Errorf("tick rate = %d, want default 60", cfg.Game.TickRate)
	}
}
