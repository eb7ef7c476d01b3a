// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all server and room settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP/WebSocket server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string // CORS / websocket origin allowlist; empty means allow all
	LogLevel       string
	DisableDebug   bool // disables the localhost pprof/metrics server
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:     3000,
		LogLevel: "info",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.DisableDebug = true
	}

	return cfg
}

// =============================================================================
// GAME / ROOM CONFIGURATION
// =============================================================================

// GameConfig holds simulation and room lifecycle settings.
type GameConfig struct {
	TickRate          int           // simulation ticks per second
	BroadcastInterval time.Duration // snapshot fan-out period
	ReconnectTimeout  time.Duration // disconnect grace window
	MapID             string
}

// DefaultGame returns the default game configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		TickRate:          60,
		BroadcastInterval: 16 * time.Millisecond,
		ReconnectTimeout:  30 * time.Second,
		MapID:             "stage-1",
	}
}

// GameFromEnv returns game configuration with environment variable overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if tps := getEnvInt("TICK_RATE", 0); tps > 0 {
		cfg.TickRate = tps
	}
	if ms := getEnvInt("BROADCAST_INTERVAL_MS", 0); ms > 0 {
		cfg.BroadcastInterval = time.Duration(ms) * time.Millisecond
	}
	if ms := getEnvInt("ROOM_RECONNECT_TIMEOUT_MS", 0); ms > 0 {
		cfg.ReconnectTimeout = time.Duration(ms) * time.Millisecond
	}
	if id := os.Getenv("MAP_ID"); id != "" {
		cfg.MapID = id
	}

	return cfg
}

// =============================================================================
// RATE LIMITS
// =============================================================================

// LimitsConfig controls DoS protection.
type LimitsConfig struct {
	ConnPerIPPerSec  float64 // new websocket connections per IP per second
	ConnBurst        int
	InputsPerSec     float64 // player_input frames per socket per second
	InputBurst       int
	SendBufferFrames int // outbound frames buffered per socket before dropping
}

// DefaultLimits returns the default rate limits.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		ConnPerIPPerSec:  2,
		ConnBurst:        5,
		InputsPerSec:     60,
		InputBurst:       90,
		SendBufferFrames: 64,
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server ServerConfig
	Game   GameConfig
	Limits LimitsConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server: ServerFromEnv(),
		Game:   GameFromEnv(),
		Limits: DefaultLimits(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
