package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"tank-arena/internal/api"
	"tank-arena/internal/config"
	"tank-arena/internal/room"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  TANK ARENA - GAME SERVER")
	log.Println("🎮  2-player co-op, authoritative")
	log.Println("🎮 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	serverCfg := appConfig.Server
	gameCfg := appConfig.Game

	log.Printf("🎮 Config: %d TPS, broadcast every %s, reconnect grace %s",
		gameCfg.TickRate, gameCfg.BroadcastInterval, gameCfg.ReconnectTimeout)

	manager := room.NewManager(room.Config{
		TickRate:          gameCfg.TickRate,
		BroadcastInterval: gameCfg.BroadcastInterval,
		ReconnectTimeout:  gameCfg.ReconnectTimeout,
		MapID:             gameCfg.MapID,
	})
	manager.OnCountsChanged = api.UpdateRoomCounts
	manager.OnTick = api.RecordTick

	gateway := api.NewGateway(manager, appConfig.Limits, serverCfg.AllowedOrigins)

	var corsOrigins []string
	if len(serverCfg.AllowedOrigins) > 0 {
		corsOrigins = serverCfg.AllowedOrigins
	}
	router := api.NewRouter(api.RouterConfig{
		Manager:     manager,
		Gateway:     gateway,
		CORSOrigins: corsOrigins,
	})

	// Start debug server
	debugCfg := api.DefaultObservabilityConfig()
	debugCfg.Enabled = !serverCfg.DisableDebug
	if err := api.StartDebugServer(debugCfg); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	addr := ":" + strconv.Itoa(serverCfg.Port)
	go func() {
		log.Printf("🌐 Server on http://localhost%s", addr)
		log.Printf("🔌 WebSocket endpoint: ws://localhost%s/ws", addr)
		if err := http.ListenAndServe(addr, router); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	log.Println("👋 Goodbye!")
}
