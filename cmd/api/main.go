package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/blockfall/internal/services/tetris"
)

func main() {
	config.LoadDotEnv()

	serverCfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("サーバー設定の読み込みに失敗しました: %v", err)
	}

	gameCfg, err := config.Load(serverCfg.GameConfigPath)
	if err != nil {
		log.Fatalf("ゲーム設定の読み込みに失敗しました: %v", err)
	}
	catalog, err := gameCfg.Catalog()
	if err != nil {
		log.Fatalf("ピースカタログの構築に失敗しました: %v", err)
	}

	// DATABASE_URL が無い場合は記録を保存せずに動かす
	var dbService *database.DatabaseService
	var records database.RecordRepository
	if serverCfg.DatabaseURL != "" {
		dialect, err := database.ParseDialect(serverCfg.DatabaseDriver)
		if err != nil {
			log.Fatalf("%v", err)
		}
		dbService, err = database.NewDatabaseService(dialect, serverCfg.DatabaseURL)
		if err != nil {
			log.Fatalf("データベースに接続できませんでした: %v", err)
		}
		defer dbService.Close()
		if err := dbService.EnsureSchema(); err != nil {
			log.Fatalf("%v", err)
		}
		records = database.NewRecordRepository(dbService)
	} else {
		log.Println("warning: DATABASE_URL is not set; session records will not be saved")
	}

	sessionManager := tetris.NewSessionManager(gameCfg.Settings(), catalog, records, serverCfg.TickInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sessionManager.Run(ctx)

	router := api.NewRouter(api.Dependencies{
		SessionManager: sessionManager,
		Auth:           &middleware.Authenticator{Secret: serverCfg.JWTSecret, Bypass: serverCfg.BypassAuth},
		Database:       dbService,
		Records:        records,
		AllowedOrigins: serverCfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              ":" + serverCfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		sessionManager.Shutdown()
	}()

	log.Printf("Server starting on :%s (tick %s, %d piece types)", serverCfg.Port, serverCfg.TickInterval, catalog.TypeCount())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
