package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort         = "8080"
	defaultTickInterval = 10 * time.Millisecond
	defaultOrigins      = "http://localhost:3000"
)

// ServerConfig は API サーバーの環境変数です。
type ServerConfig struct {
	Environment    string        // APP_ENV
	Port           string        // PORT
	DatabaseDriver string        // DATABASE_DRIVER (postgres / mysql)
	DatabaseURL    string        // DATABASE_URL（空なら記録を保存しない）
	GameConfigPath string        // GAME_CONFIG_PATH（空なら埋め込みの既定設定）
	TickInterval   time.Duration // TICK_INTERVAL_MS
	JWTSecret      string        // JWT_SECRET
	BypassAuth     bool          // BYPASS_AUTH=true でJWT検証を省略
	AllowedOrigins []string      // ALLOWED_ORIGINS（カンマ区切り）
}

// LoadDotEnv は本番環境以外で .env ファイルを読み込みます。
func LoadDotEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
	}
}

// LoadServerConfig は環境変数からサーバー設定を読み込みます。
// 事前に LoadDotEnv を呼んでおくと .env の値も反映されます。
//
// Returns:
//   *ServerConfig: サーバー設定
//   error        : 数値の環境変数が不正な場合
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Environment:    os.Getenv("APP_ENV"),
		Port:           getEnv("PORT", defaultPort),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		GameConfigPath: os.Getenv("GAME_CONFIG_PATH"),
		TickInterval:   defaultTickInterval,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		BypassAuth:     os.Getenv("BYPASS_AUTH") == "true",
	}

	if raw := os.Getenv("TICK_INTERVAL_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("TICK_INTERVAL_MS が不正です (%q)", raw)
		}
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}

	for _, origin := range strings.Split(getEnv("ALLOWED_ORIGINS", defaultOrigins), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.JWTSecret == "" && !cfg.BypassAuth {
		log.Println("warning: JWT_SECRET is not set; authenticated endpoints will reject every request")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
