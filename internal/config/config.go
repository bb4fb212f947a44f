// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// パイプライン自体の設定（ラベル名や件数上限など）はKVストアに永続化される
// settings.PipelineConfigであり、ここには含めない。
type Config struct {
	// Database
	DatabaseURL string

	// Gmail
	GmailCredentialsFile string
	GmailTokenFile       string

	// Pipeline fetch
	FetchTimeout       time.Duration
	FetchMaxConcurrent int

	// Alerts feed fetch
	FeedTimeout time.Duration
	FeedMaxSize int64

	// Worker
	DigestInterval time.Duration

	// Rate Limit
	RateLimitGeneral int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GmailCredentialsFile = os.Getenv("GMAIL_CREDENTIALS_FILE")
	if cfg.GmailCredentialsFile == "" {
		missing = append(missing, "GMAIL_CREDENTIALS_FILE")
	}

	cfg.GmailTokenFile = os.Getenv("GMAIL_TOKEN_FILE")
	if cfg.GmailTokenFile == "" {
		missing = append(missing, "GMAIL_TOKEN_FILE")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 15*time.Second)
	cfg.FetchMaxConcurrent = getEnvInt("FETCH_MAX_CONCURRENT", 8)
	cfg.FeedTimeout = getEnvDuration("FEED_TIMEOUT", 10*time.Second)
	cfg.FeedMaxSize = getEnvInt64("FEED_MAX_SIZE", 5242880)
	cfg.DigestInterval = getEnvDuration("DIGEST_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 60)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
