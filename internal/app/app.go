// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/maildigest/internal/alerts"
	"github.com/hitoshi/maildigest/internal/config"
	"github.com/hitoshi/maildigest/internal/database"
	"github.com/hitoshi/maildigest/internal/gmail"
	"github.com/hitoshi/maildigest/internal/handler"
	"github.com/hitoshi/maildigest/internal/logger"
	"github.com/hitoshi/maildigest/internal/metrics"
	"github.com/hitoshi/maildigest/internal/middleware"
	"github.com/hitoshi/maildigest/internal/pipeline"
	"github.com/hitoshi/maildigest/internal/repository"
	"github.com/hitoshi/maildigest/internal/security"
	"github.com/hitoshi/maildigest/internal/settings"
	"github.com/hitoshi/maildigest/internal/worker/digest"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// pipelineDeps はserve/workerで共通のパイプライン依存関係をまとめる。
type pipelineDeps struct {
	kvRepo      repository.KeyValueRepository
	settingsSvc *settings.Service
	gmailClient *gmail.Client
	runner      *pipeline.Runner
	store       *digest.Store
	registry    *prometheus.Registry
}

// buildPipeline はDB接続からパイプライン実行に必要な依存一式を組み立てる。
func buildPipeline(ctx context.Context, cfg *config.Config, kvRepo repository.KeyValueRepository) (*pipelineDeps, error) {
	// 1. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	// 2. Gmailクライアントの初期化
	gmailClient, err := gmail.NewClient(ctx, cfg.GmailCredentialsFile, cfg.GmailTokenFile, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}

	// 3. アラートフィードソースの初期化
	alertSource := alerts.NewSource(ssrfGuard, sanitizer, slog.Default(), cfg.FeedTimeout, cfg.FeedMaxSize)

	// 4. 設定サービスとメトリクスの初期化
	settingsSvc := settings.NewService(kvRepo)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. パイプラインランナーの初期化
	runner := pipeline.NewRunner(
		gmailClient, alertSource, settingsSvc, kvRepo, collector,
		slog.Default(), cfg.FetchTimeout, cfg.FetchMaxConcurrent,
	)

	return &pipelineDeps{
		kvRepo:      kvRepo,
		settingsSvc: settingsSvc,
		gmailClient: gmailClient,
		runner:      runner,
		store:       digest.NewStore(kvRepo),
		registry:    registry,
	}, nil
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. パイプライン依存の組み立て
	ctx := context.Background()
	kvRepo := repository.NewPostgresKVRepo(db)

	deps, err := buildPipeline(ctx, cfg, kvRepo)
	if err != nil {
		return err
	}

	// 3. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(cfg.RateLimitGeneral))
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		HealthChecker:     db,
		MetricsGatherer:   deps.registry,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		DigestRunner:    deps.runner,
		DigestStore:     deps.store,
		SettingsService: deps.settingsSvc,
		LabelLister:     deps.gmailClient,
	})

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker は定期ダイジェスト生成ワーカーモードで起動する。
// DB接続を開き、一定間隔でパイプラインを実行して結果をキャッシュする。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	// 2. パイプライン依存の組み立て
	kvRepo := repository.NewPostgresKVRepo(db)

	deps, err := buildPipeline(ctx, cfg, kvRepo)
	if err != nil {
		return err
	}

	slog.Info("worker starting",
		slog.Duration("digest_interval", cfg.DigestInterval),
		slog.Int("max_concurrent", cfg.FetchMaxConcurrent),
	)

	// 3. ワーカーをメインgoroutineで実行（ブロッキング）
	worker := digest.NewWorker(deps.runner, deps.store, slog.Default())
	worker.Start(ctx, cfg.DigestInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
