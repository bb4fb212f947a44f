package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/maildigest/internal/metrics"
	"github.com/hitoshi/maildigest/internal/middleware"
)

// HealthChecker はヘルスチェックが必要とするDB疎通確認のインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger            *slog.Logger
	HealthChecker     HealthChecker
	MetricsGatherer   prometheus.Gatherer
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	DigestRunner    DigestRunnerInterface
	DigestStore     DigestStoreInterface
	SettingsService SettingsServiceInterface
	LabelLister     LabelListerInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → RateLimit(General)
//
// 運用エンドポイント（/health, /metrics）はレート制限の外に配置する。
// ダイジェスト実行はGmail APIを叩くため、専用のレート制限を重ねる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	digestHandler := NewDigestHandler(deps.DigestRunner, deps.DigestStore)
	settingsHandler := NewSettingsHandler(deps.SettingsService)
	labelHandler := NewLabelHandler(deps.LabelLister)

	// --- 運用エンドポイント ---

	r.Get("/health", newHealthHandlerFunc(deps.HealthChecker))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))

	// --- APIエンドポイント ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/digest", func(r chi.Router) {
			r.Get("/", digestHandler.GetDigest)
			r.With(deps.RateLimiter.RunMiddleware()).Post("/run", digestHandler.RunDigest)

			r.Get("/settings", settingsHandler.GetSettings)
			r.Put("/settings", settingsHandler.UpdateSettings)
		})

		r.Get("/api/labels", labelHandler.GetLabels)
	})

	return r
}

// newHealthHandlerFunc はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandlerFunc(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := checker.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
