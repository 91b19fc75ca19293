package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/ddaykeeper/internal/metrics"
	"github.com/hitoshi/ddaykeeper/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	MetricsCollector metrics.MetricsCollector
	Gatherer         prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface

	// D-Day
	DDayService DDayServiceInterface

	// ヘルスチェック
	HealthChecker func() error
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Metrics
//
// /health と /metrics はレート制限の外に配置する。
// /api/* にはグローバルレート制限を適用し、認証が必要なルートには
// RequireAuthミドルウェアを重ねる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.MetricsCollector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.MetricsCollector))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.UserFinder)
	ddayHandler := NewDDayHandler(deps.DDayService)

	requireAuth := middleware.NewRequireAuthMiddleware(deps.TokenVerifier, deps.UserFinder)
	optionalAuth := middleware.NewOptionalAuthMiddleware(deps.TokenVerifier, deps.UserFinder)

	// --- 運用系のルート（レート制限の対象外） ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- APIルート（グローバルレート制限を適用） ---

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		// 認証
		r.Route("/api/auth", func(r chi.Router) {
			r.Get("/kakao", authHandler.GetAuthURL)
			r.Post("/kakao/callback", authHandler.Callback)
			r.With(requireAuth).Get("/me", authHandler.Me)
			r.With(optionalAuth).Post("/logout", authHandler.Logout)
		})

		// D-Day管理（全ルート認証必須）
		r.Route("/api/ddays", func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/", ddayHandler.List)
			r.Post("/", ddayHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ddayHandler.Get)
				r.Put("/", ddayHandler.Update)
				r.Delete("/", ddayHandler.Delete)
			})
		})
	})

	return r
}

// newHealthHandler はヘルスチェックハンドラーを返す。
// checkerがエラーを返す場合は503を返す。
func newHealthHandler(checker func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker(); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("unhealthy"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
