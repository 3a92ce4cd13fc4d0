package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/WiMProject/backend-hamim/internal/metrics"
	"github.com/WiMProject/backend-hamim/internal/middleware"
	"github.com/WiMProject/backend-hamim/internal/storage"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenFinder       middleware.TokenFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Collector         metrics.MetricsCollector
	Gatherer          prometheus.Gatherer

	// サービス
	AuthService    AuthServiceInterface
	ProfileService ProfileServiceInterface
	AssetService   AssetServiceInterface
	FileStore      storage.FileStore
	HealthChecker  HealthChecker

	// アップロード
	MaxUploadSize int64
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Logging → Metrics
//
// 認証が必要なルートはさらに Auth → RateLimit(General) を通過する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Collector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	profileHandler := NewProfileHandler(deps.ProfileService)
	assetHandler := NewAssetHandler(deps.AssetService, deps.MaxUploadSize)
	fileHandler := NewFileHandler(deps.FileStore)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---
	// 認証ルートとアセットの書き込み系が同じプレフィックスを共有するため、
	// サブルーターはマウントせずフラットに登録する。

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/firebase-login", authHandler.FirebaseLogin)
	r.Post("/auth/forgot-password", authHandler.ForgotPassword)
	r.Post("/auth/reset-password", authHandler.ResetPassword)

	// アセットの読み取り系は公開
	r.Get("/api/assets", assetHandler.List)
	r.Get("/api/assets/translations", assetHandler.ListTranslations)
	r.Get("/api/assets/translations/{language}", assetHandler.GetTranslationContent)
	r.Get("/api/assets/{id}", assetHandler.Get)

	// ファイル配信
	r.Get("/files/*", fileHandler.Serve)

	// 運用エンドポイント
	r.Get("/healthz", healthHandler.Check)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenFinder, deps.UserFinder, deps.Collector))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/change-password", authHandler.ChangePassword)

		r.Get("/api/profile", profileHandler.Get)
		r.Put("/api/profile", profileHandler.Update)

		// 書き込み系のアセット操作（アップロード専用レート制限を追加）
		r.With(deps.RateLimiter.UploadMiddleware()).Post("/api/assets/upload", assetHandler.Upload)
		r.With(deps.RateLimiter.UploadMiddleware()).Post("/api/assets/translations", assetHandler.CreateTranslation)
	})

	return r
}
