package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careerflow/internal/middleware"
	"github.com/hitoshi/careerflow/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           middleware.HTTPMetricsRecorder

	// ヘルスチェック
	DB *sql.DB

	// サービス
	AuthService        AuthServiceInterface
	UserService        UserServiceInterface
	JobService         JobServiceInterface
	ApplicationService ApplicationServiceInterface
	CommunityService   CommunityServiceInterface
	ResourceService    ResourceServiceInterface
	SessionService     SessionServiceInterface
	AIService          AIServiceInterface

	// メトリクスカウンタ
	SignupRecorder      SignupRecorder
	ApplicationRecorder ApplicationRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging → (Auth → RateLimit)
//
// 認証とレート制限は保護ルートのグループにのみ適用する。
// AIルートには一般レート制限に加えて専用の厳しいレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.UserService, deps.SignupRecorder)
	jobHandler := NewJobHandler(deps.JobService)
	appHandler := NewApplicationHandler(deps.ApplicationService, deps.ApplicationRecorder)
	communityHandler := NewCommunityHandler(deps.CommunityService)
	resourceHandler := NewResourceHandler(deps.ResourceService)
	sessionHandler := NewSessionHandler(deps.SessionService)
	aiHandler := NewAIHandler(deps.AIService)
	healthHandler := NewHealthHandler(deps.DB)

	// --- 認証不要のルート ---

	r.Get("/api/health", healthHandler.Check)
	r.Post("/api/auth/signup", authHandler.Signup)
	r.Post("/api/auth/login", authHandler.Login)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.UserFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プロフィール
		r.Get("/api/auth/me", authHandler.Me)
		r.Put("/api/auth/me", authHandler.UpdateMe)
		r.Get("/api/counselors", authHandler.ListCounselors)

		// 求人と応募
		r.Route("/api/jobs", func(r chi.Router) {
			r.With(middleware.RequireRole(model.RoleCounselor)).Post("/", jobHandler.Create)
			r.Get("/", jobHandler.List)

			r.Route("/{jobID}", func(r chi.Router) {
				r.Get("/", jobHandler.Get)
				r.With(middleware.RequireRole(model.RoleCounselor)).Delete("/", jobHandler.Delete)
				r.With(middleware.RequireRole(model.RoleJobSeeker)).Post("/apply", appHandler.Apply)
				r.With(middleware.RequireRole(model.RoleJobSeeker)).Get("/applied", appHandler.HasApplied)
				r.With(middleware.RequireRole(model.RoleCounselor)).Get("/applications", appHandler.ListForJob)
				r.With(middleware.RequireRole(model.RoleCounselor)).Get("/applications/export", appHandler.Export)
			})
		})
		r.With(middleware.RequireRole(model.RoleJobSeeker)).Get("/api/applications/mine", appHandler.ListMine)

		// コミュニティ
		r.Route("/api/community", func(r chi.Router) {
			r.Route("/posts", func(r chi.Router) {
				r.Post("/", communityHandler.CreatePost)
				r.Get("/", communityHandler.ListPosts)

				r.Route("/{postID}", func(r chi.Router) {
					r.Get("/", communityHandler.GetPost)
					r.Post("/like", communityHandler.ToggleLikePost)
					r.Delete("/", communityHandler.DeletePost)

					r.Post("/replies", communityHandler.CreateReply)
					r.Get("/replies", communityHandler.ListReplies)
				})
			})

			r.Route("/replies/{id}", func(r chi.Router) {
				r.Post("/like", communityHandler.ToggleLikeReply)
				r.Delete("/", communityHandler.DeleteReply)
			})
		})

		// 学習リソース
		r.Route("/api/resources", func(r chi.Router) {
			r.Post("/", resourceHandler.Create)
			r.Get("/", resourceHandler.List)
			r.Delete("/{id}", resourceHandler.Delete)
		})

		// カウンセリングセッション
		r.Route("/api/sessions", func(r chi.Router) {
			r.With(middleware.RequireRole(model.RoleJobSeeker)).Post("/", sessionHandler.Request)
			r.Get("/", sessionHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.With(middleware.RequireRole(model.RoleCounselor)).Post("/accept", sessionHandler.Accept)
				r.With(middleware.RequireRole(model.RoleCounselor)).Post("/reject", sessionHandler.Reject)
				r.With(middleware.RequireRole(model.RoleCounselor)).Post("/reschedule", sessionHandler.Reschedule)
				r.With(middleware.RequireRole(model.RoleJobSeeker)).Post("/confirm", sessionHandler.Confirm)
				r.With(middleware.RequireRole(model.RoleJobSeeker)).Post("/cancel", sessionHandler.Cancel)
			})
		})

		// AIコーチ（専用レート制限を追加）
		r.Route("/api/ai", func(r chi.Router) {
			r.Use(deps.RateLimiter.AIMiddleware())

			r.Post("/chat", aiHandler.Chat)
			r.Get("/career-paths", aiHandler.CareerPaths)
			r.Post("/resume-feedback", aiHandler.ResumeFeedback)
			r.Post("/fit-score", aiHandler.FitScore)
			r.Post("/career-path-tree", aiHandler.CareerPathTree)
		})
	})

	return r
}
