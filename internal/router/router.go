package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cloudvault/internal/config"
	"cloudvault/internal/handler"
	"cloudvault/internal/middleware"
)

// Handlers groups the HTTP handlers wired into the router.
type Handlers struct {
	Auth  *handler.AuthHandler
	File  *handler.FileHandler
	Share *handler.ShareHandler
	Audit *handler.AuditHandler
	User  *handler.UserHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Profile)
		})

		api.Route("/files", func(files chi.Router) {
			files.Use(authMiddleware.RequireAuth)

			files.Post("/upload", h.File.Upload)
			files.Get("/my-files", h.File.MyFiles)
			files.Get("/shared-with-me", h.File.SharedWithMe)
			files.Get("/link/{token}", h.Share.ResolveLink)

			files.Route("/{id}", func(file chi.Router) {
				file.Get("/", h.File.Get)
				file.Get("/download", h.File.Download)
				file.Delete("/", h.File.Delete)

				file.Post("/share", h.Share.ShareWithUsers)
				file.Delete("/share/{userId}", h.Share.RevokeUser)
				file.Post("/share-link", h.Share.CreateLink)
				file.Delete("/share-link/{linkId}", h.Share.RevokeLink)
			})
		})

		api.Route("/audit", func(audit chi.Router) {
			audit.Use(authMiddleware.RequireAuth)

			audit.Get("/my-activity", h.Audit.MyActivity)
			audit.Get("/file/{id}", h.Audit.FileTrail)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(authMiddleware.RequireAuth)

			users.Get("/", h.User.List)
			users.Get("/search", h.User.Search)
			users.Get("/{id}", h.User.Get)
		})
	})

	return r
}
