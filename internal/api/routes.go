package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RegisterRoutes 注册所有API路由
func RegisterRoutes(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	// --- 中间件 (Middleware) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	origins := deps.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handlers := NewAPIHandlers(deps)

	// --- API路由 ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", handlers.HandleRegister)
		r.Post("/login", handlers.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireSession(deps.Sessions))

			r.Post("/logout", handlers.HandleLogout)

			r.Get("/albums", handlers.HandleListAlbums)
			r.Post("/albums", handlers.HandleCreateAlbum)
			r.Get("/albums/by-name/{name}", handlers.HandleGetAlbumByName)
			r.Get("/albums/{albumID}", handlers.HandleGetAlbum)
			r.Get("/albums/{albumID}/photos", handlers.HandleListPhotos)
			r.Post("/albums/{albumID}/photos", handlers.HandleUploadPhoto)

			r.Get("/photos/{photoID}", handlers.HandleGetPhoto)
			r.Put("/photos/{photoID}", handlers.HandleUpdatePhoto)
			r.Post("/photos/{photoID}/tags", handlers.HandleAddTag)
			r.Post("/photos/{photoID}/albums", handlers.HandleAddToAlbum)
			r.Get("/photos/{photoID}/comments", handlers.HandleListComments)
			r.Post("/photos/{photoID}/comments", handlers.HandleAddComment)

			r.Get("/search", handlers.HandleSearch)
			r.Post("/search/similar", handlers.HandleSearchSimilar)

			r.Get("/notifications", handlers.HandleNotifications)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}
