package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blog/internal/metrics"
	"blog/internal/web"
)

// Routes builds the application router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if h.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(WithRecover)
	r.Use(metrics.Middleware)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	r.Get("/media/*", h.Media)

	r.Group(func(r chi.Router) {
		r.Use(h.Identify)

		r.Get("/", h.Home)
		r.Post("/", h.Login)
		r.Get("/logout", h.Logout)
		r.Get("/register", h.RegisterForm)
		r.Post("/register", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/profile", h.Profile)
			r.Get("/user/edit", h.EditProfileForm)
			r.Post("/user/edit", h.EditProfile)

			r.Get("/post/new", h.NewPost)
			r.Post("/post/new", h.CreatePost)
			r.Get("/post/{postID}", h.PostDetail)
			r.Post("/post/{postID}", h.CreateComment)
			r.Post("/post/{postID}/vote", h.Vote)
		})

		r.NotFound(h.NotFound)
	})

	return r
}
