package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"blog/internal/auth"
	"blog/internal/forms"
	"blog/internal/media"
	"blog/internal/metrics"
	"blog/internal/store"
)

const msgUsernameTaken = "A user with that username already exists."

// -------- Profile

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	posts, err := h.store.PostsByUser(r.Context(), u.ID, pageSize)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "profile", map[string]any{
		"Title": u.Username,
		"Posts": posts,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
	redirect(w, r, "/")
}

// -------- Registration

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", map[string]any{"Title": "Register"})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	reject := func(errs forms.Errors) {
		// never echo passwords back
		form := url.Values{"username": {r.PostForm.Get("username")}}
		h.render(w, r, http.StatusOK, "register", map[string]any{
			"Title":  "Register",
			"Form":   form,
			"Errors": errs,
		})
	}

	in, errs := forms.ValidateRegistration(r.PostForm)
	if errs != nil {
		reject(errs)
		return
	}
	taken, err := h.store.UsernameTaken(r.Context(), in.Username)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if taken {
		reject(forms.Errors{"username": {msgUsernameTaken}})
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if _, err := h.store.CreateUser(r.Context(), in.Username, hash); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			reject(forms.Errors{"username": {msgUsernameTaken}})
			return
		}
		h.serverError(w, r, err)
		return
	}
	metrics.Registrations.Inc()
	redirect(w, r, "/")
}

// -------- Profile edit

func (h *Handler) EditProfileForm(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	h.render(w, r, http.StatusOK, "edit_profile", map[string]any{
		"Title": "Edit profile",
		"Form":  url.Values{"title": {u.DisplayTitle()}, "bio": {u.Bio}},
	})
}

func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	u, _ := auth.UserFrom(r.Context())

	in, errs := forms.ValidateProfile(r.PostForm)
	if errs != nil {
		h.render(w, r, http.StatusOK, "edit_profile", map[string]any{
			"Title":  "Edit profile",
			"Form":   r.PostForm,
			"Errors": errs,
		})
		return
	}
	if err := h.store.UpdateProfile(r.Context(), u.ID, in.Title, in.Bio); err != nil {
		h.fail(w, r, err)
		return
	}
	redirect(w, r, "/profile")
}

// -------- Media

// Media streams a stored post image.
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.media.Open(r.Context(), chi.URLParam(r, "*"))
	if errors.Is(err, media.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = io.Copy(w, rc)
}
