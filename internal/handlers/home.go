package handlers

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"blog/internal/auth"
	"blog/internal/forms"
	"blog/internal/metrics"
	"blog/internal/store"
)

const (
	msgInvalidForm     = "Sorry, something went wrong. Try again."
	msgBadCredentials  = "Invalid username or password."
	msgTooManyAttempts = "Too many login attempts. Try again later."
)

// -------- Home

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderHome(w, r, http.StatusOK, map[string]any{
		"Next": safeNext(r.URL.Query().Get("next")),
	})
}

// renderHome shows the newest posts next to the login form; extra carries
// form state and messages.
func (h *Handler) renderHome(w http.ResponseWriter, r *http.Request, status int, extra map[string]any) {
	posts, err := h.store.RecentPosts(r.Context(), pageSize)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	extra["Title"] = "Blog"
	extra["Posts"] = posts
	h.render(w, r, status, "home", extra)
}

// Login handles the login form posted to the home page.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	next := safeNext(r.PostForm.Get("next"))
	page := map[string]any{"Form": r.PostForm, "Next": next}

	if h.logins != nil && !h.logins.Allow(clientIP(r)) {
		metrics.Logins.WithLabelValues("throttled").Inc()
		page["ErrorMessage"] = msgTooManyAttempts
		h.renderHome(w, r, http.StatusTooManyRequests, page)
		return
	}

	creds, errs := forms.ValidateLogin(r.PostForm)
	if errs != nil {
		metrics.Logins.WithLabelValues("invalid").Inc()
		page["Errors"] = errs
		page["ErrorMessage"] = msgInvalidForm
		h.renderHome(w, r, http.StatusOK, page)
		return
	}

	u, err := h.store.UserByUsername(r.Context(), creds.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.serverError(w, r, err)
		return
	}
	if u == nil || !auth.CheckPassword(creds.Password, u.PasswordHash) {
		metrics.Logins.WithLabelValues("failure").Inc()
		page["ErrorMessage"] = msgBadCredentials
		h.renderHome(w, r, http.StatusUnauthorized, page)
		return
	}

	if err := h.sessions.Create(r.Context(), w, u.ID); err != nil {
		h.serverError(w, r, err)
		return
	}
	metrics.Logins.WithLabelValues("success").Inc()
	if next != "" {
		redirect(w, r, next)
		return
	}
	redirect(w, r, "/profile")
}

// safeNext keeps only local absolute paths as redirect targets. Browsers
// drop tabs and newlines from URLs, so any control character is rejected
// before the prefix checks.
func safeNext(next string) string {
	if strings.IndexFunc(next, func(r rune) bool { return r < 0x20 || r == 0x7f }) >= 0 {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return ""
	}
	return next
}

// clientIP returns the request's peer host. Proxy headers only reach
// RemoteAddr when the handler trusts them (see TrustProxyHeaders).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
