package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"blog/internal/auth"
	"blog/internal/forms"
	"blog/internal/media"
	"blog/internal/store"
	"blog/internal/web"
)

// pageSize is the number of posts listed on the home and profile pages.
const pageSize = 10

type Handler struct {
	store    *store.Store
	sessions *auth.Manager
	media    media.Store
	logins   *LoginLimiter
	tpls     *template.Template

	trustProxy bool
}

func New(st *store.Store, sessions *auth.Manager, images media.Store, logins *LoginLimiter) *Handler {
	tpls := template.Must(web.Templates())
	return &Handler{store: st, sessions: sessions, media: images, logins: logins, tpls: tpls}
}

// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP replace the peer
// address. Enable it only behind a proxy that overwrites those headers.
func (h *Handler) TrustProxyHeaders(on bool) { h.trustProxy = on }

// render executes the named page into a buffer so a template failure can
// still produce a clean 500. Keys every page reads are filled with zero
// values when the caller leaves them out.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	u, _ := auth.UserFrom(r.Context())
	data["User"] = u
	if _, ok := data["Form"]; !ok {
		data["Form"] = url.Values{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.Errors(nil)
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = "Blog"
	}

	var buf bytes.Buffer
	if err := h.tpls.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// serverError logs err and answers 500.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// fail maps store.ErrNotFound to the not-found page and anything else to 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	h.serverError(w, r, err)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func postURL(id int64) string {
	return "/post/" + strconv.FormatInt(id, 10)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "notfound", map[string]any{"Title": "Not Found"})
}

// Healthz reports whether the database answers.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
