package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "blog_session"

// ErrNoSession is returned by a Store when the session id is unknown or expired.
var ErrNoSession = errors.New("no session")

// Store persists session id -> user id mappings.
type Store interface {
	Save(ctx context.Context, id string, userID int64, expires time.Time) error
	Lookup(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, userID int64) error
}

type Manager struct {
	store  Store
	maxAge time.Duration
	secure bool
}

func NewManager(store Store, maxAge time.Duration) *Manager {
	return &Manager{store: store, maxAge: maxAge}
}

// SecureCookies marks session cookies as HTTPS-only.
func (m *Manager) SecureCookies(on bool) { m.secure = on }

// Create starts a new session for userID, replacing any previous ones, and
// sets the session cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, userID int64) error {
	id := uuid.New().String()
	expires := time.Now().Add(m.maxAge)

	if err := m.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	if err := m.store.Save(ctx, id, userID, expires); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
	return nil
}

func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request) {
	c, _ := r.Cookie(sessionCookie)
	if c != nil && c.Value != "" {
		_ = m.store.Delete(r.Context(), c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})
}

func (m *Manager) CurrentUserID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return 0, false
	}
	uid, err := m.store.Lookup(r.Context(), c.Value)
	if err != nil {
		return 0, false
	}
	return uid, true
}
