package session

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName    = "ecommerce_session"
	userIDKey     = "user_id"
	defaultMaxAge = 86400 * 14
)

// Store wraps a signed cookie store holding the authenticated user id.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore creates a cookie backed session store.
// maxAge is in seconds; zero falls back to two weeks.
func NewStore(secret string, secure bool, maxAge int) *Store {
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}

	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Store{cookies: store}
}

// UserID returns the user id stored in the request's session, if any.
func (s *Store) UserID(r *http.Request) (uuid.UUID, bool) {
	sess, err := s.cookies.Get(r, cookieName)
	if err != nil {
		return uuid.Nil, false
	}

	raw, ok := sess.Values[userIDKey].(string)
	if !ok || raw == "" {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Login stores userID in a fresh session cookie.
func (s *Store) Login(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	sess, _ := s.cookies.Get(r, cookieName)
	sess.Values[userIDKey] = userID.String()
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Logout expires the session cookie.
func (s *Store) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.cookies.Get(r, cookieName)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
