package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
)

const (
	SessionCookie = "course_session"
	oauthCookie   = "course_oauth"

	tokenField = "token"
	stateField = "state"
)

// SessionStore keeps the session token in a signed cookie.
type SessionStore struct {
	store *sessions.CookieStore
	ttl   time.Duration
}

func NewSessionStore(secret string, ttl time.Duration, secure bool) *SessionStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store, ttl: ttl}
}

// Token returns the bearer token of the request, falling back to the session cookie.
func (s *SessionStore) Token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	sess, err := s.store.Get(r, SessionCookie)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[tokenField].(string)
	return token
}

func (s *SessionStore) Save(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := s.store.Get(r, SessionCookie)
	sess.Values[tokenField] = token
	sess.Options.MaxAge = int(s.ttl.Seconds())
	return sess.Save(r, w)
}

func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, SessionCookie)
	delete(sess.Values, tokenField)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// SaveOAuthState binds an OAuth state to the browser for ten minutes.
func (s *SessionStore) SaveOAuthState(w http.ResponseWriter, r *http.Request, state string) error {
	sess, _ := s.store.Get(r, oauthCookie)
	sess.Values[stateField] = state
	sess.Options.MaxAge = 600
	return sess.Save(r, w)
}

// OAuthState returns the state bound by SaveOAuthState and clears it.
func (s *SessionStore) OAuthState(w http.ResponseWriter, r *http.Request) string {
	sess, err := s.store.Get(r, oauthCookie)
	if err != nil {
		return ""
	}
	state, _ := sess.Values[stateField].(string)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
	return state
}
