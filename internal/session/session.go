// Package session keeps per-browser authentication state in a signed and
// encrypted cookie.
package session

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"item-catalog/internal/middleware"
)

// Session value keys.
const (
	keyUserID       = "user_id"
	keyName         = "username"
	keyEmail        = "email"
	keyPicture      = "picture"
	keyToken        = "token"
	keyRefreshToken = "refresh_token"
	keyState        = "state"
)

// Identity is the signed-in user as remembered by the session.
type Identity struct {
	UserID  uint
	Name    string
	Email   string
	Picture string
}

// Options configure the cookie store.
type Options struct {
	Secret string
	MaxAge int
	Secure bool
}

// NewCookieStore builds a cookie store whose hash and encryption keys are
// derived from opts.Secret. An empty secret gets a random key, which makes
// sessions die with the process.
func NewCookieStore(opts Options) *sessions.CookieStore {
	var hashKey, blockKey []byte
	if opts.Secret == "" {
		hashKey = securecookie.GenerateRandomKey(64)
		blockKey = securecookie.GenerateRandomKey(32)
	} else {
		h := sha256.Sum256([]byte("hash:" + opts.Secret))
		b := sha256.Sum256([]byte("block:" + opts.Secret))
		hashKey, blockKey = h[:], b[:]
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(opts.MaxAge)
	return store
}

// Session is a typed view over the raw cookie session.
type Session struct {
	raw *sessions.Session
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	return s.UserID() != 0 && s.Token() != ""
}

func (s *Session) UserID() uint {
	id, _ := s.raw.Values[keyUserID].(uint)
	return id
}

// Identity returns the signed-in user, or the zero Identity.
func (s *Session) Identity() Identity {
	return Identity{
		UserID:  s.UserID(),
		Name:    s.stringValue(keyName),
		Email:   s.stringValue(keyEmail),
		Picture: s.stringValue(keyPicture),
	}
}

func (s *Session) Token() string {
	return s.stringValue(keyToken)
}

func (s *Session) RefreshToken() string {
	return s.stringValue(keyRefreshToken)
}

// SignIn records identity and provider tokens.
func (s *Session) SignIn(id Identity, token, refreshToken string) {
	s.raw.Values[keyUserID] = id.UserID
	s.raw.Values[keyName] = id.Name
	s.raw.Values[keyEmail] = id.Email
	s.raw.Values[keyPicture] = id.Picture
	s.raw.Values[keyToken] = token
	s.raw.Values[keyRefreshToken] = refreshToken
}

// SignOut forgets identity and tokens. Pending flashes survive.
func (s *Session) SignOut() {
	for _, k := range []string{keyUserID, keyName, keyEmail, keyPicture, keyToken, keyRefreshToken} {
		delete(s.raw.Values, k)
	}
}

// SetState remembers the anti-forgery token of a pending authorization.
func (s *Session) SetState(state string) {
	s.raw.Values[keyState] = state
}

// PopState returns the pending anti-forgery token and removes it.
func (s *Session) PopState() string {
	state := s.stringValue(keyState)
	delete(s.raw.Values, keyState)
	return state
}

func (s *Session) AddFlash(msg string) {
	s.raw.AddFlash(msg)
}

// Flashes returns and clears the pending flash messages. The session must be
// saved for the removal to stick.
func (s *Session) Flashes() []string {
	raw := s.raw.Flashes()
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (s *Session) Save(r *http.Request, w http.ResponseWriter) error {
	return s.raw.Save(r, w)
}

func (s *Session) stringValue(key string) string {
	v, _ := s.raw.Values[key].(string)
	return v
}

// Manager loads sessions from a store.
type Manager struct {
	store sessions.Store
	name  string
	log   *slog.Logger
}

func NewManager(store sessions.Store, name string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: store, name: name, log: log}
}

// Get returns the request's session. A cookie that fails to decode yields a
// fresh anonymous session.
func (m *Manager) Get(r *http.Request) *Session {
	raw, err := m.store.Get(r, m.name)
	if err != nil {
		m.log.Debug("discarding unreadable session", slog.Any("error", err))
		if raw == nil {
			raw = sessions.NewSession(m.store, m.name)
			raw.Options = m.options()
			raw.IsNew = true
		}
	}
	return &Session{raw: raw}
}

func (m *Manager) options() *sessions.Options {
	if cs, ok := m.store.(*sessions.CookieStore); ok && cs.Options != nil {
		opts := *cs.Options
		return &opts
	}
	return &sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode}
}

type contextKey struct{}

// Load attaches the request's session to its context.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.Get(r)
		if sess.Authenticated() {
			middleware.SetUserID(r.Context(), sess.UserID())
		}
		ctx := context.WithValue(r.Context(), contextKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session attached by Load, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
