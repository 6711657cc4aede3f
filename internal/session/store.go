// Package session keeps the authenticated user and bearer token and
// persists them as one blob in a key-value store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/core"
	"fintrack/internal/gateway"
	"fintrack/internal/log"
)

// DefaultKey is the key the session blob is stored under.
const DefaultKey = "@fintrack:session"

var ErrNoSession = errors.New("no stored session")

// KV is a blob store. Get reports ok=false for an absent key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Authenticator is the part of the backend the session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (gateway.LoginResult, error)
	Register(ctx context.Context, in gateway.RegisterInput) (core.User, error)
}

// TokenSink receives every token change. The gateway client is one.
type TokenSink interface {
	SetToken(token string)
}

type stored struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

type Store struct {
	kv     KV
	key    string
	auth   Authenticator
	sinks  []TokenSink
	logger *log.Logger
	now    func() time.Time

	mu      sync.RWMutex
	token   string
	user    *core.User
	loading bool
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger.WithComponent(log.ComponentSession)
	}
}

// WithTokenSink pushes token changes to sink
func WithTokenSink(sink TokenSink) Option {
	return func(s *Store) {
		s.sinks = append(s.sinks, sink)
	}
}

// New creates a signed-out store. An empty key selects DefaultKey.
func New(kv KV, key string, auth Authenticator, opts ...Option) *Store {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{
		kv:     kv,
		key:    key,
		auth:   auth,
		logger: log.NewSilent(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted session once. A blob whose token has
// expired is deleted and the store stays signed out. A missing blob is not
// an error.
func (s *Store) Restore(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if !ok {
		s.logger.DebugContext(ctx, "No stored session", log.FieldOperation, log.OpRestore)
		return nil
	}

	var blob stored
	if err := json.Unmarshal(raw, &blob); err != nil || blob.Token == "" {
		s.logger.WarnContext(ctx, "Discarding unreadable session", log.FieldOperation, log.OpRestore)
		return s.kv.Delete(ctx, s.key)
	}
	if expired(blob.Token, s.now()) {
		s.logger.InfoContext(ctx, "Discarding expired session", log.FieldOperation, log.OpRestore)
		return s.kv.Delete(ctx, s.key)
	}

	s.set(blob.Token, &blob.User)
	s.logger.InfoContext(ctx, "Session restored", log.FieldOperation, log.OpRestore, "user_id", blob.User.ID)
	return nil
}

// SignIn authenticates and persists the resulting session.
func (s *Store) SignIn(ctx context.Context, email, password string) (core.User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return core.User{}, fmt.Errorf("sign in: %w", err)
	}
	raw, err := json.Marshal(stored{Token: res.Token, User: res.User})
	if err != nil {
		return core.User{}, fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return core.User{}, fmt.Errorf("persist session: %w", err)
	}

	user := res.User
	s.set(res.Token, &user)
	s.logger.InfoContext(ctx, "Signed in", log.FieldOperation, log.OpSignIn, "user_id", user.ID)
	return user, nil
}

// SignUp registers the user and then signs them in.
func (s *Store) SignUp(ctx context.Context, name, email, password string) (core.User, error) {
	if _, err := s.auth.Register(ctx, gateway.RegisterInput{Name: name, Email: email, Password: password}); err != nil {
		return core.User{}, fmt.Errorf("sign up: %w", err)
	}
	return s.SignIn(ctx, email, password)
}

// SignOut forgets the session in memory even when removing the stored
// blob fails.
func (s *Store) SignOut(ctx context.Context) error {
	s.set("", nil)
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	s.logger.InfoContext(ctx, "Signed out", log.FieldOperation, log.OpSignOut)
	return nil
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns nil when signed out.
func (s *Store) User() *core.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Loading is true while a restore or sign-in is running.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) set(token string, user *core.User) {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	for _, sink := range s.sinks {
		sink.SetToken(token)
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// expired reads the exp claim without verifying the signature: only the
// backend can verify it, this only avoids restoring a token it will
// certainly reject. Tokens that are not JWTs or carry no exp never expire
// here.
func expired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
