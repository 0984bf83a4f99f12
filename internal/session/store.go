// Package session holds the authenticated identity and persists it across runs.
package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/adesaini/sweetshop-client/internal/errs"
	"github.com/adesaini/sweetshop-client/internal/model"
)

// AuthAPI is the part of the backend client the store needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (model.Session, error)
	Register(ctx context.Context, username, email, password string, role model.Role) error
}

// fallbackTokenTTL is assumed when the token carries no exp claim.
const fallbackTokenTTL = 24 * time.Hour

// The session is persisted as two files, mirroring the two keys the
// storefront kept in browser local storage.
type tokenFile struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type userFile struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
}

// DefaultDir returns the directory session files live in.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "sweetshop")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "sweetshop")
}

// Store is the single holder of the active session. It rehydrates once from
// disk at construction and persists on every successful login.
type Store struct {
	mu  sync.RWMutex
	api AuthAPI
	dir string
	cur *model.Session
	log *zap.Logger
}

// New constructs a Store rooted at dir (DefaultDir when empty) and loads
// any previously persisted session.
func New(api AuthAPI, dir string, log *zap.Logger) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{api: api, dir: dir, log: log}
	s.rehydrate()
	return s
}

// Login authenticates and replaces the active session. A failed login
// leaves any prior session untouched.
func (s *Store) Login(ctx context.Context, email, password string) (model.Session, error) {
	sess, err := s.api.Login(ctx, email, password)
	if err != nil {
		return model.Session{}, err
	}

	s.mu.Lock()
	s.cur = &sess
	s.mu.Unlock()

	if err := s.persist(sess); err != nil {
		// in-memory session still works for this run
		s.log.Warn("persist session", zap.Error(err))
	}
	return sess, nil
}

// Register creates an account without establishing a session.
func (s *Store) Register(ctx context.Context, username, email, password string, role model.Role) error {
	return s.api.Register(ctx, username, email, password, role)
}

// Logout clears the session in memory and on disk. Idempotent.
func (s *Store) Logout() {
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()

	_ = os.Remove(s.tokenPath())
	_ = os.Remove(s.userPath())
}

// Current returns the active session or errs.ErrNoSession.
func (s *Store) Current() (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return model.Session{}, errs.ErrNoSession
	}
	return *s.cur, nil
}

// Token implements api.TokenSource. Empty when nobody is logged in.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.Token
}

func (s *Store) tokenPath() string { return filepath.Join(s.dir, "token.json") }
func (s *Store) userPath() string  { return filepath.Join(s.dir, "user.json") }

// rehydrate loads a persisted session once at startup. Expired or partial
// state is treated as absent.
func (s *Store) rehydrate() {
	tb, err := os.ReadFile(s.tokenPath())
	if err != nil {
		return
	}
	var tf tokenFile
	if err := json.Unmarshal(tb, &tf); err != nil || tf.Token == "" {
		return
	}
	if time.Now().After(tf.ExpiresAt) {
		s.log.Info("persisted token expired, login required")
		return
	}

	ub, err := os.ReadFile(s.userPath())
	if err != nil {
		return
	}
	var uf userFile
	if err := json.Unmarshal(ub, &uf); err != nil {
		return
	}

	s.cur = &model.Session{
		Username: uf.Username,
		Email:    uf.Email,
		Role:     uf.Role,
		Token:    tf.Token,
	}
}

func (s *Store) persist(sess model.Session) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	tb, err := json.MarshalIndent(tokenFile{Token: sess.Token, ExpiresAt: tokenExpiry(sess.Token)}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.tokenPath(), tb, 0o600); err != nil {
		return err
	}
	ub, err := json.MarshalIndent(userFile{Username: sess.Username, Email: sess.Email, Role: sess.Role}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.userPath(), ub, 0o600)
}

// tokenExpiry probes the JWT exp claim without verifying the signature; the
// backend stays the authority on token validity.
func tokenExpiry(tok string) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Now().Add(fallbackTokenTTL)
}
