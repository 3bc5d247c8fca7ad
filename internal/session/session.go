// Package session holds the signed-in shopper's token and identity and
// keeps them in step with local storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrSessionExpired    = errors.New("session expired")
	ErrInvalidEmail      = errors.New("invalid email address")
)

// Remote is the part of the API client the session needs.
type Remote interface {
	VerifyToken(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (string, domain.Identity, error)
	ForgotPassword(ctx context.Context, email string) error
}

type snapshot struct {
	Token string          `json:"token"`
	User  domain.Identity `json:"user"`
}

type Store struct {
	// ops serializes whole operations, mu guards the fields below.
	ops sync.Mutex
	mu  sync.RWMutex

	token    string
	identity domain.Identity

	store    storage.Store
	remote   Remote
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time
}

func NewStore(store storage.Store, remote Remote, notifier notify.Notifier, log *slog.Logger) *Store {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Store{
		store:    store,
		remote:   remote,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && !s.identity.IsZero()
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) Identity() domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Restore rehydrates the session from storage and re-verifies the token.
// A session that can no longer be verified is cleared and ErrSessionExpired
// is returned so the caller can send the shopper to the login view.
func (s *Store) Restore(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	var snap snapshot
	err := storage.LoadJSON(ctx, s.store, storage.KeySession, &snap)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case errors.Is(err, storage.ErrMalformedState):
		s.log.WarnContext(ctx, "discarding malformed session", "error", err)
		s.clear(ctx)
		return nil
	case err != nil:
		s.log.ErrorContext(ctx, "session read failed", "error", err)
		return nil
	}

	if snap.Token == "" || snap.User.IsZero() {
		s.log.WarnContext(ctx, "discarding incomplete session")
		s.clear(ctx)
		return nil
	}

	if s.tokenExpired(snap.Token) {
		s.expire(ctx)
		return ErrSessionExpired
	}

	if err := s.remote.VerifyToken(ctx, snap.Token); err != nil {
		s.log.InfoContext(ctx, "stored token rejected", "error", err)
		s.expire(ctx)
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	s.adopt(snap.Token, snap.User)
	return nil
}

// Login verifies token remotely and adopts it together with identity.
// On failure the previous session is left as it was.
func (s *Store) Login(ctx context.Context, token string, identity domain.Identity) error {
	s.ops.Lock()
	defer s.ops.Unlock()
	return s.login(ctx, token, identity)
}

func (s *Store) login(ctx context.Context, token string, identity domain.Identity) error {
	if token == "" || identity.IsZero() {
		s.loginFailed("Invalid credentials. Please try again.")
		return ErrInvalidCredential
	}

	if err := s.remote.VerifyToken(ctx, token); err != nil {
		s.loginFailed("Invalid credentials. Please try again.")
		return fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	if err := storage.SaveJSON(ctx, s.store, storage.KeySession, snapshot{Token: token, User: identity}); err != nil {
		s.log.ErrorContext(ctx, "session persist failed", "error", err)
	}
	s.adopt(token, identity)
	s.log.InfoContext(ctx, "signed in", "user_id", identity.ID)
	return nil
}

// SignIn runs the credential exchange and then Login.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	token, identity, err := s.remote.Login(ctx, email, password)
	if err != nil {
		msg := client.Message(err)
		if msg == "" {
			msg = "Invalid credentials. Please try again."
		}
		s.loginFailed(msg)
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrInvalidCredential, err)
		}
		return err
	}
	return s.login(ctx, token, identity)
}

// ForgotPassword asks the remote to mail a reset link to email. It does not
// touch the current session.
func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	if err := s.remote.ForgotPassword(ctx, email); err != nil {
		msg := client.Message(err)
		if msg == "" {
			msg = "Failed to send reset email"
		}
		s.notifier.Notify(notify.Toast{
			Title:       "Error",
			Description: msg,
			Severity:    notify.SeverityDestructive,
		})
		s.log.InfoContext(ctx, "password reset request failed", "error", err)
		return err
	}

	s.notifier.Notify(notify.Toast{
		Title:       "Success",
		Description: "Password reset email sent! Please check your inbox.",
		Severity:    notify.SeveritySuccess,
	})
	return nil
}

// Logout clears the session. It never fails.
func (s *Store) Logout(ctx context.Context) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.clear(ctx)
}

// Expire clears the session after the remote rejected its token.
func (s *Store) Expire(ctx context.Context) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.expire(ctx)
}

func (s *Store) expire(ctx context.Context) {
	s.clear(ctx)
	s.notifier.Notify(notify.Toast{
		Title:       "Session Expired",
		Description: "Your session has expired. Please login again.",
		Severity:    notify.SeverityDestructive,
	})
}

func (s *Store) loginFailed(description string) {
	s.notifier.Notify(notify.Toast{
		Title:       "Login Failed",
		Description: description,
		Severity:    notify.SeverityDestructive,
	})
}

// clear drops memory first so a failed delete can never leave the shopper
// looking signed in.
func (s *Store) clear(ctx context.Context) {
	s.adopt("", domain.Identity{})
	if err := s.store.Delete(ctx, storage.KeySession); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.ErrorContext(ctx, "session delete failed", "error", err)
	}
}

func (s *Store) adopt(token string, identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.identity = identity
}

// tokenExpired reports whether token is a JWT whose exp claim is in the
// past. Opaque tokens are left to the remote to judge.
func (s *Store) tokenExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(s.now())
}
