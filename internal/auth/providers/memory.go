package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/auth/constants"
	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/brizzai/aqua-scheduler/internal/auth/store"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Error messages reported by the memory provider. They mirror the codes the
// Identity Toolkit REST API returns so both providers read the same to users.
const (
	MessageMissingEmail    = "MISSING_EMAIL"
	MessageMissingPassword = "MISSING_PASSWORD"
	MessageEmailNotFound   = "EMAIL_NOT_FOUND"
	MessageInvalidPassword = "INVALID_PASSWORD"
)

// Account is a credential the memory provider accepts
type Account struct {
	Email         string
	Password      string
	EmailVerified bool
}

type MemoryOptions struct {
	Accounts   []Account
	SigningKey []byte
	TokenTTL   time.Duration
	// Latency delays every sign-in and sign-out, to make pending states visible
	Latency time.Duration
	Store   store.Store
	Now     func() time.Time
}

// Memory is an in-process identity provider for offline use and tests.
// It issues HS256 ID tokens and restores persisted sessions by verifying them.
type Memory struct {
	accounts map[string]Account
	key      []byte
	ttl      time.Duration
	latency  time.Duration
	store    store.Store
	now      func() time.Time

	notifier    notifier
	restoreOnce sync.Once
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// NewMemory creates a memory provider
func NewMemory(opts MemoryOptions) (*Memory, error) {
	if len(opts.SigningKey) == 0 {
		return nil, fmt.Errorf("memory provider: signing key is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	accounts := make(map[string]Account, len(opts.Accounts))
	for _, a := range opts.Accounts {
		accounts[normalizeEmail(a.Email)] = a
	}

	return &Memory{
		accounts: accounts,
		key:      opts.SigningKey,
		ttl:      opts.TokenTTL,
		latency:  opts.Latency,
		store:    opts.Store,
		now:      opts.Now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func accountUID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+normalizeEmail(email))).String()
}

func (m *Memory) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *Memory) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	switch {
	case strings.TrimSpace(email) == "":
		return nil, &models.AuthError{Code: 400, Message: MessageMissingEmail}
	case password == "":
		return nil, &models.AuthError{Code: 400, Message: MessageMissingPassword}
	}

	account, ok := m.accounts[normalizeEmail(email)]
	if !ok {
		return nil, &models.AuthError{Code: 400, Message: MessageEmailNotFound}
	}
	if account.Password != password {
		return nil, &models.AuthError{Code: 400, Message: MessageInvalidPassword}
	}

	session, err := m.issue(account)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, session); err != nil {
		// the session is still valid for this run
		logger.Warn("Failed to persist session", zap.Error(err))
	}

	m.notifier.publish(session)
	return session, nil
}

func (m *Memory) issue(account Account) (*models.Session, error) {
	now := m.now()
	expiry := now.Add(m.ttl)
	uid := accountUID(account.Email)

	claims := idTokenClaims{
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.MemoryIssuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return nil, fmt.Errorf("memory provider: failed to sign id token: %w", err)
	}

	return &models.Session{
		UID:           uid,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		Token: &oauth2.Token{
			AccessToken:  signed,
			TokenType:    constants.TokenType,
			RefreshToken: uuid.NewString(),
			Expiry:       expiry,
		},
	}, nil
}

func (m *Memory) SignOut(ctx context.Context) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	err := m.store.Delete(ctx)
	m.notifier.publish(nil)
	if err != nil {
		return fmt.Errorf("memory provider: failed to clear session: %w", err)
	}
	return nil
}

// Revoke invalidates the current session from the provider side, as a
// revoked token or a sign-out on another device would.
func (m *Memory) Revoke(ctx context.Context) {
	if err := m.store.Delete(ctx); err != nil {
		logger.Warn("Failed to clear revoked session", zap.Error(err))
	}
	m.notifier.publish(nil)
}

// Current returns the provider's current session
func (m *Memory) Current() *models.Session {
	return m.notifier.snapshot()
}

func (m *Memory) Subscribe(l Listener) func() {
	return m.notifier.subscribe(l, func() {
		m.restoreOnce.Do(m.restore)
	})
}

func (m *Memory) restore() {
	ctx := context.Background()
	persisted, err := m.store.Load(ctx)
	if err != nil {
		logger.Warn("Failed to load persisted session", zap.Error(err))
		return
	}
	if persisted == nil {
		return
	}

	if err := m.verify(persisted); err != nil {
		logger.Info("Discarding persisted session", logger.Email(persisted.Email), zap.Error(err))
		if err := m.store.Delete(ctx); err != nil {
			logger.Warn("Failed to clear persisted session", zap.Error(err))
		}
		return
	}

	logger.Info("Restored persisted session", logger.Email(persisted.Email))
	m.notifier.seed(persisted)
}

func (m *Memory) verify(s *models.Session) error {
	if s.Token == nil || s.Token.AccessToken == "" {
		return errors.New("no id token")
	}

	claims := &idTokenClaims{}
	_, err := jwt.ParseWithClaims(s.Token.AccessToken, claims,
		func(*jwt.Token) (interface{}, error) { return m.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(constants.MemoryIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return err
	}
	if claims.Subject != s.UID {
		return fmt.Errorf("token subject %q does not match session uid", claims.Subject)
	}
	return nil
}
