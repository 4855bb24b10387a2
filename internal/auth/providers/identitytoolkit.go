package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/auth/constants"
	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/brizzai/aqua-scheduler/internal/auth/store"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"github.com/brizzai/aqua-scheduler/internal/requester"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultIdentityToolkitURL is the Identity Toolkit REST API base
const DefaultIdentityToolkitURL = constants.IdentityToolkitURL

var (
	signInRoute = &requester.RouteConfig{Path: "/accounts:signInWithPassword", Method: http.MethodPost}
	lookupRoute = &requester.RouteConfig{Path: "/accounts:lookup", Method: http.MethodPost}
)

// idTokenVerifier is satisfied by *oidc.IDTokenVerifier
type idTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

type IdentityToolkitOptions struct {
	APIKey string
	// ProjectID enables signature verification of restored ID tokens
	ProjectID string
	BaseURL   string
	Timeout   time.Duration
	Store     store.Store
}

// IdentityToolkit signs users in with email and password against the
// Firebase Identity Toolkit REST API.
type IdentityToolkit struct {
	requester *requester.HTTPRequester
	store     store.Store
	verifier  idTokenVerifier
	timeout   time.Duration
	now       func() time.Time

	notifier    notifier
	restoreOnce sync.Once
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewIdentityToolkit creates an Identity Toolkit provider
func NewIdentityToolkit(opts IdentityToolkitOptions) (*IdentityToolkit, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("identity toolkit: api key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultIdentityToolkitURL
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}

	endpoint := &requester.EndpointConfig{
		BaseURL:  opts.BaseURL,
		AuthType: requester.AuthTypeAPIKey,
		Credentials: requester.Credentials{
			APIKey: opts.APIKey,
			Header: requester.DefaultAPIKeyHeader,
		},
	}

	p := &IdentityToolkit{
		requester: requester.NewHTTPRequester(endpoint, requester.NewHTTPAuthManager(endpoint), opts.Timeout),
		store:     opts.Store,
		timeout:   opts.Timeout,
		now:       time.Now,
	}

	if opts.ProjectID != "" {
		keySet := oidc.NewRemoteKeySet(context.Background(), constants.SecureTokenJWKS)
		p.verifier = oidc.NewVerifier(constants.SecureTokenIssuer+opts.ProjectID, keySet, &oidc.Config{
			ClientID: opts.ProjectID,
			Now:      func() time.Time { return p.now() },
		})
	}

	return p, nil
}

func (p *IdentityToolkit) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := p.requester.Do(ctx, signInRoute, signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, decodeError(resp)
	}

	var signIn signInResponse
	if err := resp.DecodeJSON(&signIn); err != nil {
		return nil, err
	}
	if signIn.LocalID == "" || signIn.IDToken == "" {
		return nil, fmt.Errorf("identity toolkit: sign-in response is missing localId or idToken")
	}

	session := &models.Session{
		UID:           signIn.LocalID,
		Email:         signIn.Email,
		EmailVerified: p.emailVerified(ctx, signIn.IDToken),
		Token: &oauth2.Token{
			AccessToken:  signIn.IDToken,
			TokenType:    constants.TokenType,
			RefreshToken: signIn.RefreshToken,
			Expiry:       p.expiry(signIn),
		},
	}

	if err := p.store.Save(ctx, session); err != nil {
		logger.Warn("Failed to persist session", zap.Error(err))
	}

	logger.Info("Signed in", zap.String("uid", session.UID), logger.Email(session.Email))
	p.notifier.publish(session)
	return session, nil
}

// emailVerified asks the provider for the account's verification flag.
// A failed lookup is not a failed sign-in; the account is shown as unverified.
func (p *IdentityToolkit) emailVerified(ctx context.Context, idToken string) bool {
	resp, err := p.requester.Do(ctx, lookupRoute, lookupRequest{IDToken: idToken})
	if err != nil {
		logger.Warn("Could not verify email status", zap.Error(err))
		return false
	}
	if !resp.OK() {
		logger.Warn("Could not verify email status", zap.Error(decodeError(resp)))
		return false
	}

	var lookup lookupResponse
	if err := resp.DecodeJSON(&lookup); err != nil || len(lookup.Users) == 0 {
		logger.Warn("Could not verify email status", zap.Error(err))
		return false
	}
	return lookup.Users[0].EmailVerified
}

// expiry uses expiresIn when present and falls back to the token's exp claim
func (p *IdentityToolkit) expiry(r signInResponse) time.Time {
	if secs, err := strconv.Atoi(r.ExpiresIn); err == nil && secs > 0 {
		return p.now().Add(time.Duration(secs) * time.Second)
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(r.IDToken, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Time{}
}

func decodeError(resp *requester.Response) error {
	var body errorResponse
	if err := resp.DecodeJSON(&body); err != nil || body.Error.Message == "" {
		return &models.AuthError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("identity provider returned status %d", resp.StatusCode),
		}
	}
	code := body.Error.Code
	if code == 0 {
		code = resp.StatusCode
	}
	return &models.AuthError{Code: code, Message: body.Error.Message}
}

// SignOut forgets the persisted session. The REST API keeps no client
// session, so only a local store failure can make this fail.
func (p *IdentityToolkit) SignOut(ctx context.Context) error {
	err := p.store.Delete(ctx)
	p.notifier.publish(nil)
	if err != nil {
		return fmt.Errorf("identity toolkit: failed to clear session: %w", err)
	}
	logger.Info("Signed out")
	return nil
}

func (p *IdentityToolkit) Subscribe(l Listener) func() {
	return p.notifier.subscribe(l, func() {
		p.restoreOnce.Do(p.restore)
	})
}

func (p *IdentityToolkit) restore() {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	persisted, err := p.store.Load(ctx)
	if err != nil {
		logger.Warn("Failed to load persisted session", zap.Error(err))
		return
	}
	if persisted == nil {
		return
	}

	if err := p.validate(ctx, persisted); err != nil {
		logger.Info("Discarding persisted session", logger.Email(persisted.Email), zap.Error(err))
		if err := p.store.Delete(ctx); err != nil {
			logger.Warn("Failed to clear persisted session", zap.Error(err))
		}
		return
	}

	logger.Info("Restored persisted session", logger.Email(persisted.Email))
	p.notifier.seed(persisted)
}

var errTokenExpired = errors.New("id token expired")

func (p *IdentityToolkit) validate(ctx context.Context, s *models.Session) error {
	if s.Token == nil || s.Token.AccessToken == "" {
		return errors.New("no id token")
	}
	if !s.Token.Expiry.IsZero() && !p.now().Before(s.Token.Expiry) {
		return errTokenExpired
	}
	if p.verifier == nil {
		return nil
	}

	idToken, err := p.verifier.Verify(ctx, s.Token.AccessToken)
	if err != nil {
		return fmt.Errorf("id token verification failed: %w", err)
	}
	if idToken.Subject != s.UID {
		return fmt.Errorf("token subject %q does not match session uid", idToken.Subject)
	}
	return nil
}
