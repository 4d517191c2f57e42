// Package service implements the session authority: login, refresh, logout
// and access token verification.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"credchain/internal/auth/jwttoken"
	"credchain/internal/auth/models"
	"credchain/internal/platform/metrics"
	"credchain/pkg/attrs"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	audit "credchain/pkg/platform/audit"
	"credchain/pkg/platform/sentinel"
	"credchain/pkg/requestcontext"
)

type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

type RefreshTokenStore interface {
	Create(ctx context.Context, token *models.RefreshTokenRecord) error
	Find(ctx context.Context, token string) (*models.RefreshTokenRecord, error)
	DeleteByToken(ctx context.Context, token string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	accounts       AccountStore
	refreshTokens  RefreshTokenStore
	tokens         *jwttoken.JWTService
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(accounts AccountStore, refreshTokens RefreshTokenStore, tokens *jwttoken.JWTService, opts ...Option) (*Service, error) {
	if accounts == nil || refreshTokens == nil || tokens == nil {
		return nil, errors.New("auth service: accounts, refresh tokens and token service are required")
	}
	s := &Service{
		accounts:      accounts,
		refreshTokens: refreshTokens,
		tokens:        tokens,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dummyHash is compared against when the email is unknown so that unknown
// accounts and wrong passwords take the same time.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("credchain-timing-equalizer"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

var errInvalidCredentials = dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")

// Login verifies credentials for an audience and mints a session pair.
// Unknown emails, wrong passwords and accounts outside the audience are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, creds models.Credentials, audience models.Audience) (*models.TokenPair, error) {
	if !audience.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown login audience")
	}
	if !govalidator.IsEmail(creds.Email) {
		return nil, dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if creds.Password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}

	email := models.NormalizeEmail(creds.Email)
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(creds.Password))
		s.loginFailed(ctx, email, "unknown_email")
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		s.loginFailed(ctx, email, "wrong_password")
		return nil, errInvalidCredentials
	}
	if !audience.Admits(account.Role) {
		s.loginFailed(ctx, email, "audience_mismatch")
		return nil, errInvalidCredentials
	}

	now := requestcontext.Now(ctx)
	identity := account.Identity()
	access, _, err := s.tokens.Issue(jwttoken.KindAccess, identity, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}
	refresh, refreshClaims, err := s.tokens.Issue(jwttoken.KindRefresh, identity, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue refresh token")
	}
	record := &models.RefreshTokenRecord{
		ID:        uuid.New(),
		Token:     refresh,
		AccountID: account.ID,
		SubjectID: account.SubjectID,
		Role:      account.Role,
		CreatedAt: now,
		ExpiresAt: refreshClaims.ExpiresAt.Time,
	}
	if err := s.refreshTokens.Create(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist refresh token")
	}

	s.metrics.IncLogin("success")
	s.logAudit(ctx, string(audit.EventLoginSucceeded),
		"actor_id", account.ID.String(),
		"role", string(account.Role),
		"subject", account.SubjectID.String(),
	)
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.tokens.AccessTTL(),
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, email, reason string) {
	s.metrics.IncLogin("failure")
	s.logAudit(ctx, string(audit.EventLoginFailed),
		"actor_id", email,
		"reason", reason,
	)
}

var errInvalidRefreshToken = dErrors.New(dErrors.CodeInvalidToken, "invalid refresh token")

// Refresh mints a new access token for a live refresh token. The refresh
// token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.AccessGrant, error) {
	if refreshToken == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "token is required")
	}
	claims, err := s.tokens.Verify(refreshToken, jwttoken.KindRefresh)
	if err != nil {
		return nil, err
	}
	record, err := s.refreshTokens.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errInvalidRefreshToken
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load refresh token")
	}
	now := requestcontext.Now(ctx)
	if record.IsExpired(now) {
		return nil, errInvalidRefreshToken
	}
	identity, err := claims.Identity()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidToken, "invalid refresh token")
	}

	access, _, err := s.tokens.Issue(jwttoken.KindAccess, identity, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}
	s.metrics.IncTokensRefreshed()
	s.logAudit(ctx, string(audit.EventTokenRefreshed),
		"actor_id", identity.UserID.String(),
		"role", string(identity.Role),
	)
	return &models.AccessGrant{AccessToken: access, ExpiresIn: s.tokens.AccessTTL()}, nil
}

// Logout deletes every persisted row for the token. Unknown or already
// revoked tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	n, err := s.refreshTokens.DeleteByToken(ctx, refreshToken)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke refresh token")
	}
	if n > 0 {
		s.logAudit(ctx, string(audit.EventLoggedOut), "revoked", n)
	}
	return nil
}

// Authenticate verifies an access token and returns its identity.
func (s *Service) Authenticate(_ context.Context, accessToken string) (domain.Identity, error) {
	if accessToken == "" {
		return domain.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "missing access token")
	}
	claims, err := s.tokens.Verify(accessToken, jwttoken.KindAccess)
	if err != nil {
		return domain.Identity{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired access token")
	}
	identity, err := claims.Identity()
	if err != nil {
		return domain.Identity{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired access token")
	}
	return identity, nil
}

// RequireRole authenticates accessToken and checks its role against roles.
// Invalid tokens are Unauthorized; valid tokens with another role are Forbidden.
func (s *Service) RequireRole(ctx context.Context, accessToken string, roles ...domain.Role) (domain.Identity, error) {
	identity, err := s.Authenticate(ctx, accessToken)
	if err != nil {
		return domain.Identity{}, err
	}
	if !identity.HasRole(roles...) {
		return domain.Identity{}, dErrors.New(dErrors.CodeForbidden, "role not allowed for this operation")
	}
	return identity, nil
}

// PurgeExpired deletes refresh rows past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.refreshTokens.DeleteExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge refresh tokens")
	}
	s.logger.InfoContext(ctx, "purged expired refresh tokens", "count", n)
	return n, nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    event,
		ActorID:   attrs.ExtractString(attributes, "actor_id"),
		ActorRole: attrs.ExtractString(attributes, "role"),
		Subject:   attrs.ExtractString(attributes, "subject"),
		Reason:    attrs.ExtractString(attributes, "reason"),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event, "error", err)
	}
}
