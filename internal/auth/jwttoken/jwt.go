// Package jwttoken mints and verifies the HS256 access and refresh tokens of
// a session pair. Each kind has its own secret and a "typ" claim, so one
// kind can never be presented as the other.
package jwttoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims carried by both token kinds. Subject is the institution or student id.
type Claims struct {
	Role   domain.Role `json:"role"`
	UserID string      `json:"uid"`
	Type   Kind        `json:"typ"`
	jwt.RegisteredClaims
}

// Identity decodes the principal from verified claims.
func (c *Claims) Identity() (domain.Identity, error) {
	subject, err := uuid.Parse(c.Subject)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parse subject: %w", err)
	}
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("parse uid: %w", err)
	}
	if !c.Role.IsValid() {
		return domain.Identity{}, fmt.Errorf("unknown role %q", c.Role)
	}
	return domain.Identity{SubjectID: subject, Role: c.Role, UserID: domain.AccountID(userID)}, nil
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	accessKey  []byte
	refreshKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*JWTService)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		s.now = now
	}
}

func NewJWTService(cfg Config, opts ...Option) *JWTService {
	s := &JWTService{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JWTService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *JWTService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *JWTService) key(kind Kind) []byte {
	if kind == KindRefresh {
		return s.refreshKey
	}
	return s.accessKey
}

func (s *JWTService) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Issue signs a token of kind for identity, valid from now for the kind's TTL.
func (s *JWTService) Issue(kind Kind, identity domain.Identity, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		Role:   identity.Role,
		UserID: identity.UserID.String(),
		Type:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.SubjectID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl(kind))),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key(kind))
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, claims, nil
}

// Verify checks signature, expiry, issuer and kind. Failures are
// CodeInvalidToken errors.
func (s *JWTService) Verify(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.key(kind), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidToken, "token has expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidToken, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}
	if claims.Type != kind {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "wrong token type")
	}
	return claims, nil
}
