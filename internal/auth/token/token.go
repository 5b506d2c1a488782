// Package token issues and validates the access and refresh tokens handed
// to administrators.
//
// Both kinds are HS256 JWTs signed with distinct secrets. Validation checks
// the signature, the required claims, expiry, the token kind and a maximum
// age measured from iat, so a token can be rejected before its exp.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "smartparking/pkg/domain"
	"smartparking/pkg/requestcontext"
)

// FormatVersion is embedded as ver so the claim layout can evolve.
const FormatVersion = 1

// RoleAdmin is the only role issued today.
const RoleAdmin = "admin"

// Kind discriminates access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the JWT payload. sub, iat, exp and jti live in RegisteredClaims.
type Claims struct {
	TenantID    string   `json:"tenant_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	Version     int      `json:"ver"`
	Type        Kind     `json:"typ"`
	jwt.RegisteredClaims
}

// AdminID parses the subject.
func (c *Claims) AdminID() (id.AdminID, error) {
	return id.ParseAdminID(c.Subject)
}

// Tenant parses the tenant claim.
func (c *Claims) Tenant() (id.TenantID, error) {
	return id.ParseTenantID(c.TenantID)
}

// Remaining returns the time left until exp, never negative.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Subject identifies who a token is issued for.
type Subject struct {
	AdminID  id.AdminID
	TenantID id.TenantID
	Email    string
	Role     string
}

// Config carries secrets and lifetimes. Zero max ages default to the TTLs.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
	Issuer        string
}

// Service issues and validates tokens.
type Service struct {
	accessKey     []byte
	refreshKey    []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	accessMaxAge  time.Duration
	refreshMaxAge time.Duration
	issuer        string
	now           func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	s := &Service{
		accessKey:     []byte(cfg.AccessSecret),
		refreshKey:    []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		accessMaxAge:  cfg.AccessMaxAge,
		refreshMaxAge: cfg.RefreshMaxAge,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
	if s.accessMaxAge <= 0 {
		s.accessMaxAge = cfg.AccessTTL
	}
	if s.refreshMaxAge <= 0 {
		s.refreshMaxAge = cfg.RefreshTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTTL is the lifetime of newly issued access tokens.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// Issued describes a freshly minted token.
type Issued struct {
	Token     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair is an access token plus its refresh token.
type Pair struct {
	Access  Issued
	Refresh Issued
}

// Issue signs a token of the given kind for sub with a fresh jti.
func (s *Service) Issue(sub Subject, kind Kind) (Issued, error) {
	key, ttl, err := s.params(kind)
	if err != nil {
		return Issued{}, err
	}
	if sub.AdminID.IsNil() || sub.TenantID.IsNil() {
		return Issued{}, errors.New("token subject requires admin and tenant ids")
	}
	jti, err := nonce()
	if err != nil {
		return Issued{}, fmt.Errorf("generate token id: %w", err)
	}
	role := sub.Role
	if role == "" {
		role = RoleAdmin
	}

	// JWT NumericDate has second precision; truncating keeps the reported
	// times equal to what a validator will read back.
	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := Claims{
		TenantID: sub.TenantID.String(),
		Email:    sub.Email,
		Role:     role,
		Version:  FormatVersion,
		Type:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.AdminID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}
	if kind == KindAccess {
		claims.Permissions = []string{"read", "write", "admin"}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return Issued{}, fmt.Errorf("sign token: %w", err)
	}
	return Issued{Token: signed, ID: jti, IssuedAt: now, ExpiresAt: exp}, nil
}

// IssuePair issues an access token and a refresh token for sub.
func (s *Service) IssuePair(sub Subject) (*Pair, error) {
	access, err := s.Issue(sub, KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issue(sub, KindRefresh)
	if err != nil {
		return nil, err
	}
	return &Pair{Access: access, Refresh: refresh}, nil
}

// Validate returns the claims of a valid token of the expected kind. A zero
// maxAge uses the configured maximum for that kind. Every failure returns an
// error matching ErrInvalid; Reason reports why.
func (s *Service) Validate(tokenString string, kind Kind, maxAge time.Duration) (*Claims, error) {
	key, _, err := s.params(kind)
	if err != nil {
		return nil, invalid(ReasonType, err)
	}
	if maxAge <= 0 {
		maxAge = s.defaultMaxAge(kind)
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, invalid(ReasonMalformed, errors.New("empty token"))
	}

	claims := new(Claims)
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, invalid(ReasonSignature, err)
		}
		return nil, invalid(ReasonMalformed, err)
	}

	if claims.IssuedAt == nil || claims.ID == "" || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, invalid(ReasonMalformed, errors.New("missing required claims"))
	}
	if claims.Type != kind {
		return nil, invalid(ReasonType, fmt.Errorf("expected %s token, got %q", kind, claims.Type))
	}
	now := s.now()
	if now.Sub(claims.IssuedAt.Time) > maxAge {
		return nil, invalid(ReasonTooOld, errors.New("token exceeds maximum age"))
	}
	if now.After(claims.ExpiresAt.Time) {
		return nil, invalid(ReasonExpired, errors.New("token expired"))
	}
	if _, err := claims.AdminID(); err != nil {
		return nil, invalid(ReasonMalformed, err)
	}
	if _, err := claims.Tenant(); err != nil {
		return nil, invalid(ReasonMalformed, err)
	}
	return claims, nil
}

// ValidateAccess validates an access token and maps it to a request principal.
func (s *Service) ValidateAccess(tokenString string) (*requestcontext.Principal, error) {
	claims, err := s.Validate(tokenString, KindAccess, 0)
	if err != nil {
		return nil, err
	}
	adminID, _ := claims.AdminID()
	tenantID, _ := claims.Tenant()
	return &requestcontext.Principal{
		AdminID:  adminID,
		TenantID: tenantID,
		Email:    claims.Email,
		Role:     claims.Role,
		TokenID:  claims.ID,
	}, nil
}

// Now exposes the service clock so callers compute TTLs consistently.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) params(kind Kind) ([]byte, time.Duration, error) {
	switch kind {
	case KindAccess:
		return s.accessKey, s.accessTTL, nil
	case KindRefresh:
		return s.refreshKey, s.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}

func (s *Service) defaultMaxAge(kind Kind) time.Duration {
	if kind == KindRefresh {
		return s.refreshMaxAge
	}
	return s.accessMaxAge
}

func nonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
