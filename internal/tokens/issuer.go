package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

// Token type discriminators embedded in every signed token. A token of one
// type never verifies as the other: the types are signed with independent
// secrets and the claim itself is checked on verification.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Leeway tolerated on expiry and issued-at checks, applied symmetrically in
// both directions by the jwt parser.
const clockSkewLeeway = 30 * time.Second

var (
	// ErrInvalidToken indicates the token failed signature or structural checks.
	ErrInvalidToken = errors.New("token is invalid")
	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenType indicates a valid token presented as the wrong kind.
	ErrWrongTokenType = errors.New("token type mismatch")
)

// Claims carried by both access and refresh tokens.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session token pairs. It is stateless: refresh
// token revocation lives with the credential store, not here.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewIssuer constructs an Issuer from the two signing secrets and their TTLs.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessSecret == "" || refreshSecret == "" {
		panic("tokens: signing secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		panic("tokens: access and refresh secrets must differ")
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssuePair mints a fresh access+refresh token pair for the user.
func (i *Issuer) IssuePair(userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, errors.New("user id must be provided")
	}

	access, accessExp, err := i.sign(userID, TypeAccess)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, refreshExp, err := i.sign(userID, TypeRefresh)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify parses a token, checks its signature against the secret for the
// expected type, and rejects tokens whose embedded type does not match.
func (i *Issuer) Verify(token, expectedType string) (*Claims, error) {
	secret, err := i.secretFor(expectedType)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkewLeeway),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return nil, ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (i *Issuer) sign(userID, tokenType string) (string, time.Time, error) {
	secret, err := i.secretFor(tokenType)
	if err != nil {
		return "", time.Time{}, err
	}

	ttl := i.accessTTL
	if tokenType == TypeRefresh {
		ttl = i.refreshTTL
	}

	now := i.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (i *Issuer) secretFor(tokenType string) ([]byte, error) {
	switch tokenType {
	case TypeAccess:
		return i.accessSecret, nil
	case TypeRefresh:
		return i.refreshSecret, nil
	default:
		return nil, fmt.Errorf("unknown token type %q", tokenType)
	}
}

func (i *Issuer) now() time.Time {
	if i.NowFunc != nil {
		return i.NowFunc()
	}
	return time.Now().UTC()
}
