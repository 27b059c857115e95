package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// ErrInvalidToken covers malformed, expired and wrong-type tokens.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenConfig holds signing configuration.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	Type  string `json:"typ"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Group string `json:"grp,omitempty"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Tokens signs and verifies HS256 tokens.
type Tokens struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokens(cfg TokenConfig) *Tokens {
	return &Tokens{cfg: cfg, now: time.Now}
}

func (t *Tokens) sign(claims Claims, ttl time.Duration) (string, error) {
	now := t.now()
	claims.Issuer = t.cfg.Issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Access issues a short-lived access token for the identity.
func (t *Tokens) Access(userID int64, email, name, group string) (string, error) {
	return t.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(userID, 10)},
		Type:             TokenAccess,
		Email:            email,
		Name:             name,
		Group:            group,
	}, t.cfg.AccessTTL)
}

// Refresh issues a refresh token bound to a session id.
func (t *Tokens) Refresh(userID int64, sessionID string) (string, error) {
	return t.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(userID, 10), ID: sessionID},
		Type:             TokenRefresh,
	}, t.cfg.RefreshTTL)
}

// Parse verifies the signature, expiry and token type.
func (t *Tokens) Parse(raw, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.cfg.Secret), nil
	}, jwt.WithIssuer(t.cfg.Issuer), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
