package devserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

var ErrTokenInvalid = goerrors.New("Token is invalid or expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_INVALID").
	WithCode(goerrors.CodeUnauthorized)

// Claims carried by the session tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Tokens mints and validates HS256 session tokens.
type Tokens struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	now        func() time.Time
}

func NewTokens(signingKey []byte, ttl time.Duration, issuer string) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		now:        time.Now,
	}
}

// Generate creates a token for user.
func (t *Tokens) Generate(user *User) (string, error) {
	now := t.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: user.ID.String(),
		Role:   user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}
	return signed, nil
}

// Validate parses a token string and returns its claims.
func (t *Tokens) Validate(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return t.signingKey, nil
	}, opts...)
	if err != nil {
		clone := ErrTokenInvalid.Clone()
		clone.Source = err
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, clone.WithMetadata(map[string]any{"reason": "expired"})
		}
		return nil, clone
	}

	if !parsed.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
