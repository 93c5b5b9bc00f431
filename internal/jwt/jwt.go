package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNonValidToken    = errors.New("token did not pass validation")
	ErrInvalidClaimType = errors.New("invalid claim type")
	ErrMissingSubject   = errors.New("token has no subject")
	ErrNoSecret         = errors.New("jwt secret is not configured")
)

var tokenSignatureAlg = gojwt.SigningMethodHS256

// SessionClaims are the claims of an auth session token. Subject is the
// profile id.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	gojwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a shared HS256 secret.
type Codec struct {
	secret   []byte
	audience string
	leeway   time.Duration
}

func NewCodec(secret, audience string) *Codec {
	return &Codec{
		secret:   []byte(secret),
		audience: audience,
		leeway:   30 * time.Second,
	}
}

// Decode verifies tokenString and returns its claims.
func (c *Codec) Decode(tokenString string) (*SessionClaims, error) {
	if len(c.secret) == 0 {
		return nil, ErrNoSecret
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{tokenSignatureAlg.Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(c.leeway),
	}
	if c.audience != "" {
		opts = append(opts, gojwt.WithAudience(c.audience))
	}

	claims, err := decodeJWT(tokenString, &SessionClaims{}, c.secret, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// Generate mints a session token for profileID valid for ttl.
func (c *Codec) Generate(profileID, email string, ttl time.Duration) (string, *SessionClaims, error) {
	if len(c.secret) == 0 {
		return "", nil, ErrNoSecret
	}
	if ttl <= 0 {
		return "", nil, fmt.Errorf("invalid token ttl %s", ttl)
	}

	now := time.Now().UTC()
	claims := &SessionClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   profileID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if c.audience != "" {
		claims.Audience = gojwt.ClaimStrings{c.audience}
	}

	token, err := gojwt.NewWithClaims(tokenSignatureAlg, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

func decodeJWT[T gojwt.Claims](tokenString string, claimsType T, secret []byte, opts ...gojwt.ParserOption) (T, error) {
	var zero T

	parsedToken, err := gojwt.ParseWithClaims(tokenString, claimsType, func(token *gojwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)

	if err != nil {
		return zero, err
	} else if parsedToken == nil || !parsedToken.Valid {
		return zero, ErrNonValidToken
	} else if claims, ok := parsedToken.Claims.(T); ok {
		return claims, nil
	}

	return zero, ErrInvalidClaimType
}
