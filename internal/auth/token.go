package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultIssuer = "visitor-management"

// JWTCodec issues and verifies HS256 identity tokens. Verification depends
// only on the token, the signing key and the clock.
type JWTCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type CodecOption func(*JWTCodec)

// WithClock overrides the clock used for issuing and verifying.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) { c.now = now }
}

func WithIssuer(issuer string) CodecOption {
	return func(c *JWTCodec) { c.issuer = issuer }
}

func NewJWTCodec(secret string, opts ...CodecOption) *JWTCodec {
	c := &JWTCodec{
		secret: []byte(secret),
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a token for p that expires ttl from now. A non-positive ttl
// yields a token that is already expired.
func (c *JWTCodec) Issue(p Principal, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID:   p.ID,
		Username: p.Username,
		RoleID:   p.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify validates signature, structure and expiry. It returns
// ErrTokenExpired for an expired but otherwise valid token and
// ErrInvalidToken for everything else.
func (c *JWTCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.UserID <= 0 || claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
