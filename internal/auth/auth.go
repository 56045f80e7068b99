package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotFound           = errors.New("principal not found")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// Principal is an authenticated actor.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	RoleID   int64  `json:"role_id"`
}

// Credential is the stored login record of a principal. PasswordHash never
// leaves this package's service.
type Credential struct {
	Principal
	PasswordHash string
	IsActive     bool
}

// Claims are the JWT claims carried by an identity token.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"usr,omitempty"`
	RoleID   int64  `json:"rid"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() Principal {
	return Principal{ID: c.UserID, Username: c.Username, RoleID: c.RoleID}
}

type RepositoryAPI interface {
	FindByUsername(ctx context.Context, username string) (*Credential, error)
}

type TokenCodec interface {
	Issue(p Principal, ttl time.Duration) (token string, expiresAt time.Time, err error)
	Verify(token string) (*Claims, error)
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*LoginResponse, error)
	ValidateAccessToken(token string) (*Claims, error)
}
