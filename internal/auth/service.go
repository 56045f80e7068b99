package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username is unknown so that a
// missing account costs the same as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("visitor-management"), bcrypt.DefaultCost)
	return hash
})

// Service verifies credentials and mints identity tokens.
type Service struct {
	repo     RepositoryAPI
	codec    TokenCodec
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, codec TokenCodec, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		codec:    codec,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// VerifyCredentials checks a username/secret pair against the stored hash.
// It fails with ErrNotFound, ErrInvalidCredentials or ErrAccountDisabled.
// The disabled flag is only revealed to callers that know the secret.
func (s *Service) VerifyCredentials(ctx context.Context, username, secret string) (Principal, error) {
	cred, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(secret))
			return Principal{}, ErrNotFound
		}
		return Principal{}, fmt.Errorf("find credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(secret)); err != nil {
		return Principal{}, ErrInvalidCredentials
	}

	if !cred.IsActive {
		return Principal{}, ErrAccountDisabled
	}

	return cred.Principal, nil
}

// Authenticate validates the login request and returns a signed token.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	principal, err := s.VerifyCredentials(ctx, dto.Username, dto.Password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.codec.Issue(principal, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "principal authenticated", "user_id", principal.ID, "role_id", principal.RoleID)

	return &LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		Principal: principal,
	}, nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	return s.codec.Verify(token)
}

// HashPassword creates a bcrypt hash of the password
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
