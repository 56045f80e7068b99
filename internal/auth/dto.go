package auth

import (
	"time"

	"github.com/frahmantamala/visitor-management/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MaxLength(100)
	v.Field("password", d.Password).Required().MaxLength(72)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Principal Principal `json:"principal"`
}
