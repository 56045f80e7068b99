package user

import "time"

// Profile is the current user as returned by GET /users/me.
type Profile struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	RoleID      int64     `json:"role_id"`
	RoleName    string    `json:"role_name"`
	IsActive    bool      `json:"is_active"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

func newProfile(u *User, permissions []string) *Profile {
	return &Profile{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		RoleID:      u.RoleID,
		RoleName:    u.RoleName,
		IsActive:    u.IsActive,
		Permissions: permissions,
		CreatedAt:   u.CreatedAt,
	}
}
