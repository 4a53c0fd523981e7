package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an administrative account. PasswordHash never leaves the server;
// the json tag keeps it out of every response.
type User struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	Username     string        `db:"username" json:"username"`
	PasswordHash string        `db:"password_hash" json:"-"`
	Role         Role          `db:"role" json:"role"`
	Permissions  PermissionSet `db:"permissions" json:"permissions"`
	IsActive     bool          `db:"is_active" json:"is_active"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// SessionUser is the payload embedded in a session token and echoed back
// on login.
type SessionUser struct {
	Username    string        `json:"username"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  SessionUser `json:"user"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required"`
}

type ChangePasswordRequest struct {
	Username    string `json:"username" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type ToggleUserStatusRequest struct {
	Username string `json:"username" binding:"required"`
	IsActive *bool  `json:"is_active" binding:"required"`
}
