package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// AuthSource represents the authentication source for a user account.
// It indicates how the user authenticates (local database or OIDC).
type AuthSource string

const (
	// AuthSourceLocal indicates the user authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceOIDC indicates the user authenticates via OpenID Connect (OIDC).
	AuthSourceOIDC AuthSource = "oidc"
)

// User represents a user account in the system.
// Users can authenticate via local database or OIDC.
// They hold zero or more roles through the UserRole assignment relation,
// which determines their permissions on documents and administrative areas.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey"`
	// Active indicates whether the user account is active and can log in.
	// Inactive accounts are denied by every authorization decision.
	Active bool
	// Email is the unique address used for login.
	Email string `gorm:"unique;size:255;not null"`
	// Password is the Argon2id hashed password (only used for local authentication).
	Password string `gorm:"size:255"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100"`
	// PhoneNumber is an optional contact number.
	PhoneNumber string `gorm:"size:50"`
	// Roles are the roles assigned to this user via the user_roles relation.
	Roles []Role `gorm:"many2many:user_roles;joinForeignKey:UserID;joinReferences:RoleID"`
	// AuthSource indicates how this user authenticates (local or oidc).
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// ExternalID is the external identifier for OIDC (sub claim) users.
	ExternalID string `gorm:"size:255"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}

	return u.FirstName + " " + u.LastName
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating local user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// It uses constant-time comparison to prevent timing attacks.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
