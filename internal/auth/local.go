package auth

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

const (
	whereIDAndAuthSource = "id = ? AND auth_source = ?"

	whereID = "id = ?"
)

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate authenticates a user against the local database by email and password.
func (p *LocalProvider) Authenticate(email, password string) (*models.User, error) {
	var user models.User

	err := p.db.Where("email = ? AND auth_source = ?", email, models.AuthSourceLocal).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	// Check if user is active
	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	// Verify password
	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	user.UpdatedAt = time.Now()
	p.db.Save(&user)

	return &user, nil
}

// CreateUser creates a new local user. A duplicate email is a conflict, not a
// no-op: identity creation is never idempotent.
func (p *LocalProvider) CreateUser(
	email, password, firstName, lastName, phoneNumber string,
) (*models.User, error) {
	// Check if user already exists
	var existingUser models.User

	err := p.db.Where("email = ?", email).First(&existingUser).Error
	if err == nil {
		return nil, ErrEmailExists
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	// Hash password
	hashedPassword := models.HashPassword(password)

	user := models.User{
		Active:      true,
		Email:       email,
		Password:    hashedPassword,
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: phoneNumber,
		AuthSource:  models.AuthSourceLocal,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := p.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// UpdateUser updates an existing local user's profile fields.
func (p *LocalProvider) UpdateUser(userID uint64, email, firstName, lastName, phoneNumber string) error {
	updates := map[string]interface{}{
		"email":        email,
		"first_name":   firstName,
		"last_name":    lastName,
		"phone_number": phoneNumber,
		"updated_at":   time.Now(),
	}

	return p.db.Model(&models.User{}).
		Where(whereIDAndAuthSource, userID, models.AuthSourceLocal).
		Updates(updates).Error
}

// ChangePassword changes a user's password.
func (p *LocalProvider) ChangePassword(userID uint64, oldPassword, newPassword string) error {
	var user models.User

	err := p.db.Where(whereIDAndAuthSource, userID, models.AuthSourceLocal).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to query user: %w", err)
	}

	// Verify old password
	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	hashedPassword := models.HashPassword(newPassword)

	return p.db.Model(&models.User{}).
		Where(whereID, userID).
		Update("password", hashedPassword).Error
}

// ResetPassword resets a user's password (admin function).
func (p *LocalProvider) ResetPassword(userID uint64, newPassword string) error {
	hashedPassword := models.HashPassword(newPassword)

	return p.db.Model(&models.User{}).
		Where(whereIDAndAuthSource, userID, models.AuthSourceLocal).
		Update("password", hashedPassword).Error
}

// ActivateUser activates a user account.
func (p *LocalProvider) ActivateUser(userID uint64) error {
	return p.db.Model(&models.User{}).
		Where(whereID, userID).
		Update("active", true).Error
}

// DeactivateUser deactivates a user account. The engine denies every decision
// for a deactivated account on its next evaluation.
func (p *LocalProvider) DeactivateUser(userID uint64) error {
	return p.db.Model(&models.User{}).
		Where(whereID, userID).
		Update("active", false).Error
}

// GetUserByID retrieves a user by ID with their roles preloaded.
func (p *LocalProvider) GetUserByID(userID uint64) (*models.User, error) {
	var user models.User

	err := p.db.Preload("Roles").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email with their roles preloaded.
func (p *LocalProvider) GetUserByEmail(email string) (*models.User, error) {
	var user models.User

	err := p.db.Preload("Roles").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// ListUsers lists all users with optional filters.
func (p *LocalProvider) ListUsers(
	authSource models.AuthSource,
	active *bool,
	limit, offset int,
) ([]models.User, int64, error) {
	var users []models.User

	var total int64

	query := p.db.Model(&models.User{})

	if authSource != "" {
		query = query.Where("auth_source = ?", authSource)
	}

	if active != nil {
		query = query.Where("active = ?", *active)
	}

	// Get total count
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get paginated results
	if err := query.Preload("Roles").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
