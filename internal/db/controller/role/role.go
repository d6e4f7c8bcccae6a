// Package role provides the role store: role CRUD and the user-role
// assignment relation.
package role

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docvault/docvault/internal/db/models"
)

var (
	// ErrRoleNotFound is returned when a role is not found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleNameEmpty is returned when attempting to create a role with an empty name.
	ErrRoleNameEmpty = errors.New("role name cannot be empty")
	// ErrRoleAlreadyExists is returned when attempting to create a role whose name is taken.
	ErrRoleAlreadyExists = errors.New("role already exists")
	// ErrUserNotFound is returned when assigning a role to an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Summary is a role together with the number of users currently holding it.
type Summary struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UserCount   int64     `json:"user_count"`
}

// Assignment is one row of the assigned-roles listing: an active user joined
// with one of their roles.
type Assignment struct {
	UserID          uint64    `json:"user_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	PhoneNumber     string    `json:"phone_number"`
	Role            string    `json:"role"`
	RoleDescription string    `json:"role_description"`
	AssignedAt      time.Time `json:"assigned_at"`
}

// Create creates a new role. A duplicate name is a conflict.
func Create(db *gorm.DB, name, description string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrRoleNameEmpty
	}

	var existing models.Role
	result := db.Where("name = ?", name).First(&existing)
	if result.Error == nil {
		return nil, ErrRoleAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	role := &models.Role{
		Name:        name,
		Description: description,
	}

	result = db.Create(role)
	if result.Error != nil {
		return nil, result.Error
	}

	return role, nil
}

// GetByID retrieves a role by its ID.
func GetByID(db *gorm.DB, id uint) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var role models.Role
	result := db.First(&role, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &role, nil
}

// GetByName retrieves a role by its unique name.
func GetByName(db *gorm.DB, name string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrRoleNameEmpty
	}

	var role models.Role
	result := db.Where("name = ?", name).First(&role)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &role, nil
}

// List returns all roles with their current holder counts, ordered by name.
func List(db *gorm.DB) ([]Summary, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var summaries []Summary

	err := db.Table("roles").
		Select("roles.id, roles.name, roles.description, roles.created_at, COUNT(user_roles.user_id) AS user_count").
		Joins("LEFT JOIN user_roles ON user_roles.role_id = roles.id").
		Group("roles.id, roles.name, roles.description, roles.created_at").
		Order("roles.name").
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// Assign assigns a role to a user, recording who assigned it. Assigning a
// role the user already holds is a no-op.
func Assign(db *gorm.DB, userID uint64, roleID uint, assignedBy uint64) error {
	if db == nil {
		return ErrDBNil
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	var role models.Role
	if err := db.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return err
	}

	assignment := models.UserRole{
		UserID:     userID,
		RoleID:     roleID,
		AssignedBy: assignedBy,
	}

	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&assignment).Error
}

// Unassign removes a role from a user. Removing an assignment that does not
// exist is a no-op.
func Unassign(db *gorm.DB, userID uint64, roleID uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{}).Error
}

// ListAssignments returns all role assignments of active users, most recent
// first.
func ListAssignments(db *gorm.DB) ([]Assignment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var assignments []Assignment

	err := db.Table("users").
		Select(
			"users.id AS user_id, users.first_name, users.last_name, users.email, users.phone_number, " +
				"roles.name AS role, roles.description AS role_description, user_roles.assigned_at",
		).
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("users.active = ?", true).
		Order("user_roles.assigned_at DESC").
		Scan(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}
