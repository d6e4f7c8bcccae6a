package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/db/models"
)

// Service provides authentication and authorization functionality.
// It is the single authorization decision engine consumed by every handler.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Can answers whether the user may perform the action on the resource,
// optionally scoped to one specific document.
//
// The decision combines three additive paths: a general role permission
// matching the (resource, action) pair, a per-document grant for the exact
// document and permission type, and the uploader's implicit ownership of their
// own documents. Allow wins if any path grants access; there is no deny
// override. The decision is a pure read over current grant state.
//
// An unknown or inactive principal fails with ErrUnauthenticated. A decision
// scoped to an absent or soft-deleted document fails with ErrDocumentNotFound.
func (s *Service) Can(userID uint64, resource Resource, action Action, documentID *uint64) (bool, error) {
	if !resource.Valid() {
		return false, ErrInvalidResource
	}

	if !action.Valid() {
		return false, ErrInvalidAction
	}

	var user models.User

	err := s.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrUnauthenticated
	}

	if err != nil {
		return false, fmt.Errorf("failed to load principal: %w", err)
	}

	if !user.Active {
		return false, ErrUnauthenticated
	}

	if documentID != nil && resource == ResourceDocuments {
		if permType, ok := action.PermissionType(); ok {
			return s.canOnDocument(userID, *documentID, permType, resource, action)
		}
	}

	return s.hasGeneralPermission(userID, resource, action)
}

// canOnDocument evaluates a decision scoped to a single document: ownership
// fast-path first, then the per-document override, then the general role
// permission. The override applies regardless of whether the general check
// would fail.
func (s *Service) canOnDocument(
	userID, documentID uint64,
	permType PermissionType,
	resource Resource,
	action Action,
) (bool, error) {
	var doc models.Document

	err := s.db.Where("id = ? AND is_active = ?", documentID, true).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ErrDocumentNotFound
	}

	if err != nil {
		return false, fmt.Errorf("failed to load document: %w", err)
	}

	// The uploader keeps full access without consulting grants.
	if doc.UploadedBy == userID {
		return true, nil
	}

	var count int64

	err = s.db.Table("document_permissions").
		Joins("JOIN user_roles ON user_roles.role_id = document_permissions.role_id").
		Where(
			"user_roles.user_id = ? AND document_permissions.document_id = ? AND document_permissions.permission_type = ?",
			userID, documentID, permType,
		).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check document permission: %w", err)
	}

	if count > 0 {
		return true, nil
	}

	return s.hasGeneralPermission(userID, resource, action)
}

// hasGeneralPermission checks the role_permissions relation for a grant whose
// permission matches the full (resource, action) pair. Matching on the pair
// rather than the permission name alone keeps a grant on one resource from
// leaking onto another.
func (s *Service) hasGeneralPermission(userID uint64, resource Resource, action Action) (bool, error) {
	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where(
			"user_roles.user_id = ? AND permissions.resource = ? AND permissions.action = ?",
			userID, resource, action,
		).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// GetUserPermissions retrieves the names of all general permissions the user
// holds through role grants. Handlers expose this to the client as a
// capability cache with no independent authority.
func (s *Service) GetUserPermissions(userID uint64) ([]string, error) {
	var permissions []string

	err := s.db.Table("permissions").
		Select("DISTINCT permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return permissions, nil
}

// GetUserRoles retrieves all roles assigned to a user.
func (s *Service) GetUserRoles(userID uint64) ([]models.Role, error) {
	var roles []models.Role

	err := s.db.Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	return roles, nil
}
