package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docvault/docvault/internal/db/models"
)

// RolePermissionView is one row of the role permission projection: a catalog
// entry plus whether the role currently holds it. Ungranted entries are
// included so the caller can render toggles for the full catalog.
type RolePermissionView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Granted     bool   `json:"granted"`
}

// DocumentPermissionView is one row of the per-document grant listing.
type DocumentPermissionView struct {
	PermissionType  string    `json:"permission_type"`
	RoleID          uint      `json:"role_id"`
	RoleName        string    `json:"role_name"`
	RoleDescription string    `json:"role_description"`
	GrantedByName   string    `json:"granted_by_name"`
	GrantedAt       time.Time `json:"granted_at"`
}

// GrantRolePermission grants a general permission to a role. Granting a pair
// that already exists is a no-op, not an error. The caller must itself hold
// the (permissions, manage) permission; that check runs through Can before
// this mutation is reached.
func (s *Service) GrantRolePermission(roleID, permissionID uint, grantedBy uint64) error {
	if err := s.roleExists(roleID); err != nil {
		return err
	}

	var permission models.Permission
	if err := s.db.First(&permission, permissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPermissionNotFound
		}

		return fmt.Errorf("failed to load permission: %w", err)
	}

	grant := models.RolePermission{
		RoleID:       roleID,
		PermissionID: permissionID,
		GrantedBy:    grantedBy,
	}

	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error
	if err != nil {
		return fmt.Errorf("failed to grant role permission: %w", err)
	}

	return nil
}

// RevokeRolePermission removes a general permission from a role. Revoking a
// grant that does not exist is a no-op. Document-specific grants held by the
// same role are not affected.
func (s *Service) RevokeRolePermission(roleID, permissionID uint) error {
	err := s.db.
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&models.RolePermission{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke role permission: %w", err)
	}

	return nil
}

// GrantDocumentPermission grants a role one permission type on one specific
// document, independent of the role's general permissions. The permission
// type must be read, update or delete; the document must exist and be active.
// Duplicate grants are a no-op.
func (s *Service) GrantDocumentPermission(
	documentID uint64,
	roleID uint,
	permType PermissionType,
	grantedBy uint64,
) error {
	if !permType.Valid() {
		return ErrInvalidPermissionType
	}

	if err := s.roleExists(roleID); err != nil {
		return err
	}

	var doc models.Document

	err := s.db.Where("id = ? AND is_active = ?", documentID, true).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDocumentNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	grant := models.DocumentPermission{
		DocumentID:     documentID,
		RoleID:         roleID,
		PermissionType: string(permType),
		GrantedBy:      grantedBy,
	}

	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; err != nil {
		return fmt.Errorf("failed to grant document permission: %w", err)
	}

	return nil
}

// RevokeDocumentPermission removes a per-document grant. Revoking a grant
// that does not exist is a no-op.
func (s *Service) RevokeDocumentPermission(documentID uint64, roleID uint, permType PermissionType) error {
	if !permType.Valid() {
		return ErrInvalidPermissionType
	}

	err := s.db.
		Where("document_id = ? AND role_id = ? AND permission_type = ?", documentID, roleID, permType).
		Delete(&models.DocumentPermission{}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke document permission: %w", err)
	}

	return nil
}

// ListPermissions returns the full permission catalog ordered by resource and action.
func (s *Service) ListPermissions() ([]models.Permission, error) {
	var permissions []models.Permission

	err := s.db.Order("resource, action").Find(&permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}

	return permissions, nil
}

// ListRolePermissions returns the full catalog with a granted flag per entry
// for the given role, via a left join against the grant table.
func (s *Service) ListRolePermissions(roleID uint) ([]RolePermissionView, error) {
	if err := s.roleExists(roleID); err != nil {
		return nil, err
	}

	var views []RolePermissionView

	err := s.db.Table("permissions").
		Select(
			"permissions.id, permissions.name, permissions.resource, permissions.action, permissions.description, " +
				"CASE WHEN role_permissions.permission_id IS NOT NULL THEN true ELSE false END AS granted",
		).
		Joins(
			"LEFT JOIN role_permissions ON role_permissions.permission_id = permissions.id AND role_permissions.role_id = ?",
			roleID,
		).
		Order("permissions.resource, permissions.action").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}

	return views, nil
}

// ListDocumentPermissions returns all per-document grants on one document,
// joined with the role store and the grantor's name.
func (s *Service) ListDocumentPermissions(documentID uint64) ([]DocumentPermissionView, error) {
	var doc models.Document

	err := s.db.Where("id = ? AND is_active = ?", documentID, true).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	var rows []struct {
		PermissionType  string
		RoleID          uint
		RoleName        string
		RoleDescription string
		GrantedByFirst  string
		GrantedByLast   string
		GrantedAt       time.Time
	}

	err = s.db.Table("document_permissions").
		Select(
			"document_permissions.permission_type, roles.id AS role_id, roles.name AS role_name, " +
				"roles.description AS role_description, " +
				"users.first_name AS granted_by_first, users.last_name AS granted_by_last, " +
				"document_permissions.granted_at",
		).
		Joins("JOIN roles ON roles.id = document_permissions.role_id").
		Joins("LEFT JOIN users ON users.id = document_permissions.granted_by").
		Where("document_permissions.document_id = ?", documentID).
		Order("roles.name, document_permissions.permission_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list document permissions: %w", err)
	}

	views := make([]DocumentPermissionView, 0, len(rows))
	for _, r := range rows {
		views = append(views, DocumentPermissionView{
			PermissionType:  r.PermissionType,
			RoleID:          r.RoleID,
			RoleName:        r.RoleName,
			RoleDescription: r.RoleDescription,
			GrantedByName:   strings.TrimSpace(r.GrantedByFirst + " " + r.GrantedByLast),
			GrantedAt:       r.GrantedAt,
		})
	}

	return views, nil
}

func (s *Service) roleExists(roleID uint) error {
	var role models.Role
	if err := s.db.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}

		return fmt.Errorf("failed to load role: %w", err)
	}

	return nil
}
