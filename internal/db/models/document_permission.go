package models

import "time"

// DocumentPermission represents a per-document permission override.
// It grants one role one permission type (read, update or delete) on one
// specific document, independent of the role's general permissions. The
// (document, role, permission_type) triple is unique; granting an existing
// triple is a no-op.
type DocumentPermission struct {
	// DocumentID is the ID of the document this grant is scoped to.
	DocumentID uint64 `gorm:"primaryKey;column:document_id"`
	// RoleID is the ID of the role receiving the grant.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// PermissionType is the granted action: read, update or delete.
	PermissionType string `gorm:"primaryKey;column:permission_type;size:20"`
	// GrantedBy is the ID of the user who granted the permission.
	GrantedBy uint64 `gorm:"column:granted_by"`
	// GrantedAt is the timestamp when the permission was granted.
	GrantedAt time.Time `gorm:"column:granted_at;autoCreateTime"`
	// Document is the associated document (loaded via foreign key).
	// When a document is hard-deleted, its grants are removed (CASCADE).
	Document Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the DocumentPermission model.
// This overrides GORM's default pluralized table naming.
func (DocumentPermission) TableName() string {
	return "document_permissions"
}
