package models

import "time"

// RolePermission represents the many-to-many relationship between roles and permissions.
// This junction table maps which general permissions are granted to which roles,
// recording the grantor and the grant time. A (role, permission) pair appears at
// most once; granting an existing pair is a no-op.
// When a role is deleted, its permission grants are automatically removed (CASCADE).
type RolePermission struct {
	// RoleID is the ID of the role in this grant.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// PermissionID is the ID of the permission in this grant.
	PermissionID uint `gorm:"primaryKey;column:permission_id"`
	// GrantedBy is the ID of the user who granted the permission (0 for seeded data).
	GrantedBy uint64 `gorm:"column:granted_by"`
	// GrantedAt is the timestamp when the permission was granted.
	GrantedAt time.Time `gorm:"column:granted_at;autoCreateTime"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// Permission is the associated permission (loaded via foreign key).
	Permission Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the RolePermission model.
// This overrides GORM's default pluralized table naming.
func (RolePermission) TableName() string {
	return "role_permissions"
}
