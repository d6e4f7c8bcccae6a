package models

import "time"

// UserRole represents the many-to-many relationship between users and roles.
// This junction table records which roles a user holds, who assigned each role
// and when. A (user, role) pair appears at most once.
type UserRole struct {
	// UserID is the ID of the user in this assignment.
	UserID uint64 `gorm:"primaryKey;column:user_id"`
	// RoleID is the ID of the role in this assignment.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// AssignedBy is the ID of the user who made the assignment (0 for seeded data).
	AssignedBy uint64 `gorm:"column:assigned_by"`
	// AssignedAt is the timestamp when the role was assigned.
	AssignedAt time.Time `gorm:"column:assigned_at;autoCreateTime"`
	// User is the associated user (loaded via foreign key).
	// When a user is deleted, all their role assignments are automatically removed (CASCADE).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Role is the associated role (loaded via foreign key).
	// When a role is deleted, all its assignments are automatically removed (CASCADE).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for the UserRole model.
// This overrides GORM's default pluralized table naming.
func (UserRole) TableName() string {
	return "user_roles"
}
