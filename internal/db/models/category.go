package models

import "time"

// Category represents a document category used to organize uploads.
// Categories are reference data seeded at startup; uploads referencing an
// unknown category are rejected before any state change.
type Category struct {
	// ID is the unique identifier for the category.
	ID uint `gorm:"primaryKey"`
	// Name is the unique display name of the category.
	Name string `gorm:"unique;size:100;not null"`
	// Color is the hex color used when rendering the category.
	Color string `gorm:"size:20"`
	// Description provides a human-readable explanation of the category.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the category was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the category was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Category model.
func (Category) TableName() string {
	return "document_categories"
}
