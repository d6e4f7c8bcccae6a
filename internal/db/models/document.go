package models

import "time"

// Document represents an uploaded document's metadata.
// The binary content lives in the file store; this row references it via
// FilePath. Documents are soft-deleted: once IsActive is false the document is
// excluded from all listings and permission checks treat it as not found.
type Document struct {
	// ID is the unique identifier for the document.
	ID uint64 `gorm:"primaryKey"`
	// Name is the display name of the document.
	Name string `gorm:"size:255;not null"`
	// Description provides free-text details about the document.
	Description string `gorm:"size:1000"`
	// FileName is the original name of the uploaded file.
	FileName string `gorm:"size:255;not null"`
	// FilePath is the stored location of the file in the file store.
	FilePath string `gorm:"size:512;not null"`
	// FileSize is the size of the stored file in bytes.
	FileSize int64
	// FileType is the MIME type reported at upload time.
	FileType string `gorm:"size:100"`
	// CategoryID is the ID of the category this document belongs to.
	CategoryID uint `gorm:"column:category_id;not null"`
	// Category is the associated category (loaded via foreign key).
	Category Category `gorm:"foreignKey:CategoryID"`
	// UploadedBy is the ID of the user who uploaded the document.
	// The uploader keeps implicit full access regardless of role grants.
	UploadedBy uint64 `gorm:"column:uploaded_by;not null"`
	// Uploader is the associated user (loaded via foreign key).
	Uploader User `gorm:"foreignKey:UploadedBy"`
	// Author is the document's author as entered by the uploader.
	Author string `gorm:"size:255"`
	// DocumentDate is the date the document refers to (not the upload time).
	DocumentDate *time.Time `gorm:"column:document_date"`
	// IsActive is false once the document has been soft-deleted.
	IsActive bool `gorm:"column:is_active;not null;default:true"`
	// CreatedAt is the timestamp when the document was uploaded (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the document was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Document model.
// This overrides GORM's default pluralized table naming.
func (Document) TableName() string {
	return "documents"
}
