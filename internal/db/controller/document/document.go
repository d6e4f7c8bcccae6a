// Package document provides the document registry: metadata CRUD with
// soft-delete semantics and permission-aware listing.
package document

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/db/models"
)

var (
	// ErrDocumentNotFound is returned when a document is absent or soft-deleted.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentNameEmpty is returned when attempting to create a document without a name.
	ErrDocumentNameEmpty = errors.New("document name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

const whereActiveID = "id = ? AND is_active = ?"

// CreateParams carries the metadata for a new document.
type CreateParams struct {
	Name         string
	Description  string
	FileName     string
	FilePath     string
	FileSize     int64
	FileType     string
	CategoryID   uint
	UploadedBy   uint64
	Author       string
	DocumentDate *time.Time
}

// UpdateParams carries the mutable metadata fields of a document.
// Nil fields keep their current value.
type UpdateParams struct {
	Name         *string
	Description  *string
	Author       *string
	DocumentDate *time.Time
	CategoryID   *uint
}

// Create inserts a new document row. The file itself must already be persisted
// in the file store; callers are responsible for removing it again if this
// insert fails.
func Create(db *gorm.DB, params CreateParams) (*models.Document, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if params.Name == "" {
		return nil, ErrDocumentNameEmpty
	}

	doc := &models.Document{
		Name:         params.Name,
		Description:  params.Description,
		FileName:     params.FileName,
		FilePath:     params.FilePath,
		FileSize:     params.FileSize,
		FileType:     params.FileType,
		CategoryID:   params.CategoryID,
		UploadedBy:   params.UploadedBy,
		Author:       params.Author,
		DocumentDate: params.DocumentDate,
		IsActive:     true,
	}

	result := db.Create(doc)
	if result.Error != nil {
		return nil, result.Error
	}

	return doc, nil
}

// GetByID retrieves an active document by its ID. Soft-deleted documents are
// reported as not found.
func GetByID(db *gorm.DB, id uint64) (*models.Document, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var doc models.Document
	result := db.Preload("Category").Preload("Uploader").
		Where(whereActiveID, id, true).First(&doc)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, result.Error
	}

	return &doc, nil
}

// ListVisibleTo returns all active documents the user may view, most recently
// created first, optionally filtered by category name.
//
// Visibility is the authorization engine's document view rule pushed into a
// single query: a general (documents, view) role permission, a per-document
// read grant for one of the user's roles, or ownership. The result is
// identical to filtering every document through the engine one by one.
func ListVisibleTo(db *gorm.DB, userID uint64, category string) ([]models.Document, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	tx := db.Model(&models.Document{}).
		Preload("Category").Preload("Uploader").
		Where("documents.is_active = ?", true).
		Where(`(
			EXISTS (
				SELECT 1 FROM permissions
				JOIN role_permissions ON role_permissions.permission_id = permissions.id
				JOIN user_roles ON user_roles.role_id = role_permissions.role_id
				WHERE user_roles.user_id = ?
				  AND permissions.resource = 'documents' AND permissions.action = 'view'
			)
			OR EXISTS (
				SELECT 1 FROM document_permissions
				JOIN user_roles ON user_roles.role_id = document_permissions.role_id
				WHERE user_roles.user_id = ?
				  AND document_permissions.document_id = documents.id
				  AND document_permissions.permission_type = 'read'
			)
			OR documents.uploaded_by = ?
		)`, userID, userID, userID)

	if category != "" {
		tx = tx.Joins("JOIN document_categories ON document_categories.id = documents.category_id").
			Where("document_categories.name = ?", category)
	}

	var docs []models.Document
	if err := tx.Order("documents.created_at DESC, documents.id DESC").Find(&docs).Error; err != nil {
		return nil, err
	}

	return docs, nil
}

// Update mutates the metadata of an active document. Nil params keep the
// current value. Soft-deleted documents are reported as not found.
func Update(db *gorm.DB, id uint64, params UpdateParams) (*models.Document, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	updates := map[string]interface{}{}
	if params.Name != nil {
		updates["name"] = *params.Name
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.Author != nil {
		updates["author"] = *params.Author
	}
	if params.DocumentDate != nil {
		updates["document_date"] = *params.DocumentDate
	}
	if params.CategoryID != nil {
		updates["category_id"] = *params.CategoryID
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()

		result := db.Model(&models.Document{}).
			Where(whereActiveID, id, true).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}

		if result.RowsAffected == 0 {
			return nil, ErrDocumentNotFound
		}
	}

	return GetByID(db, id)
}

// SoftDelete marks a document inactive and returns its stored file path so
// the caller can remove the physical file. The row is kept; all listings and
// permission checks treat the document as not found from now on.
func SoftDelete(db *gorm.DB, id uint64) (string, error) {
	if db == nil {
		return "", ErrDBNil
	}

	var doc models.Document
	result := db.Where(whereActiveID, id, true).First(&doc)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", ErrDocumentNotFound
		}
		return "", result.Error
	}

	err := db.Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error
	if err != nil {
		return "", err
	}

	return doc.FilePath, nil
}
