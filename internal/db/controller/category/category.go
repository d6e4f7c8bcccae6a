// Package category provides read and seed operations for document categories.
package category

import (
	"errors"

	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/db/models"
)

const nameQueryPattern = "name = ?"

var (
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryNameEmpty is returned when attempting to create a category with an empty name.
	ErrCategoryNameEmpty = errors.New("category name cannot be empty")
	// ErrCategoryAlreadyExists is returned when attempting to create a category that already exists.
	ErrCategoryAlreadyExists = errors.New("category already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// GetByName retrieves a category by its name.
func GetByName(db *gorm.DB, name string) (*models.Category, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrCategoryNameEmpty
	}

	var cat models.Category
	result := db.Where(nameQueryPattern, name).First(&cat)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, result.Error
	}

	return &cat, nil
}

// GetByID retrieves a category by its ID.
func GetByID(db *gorm.DB, id uint) (*models.Category, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var cat models.Category
	result := db.First(&cat, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, result.Error
	}

	return &cat, nil
}

// GetAll retrieves all categories ordered by name.
func GetAll(db *gorm.DB) ([]models.Category, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var cats []models.Category
	result := db.Order("name").Find(&cats)
	if result.Error != nil {
		return nil, result.Error
	}

	return cats, nil
}

// Create creates a new category.
func Create(db *gorm.DB, name, color, description string) (*models.Category, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrCategoryNameEmpty
	}

	// Check if category already exists
	var existing models.Category
	result := db.Where(nameQueryPattern, name).First(&existing)
	if result.Error == nil {
		return nil, ErrCategoryAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	cat := &models.Category{
		Name:        name,
		Color:       color,
		Description: description,
	}

	result = db.Create(cat)
	if result.Error != nil {
		return nil, result.Error
	}

	return cat, nil
}
