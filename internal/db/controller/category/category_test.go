package category

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Category{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestCreateAndGet(t *testing.T) {
	db := setupTestDB(t)

	created, err := Create(db, "Reports", "#fd7e14", "Reports and analysis")
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	byName, err := GetByName(db, "Reports")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
	assert.Equal(t, "#fd7e14", byName.Color)

	byID, err := GetByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reports", byID.Name)
}

func TestCreate_Duplicate(t *testing.T) {
	db := setupTestDB(t)

	_, err := Create(db, "Reports", "", "")
	require.NoError(t, err)

	_, err = Create(db, "Reports", "", "")
	assert.ErrorIs(t, err, ErrCategoryAlreadyExists)

	_, err = Create(db, "", "", "")
	assert.ErrorIs(t, err, ErrCategoryNameEmpty)
}

func TestGet_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetByName(db, "missing")
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = GetByID(db, 999)
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	_, err = GetByName(db, "")
	assert.ErrorIs(t, err, ErrCategoryNameEmpty)
}

func TestGetAll_OrderedByName(t *testing.T) {
	db := setupTestDB(t)

	for _, name := range []string{"Legal", "Contracts", "Invoices"} {
		_, err := Create(db, name, "", "")
		require.NoError(t, err)
	}

	cats, err := GetAll(db)
	require.NoError(t, err)
	require.Len(t, cats, 3)

	assert.Equal(t, "Contracts", cats[0].Name)
	assert.Equal(t, "Invoices", cats[1].Name)
	assert.Equal(t, "Legal", cats[2].Name)
}
