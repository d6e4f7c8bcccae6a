package role

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

	err = db.AutoMigrate(&models.User{}, &models.Role{}, &models.UserRole{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, active bool) *models.User {
	t.Helper()

	user := &models.User{Email: email, Active: active, AuthSource: models.AuthSourceLocal}
	require.NoError(t, db.Create(user).Error)

	return user
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)

	created, err := Create(db, "editor", "Manage documents")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "editor", created.Name)

	_, err = Create(db, "editor", "duplicate")
	assert.ErrorIs(t, err, ErrRoleAlreadyExists)

	_, err = Create(db, "", "no name")
	assert.ErrorIs(t, err, ErrRoleNameEmpty)
}

func TestGetByIDAndName(t *testing.T) {
	db := setupTestDB(t)

	created, err := Create(db, "editor", "")
	require.NoError(t, err)

	byID, err := GetByID(db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, byID.Name)

	byName, err := GetByName(db, "editor")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = GetByID(db, 999)
	assert.ErrorIs(t, err, ErrRoleNotFound)

	_, err = GetByName(db, "missing")
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestList_UserCounts(t *testing.T) {
	db := setupTestDB(t)

	editor, err := Create(db, "editor", "")
	require.NoError(t, err)

	_, err = Create(db, "viewer", "")
	require.NoError(t, err)

	alice := seedUser(t, db, "alice@example.com", true)
	bob := seedUser(t, db, "bob@example.com", true)

	require.NoError(t, Assign(db, alice.ID, editor.ID, alice.ID))
	require.NoError(t, Assign(db, bob.ID, editor.ID, alice.ID))

	summaries, err := List(db)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// ordered by name: editor before viewer
	assert.Equal(t, "editor", summaries[0].Name)
	assert.Equal(t, int64(2), summaries[0].UserCount)
	assert.Equal(t, "viewer", summaries[1].Name)
	assert.Equal(t, int64(0), summaries[1].UserCount)
}

func TestAssign(t *testing.T) {
	db := setupTestDB(t)

	editor, err := Create(db, "editor", "")
	require.NoError(t, err)

	alice := seedUser(t, db, "alice@example.com", true)

	require.NoError(t, Assign(db, alice.ID, editor.ID, alice.ID))
	// assigning a held role is a no-op
	require.NoError(t, Assign(db, alice.ID, editor.ID, alice.ID))

	var count int64
	require.NoError(t, db.Model(&models.UserRole{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, Assign(db, 999, editor.ID, alice.ID), ErrUserNotFound)
	assert.ErrorIs(t, Assign(db, alice.ID, 999, alice.ID), ErrRoleNotFound)
}

func TestUnassign(t *testing.T) {
	db := setupTestDB(t)

	editor, err := Create(db, "editor", "")
	require.NoError(t, err)

	alice := seedUser(t, db, "alice@example.com", true)
	require.NoError(t, Assign(db, alice.ID, editor.ID, alice.ID))

	require.NoError(t, Unassign(db, alice.ID, editor.ID))

	var count int64
	require.NoError(t, db.Model(&models.UserRole{}).Count(&count).Error)
	assert.Zero(t, count)

	// removing an absent assignment is a no-op
	require.NoError(t, Unassign(db, alice.ID, editor.ID))
}

func TestListAssignments(t *testing.T) {
	db := setupTestDB(t)

	editor, err := Create(db, "editor", "Manage documents")
	require.NoError(t, err)

	alice := seedUser(t, db, "alice@example.com", true)
	bob := seedUser(t, db, "bob@example.com", false)

	require.NoError(t, Assign(db, alice.ID, editor.ID, alice.ID))
	require.NoError(t, Assign(db, bob.ID, editor.ID, alice.ID))

	assignments, err := ListAssignments(db)
	require.NoError(t, err)
	require.Len(t, assignments, 1, "inactive users are excluded")

	assert.Equal(t, alice.ID, assignments[0].UserID)
	assert.Equal(t, "editor", assignments[0].Role)
	assert.Equal(t, "Manage documents", assignments[0].RoleDescription)
}
