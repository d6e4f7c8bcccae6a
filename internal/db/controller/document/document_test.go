package document

import (
	"testing"
	"time"

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

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.Permission{},
		&models.RolePermission{},
		&models.Category{},
		&models.Document{},
		&models.DocumentPermission{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{Email: email, Active: true, AuthSource: models.AuthSourceLocal}
	require.NoError(t, db.Create(user).Error)

	return user
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	cat := &models.Category{Name: name}
	require.NoError(t, db.Create(cat).Error)

	return cat
}

func seedDocument(t *testing.T, db *gorm.DB, name string, categoryID uint, uploadedBy uint64) *models.Document {
	t.Helper()

	doc, err := Create(db, CreateParams{
		Name:       name,
		FileName:   name + ".pdf",
		FilePath:   "/tmp/" + name + ".pdf",
		FileSize:   128,
		FileType:   "application/pdf",
		CategoryID: categoryID,
		UploadedBy: uploadedBy,
	})
	require.NoError(t, err)

	return doc
}

// grantViewDocuments gives the user a role holding the general document view
// permission.
func grantViewDocuments(t *testing.T, db *gorm.DB, userID uint64) {
	t.Helper()

	perm := &models.Permission{Name: "view_documents", Resource: "documents", Action: "view"}
	require.NoError(t, db.Where("name = ?", perm.Name).FirstOrCreate(perm).Error)

	role := &models.Role{Name: "viewer"}
	require.NoError(t, db.Where("name = ?", role.Name).FirstOrCreate(role).Error)

	require.NoError(t, db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: userID, RoleID: role.ID}).Error)
}

func TestCreate_Validation(t *testing.T) {
	db := setupTestDB(t)

	_, err := Create(db, CreateParams{})
	assert.ErrorIs(t, err, ErrDocumentNameEmpty)

	_, err = Create(nil, CreateParams{Name: "x"})
	assert.ErrorIs(t, err, ErrDBNil)
}

func TestGetByID(t *testing.T) {
	db := setupTestDB(t)

	owner := seedUser(t, db, "owner@example.com")
	cat := seedCategory(t, db, "general")
	doc := seedDocument(t, db, "report", cat.ID, owner.ID)

	loaded, err := GetByID(db, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "report", loaded.Name)
	assert.Equal(t, "general", loaded.Category.Name)
	assert.Equal(t, owner.ID, loaded.Uploader.ID)

	_, err = GetByID(db, 999)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestListVisibleTo_GeneralPermission(t *testing.T) {
	db := setupTestDB(t)

	owner := seedUser(t, db, "owner@example.com")
	viewer := seedUser(t, db, "viewer@example.com")
	grantViewDocuments(t, db, viewer.ID)

	cat := seedCategory(t, db, "general")
	seedDocument(t, db, "one", cat.ID, owner.ID)
	seedDocument(t, db, "two", cat.ID, owner.ID)

	docs, err := ListVisibleTo(db, viewer.ID, "")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestListVisibleTo_OwnershipOnly(t *testing.T) {
	db := setupTestDB(t)

	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")

	cat := seedCategory(t, db, "general")
	mine := seedDocument(t, db, "mine", cat.ID, owner.ID)
	seedDocument(t, db, "theirs", cat.ID, other.ID)

	docs, err := ListVisibleTo(db, owner.ID, "")
	require.NoError(t, err)
	require.Len(t, docs, 1, "without any role the owner sees only their own uploads")
	assert.Equal(t, mine.ID, docs[0].ID)
}

func TestListVisibleTo_DocumentGrant(t *testing.T) {
	db := setupTestDB(t)

	owner := seedUser(t, db, "owner@example.com")
	user := seedUser(t, db, "user@example.com")

	role := &models.Role{Name: "partners"}
	require.NoError(t, db.Create(role).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error)

	cat := seedCategory(t, db, "general")
	shared := seedDocument(t, db, "shared", cat.ID, owner.ID)
	seedDocument(t, db, "hidden", cat.ID, owner.ID)

	require.NoError(t, db.Create(&models.DocumentPermission{
		DocumentID:     shared.ID,
		RoleID:         role.ID,
		PermissionType: "read",
	}).Error)

	docs, err := ListVisibleTo(db, user.ID, "")
	require.NoError(t, err)
	require.Len(t, docs, 1, "a per-document read grant reveals exactly that document")
	assert.Equal(t, shared.ID, docs[0].ID)

	// an update grant alone does not make a document visible
	require.NoError(t, db.Create(&models.DocumentPermission{
		DocumentID:     shared.ID,
		RoleID:         role.ID,
		PermissionType: "update",
	}).Error)

	docs, err = ListVisibleTo(db, user.ID, "")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestListVisibleTo_CategoryFilterAndOrdering(t *testing.T) {
	db := setupTestDB(t)

	owner := seedUser(t, db, "owner@example.com")
	grantViewDocuments(t, db, owner.ID)

	reports := seedCategory(t, db, "reports")
	invoices := seedCategory(t, db, "invoices")

	older := seedDocument(t, db, "older", reports.ID, owner.ID)
	require.NoError(t, db.Model(&models.Document{}).Where("id = ?", older.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	newer := seedDocument(t, db, "newer", reports.ID, owner.ID)
	seedDocument(t, db, "invoice", invoices.ID, owner.ID)

	docs, err := ListVisibleTo(db, owner.ID, "reports")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, newer.ID, docs[0].ID, "newest first")
	assert.Equal(t, older.ID, docs[1].ID)

	docs, err = ListVisibleTo(db, owner.ID, "nope")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestListVisibleTo_ExcludesSoftDeleted(t *testing.T) {
	db := setupTestDB(t)

	owner := seedUser(t, db, "owner@example.com")
	grantViewDocuments(t, db, owner.ID)

	cat := seedCategory(t, db, "general")
	doc := seedDocument(t, db, "doomed", cat.ID, owner.ID)

	_, err := SoftDelete(db, doc.ID)
	require.NoError(t, err)

	// gone for everyone, including the owner with a general view permission
	docs, err := ListVisibleTo(db, owner.ID, "")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)

	owner := seedUser(t, db, "owner@example.com")
	cat := seedCategory(t, db, "general")
	other := seedCategory(t, db, "reports")
	doc := seedDocument(t, db, "draft", cat.ID, owner.ID)

	newName := "final"
	updated, err := Update(db, doc.ID, UpdateParams{Name: &newName, CategoryID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Name)
	assert.Equal(t, other.ID, updated.CategoryID)

	// absent fields keep their value
	newAuthor := "A. Writer"
	updated, err = Update(db, doc.ID, UpdateParams{Author: &newAuthor})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Name)
	assert.Equal(t, "A. Writer", updated.Author)

	_, err = Update(db, 999, UpdateParams{Name: &newName})
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestSoftDelete(t *testing.T) {
	db := setupTestDB(t)

	owner := seedUser(t, db, "owner@example.com")
	cat := seedCategory(t, db, "general")
	doc := seedDocument(t, db, "doomed", cat.ID, owner.ID)

	filePath, err := SoftDelete(db, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.FilePath, filePath)

	// the row survives, flagged inactive
	var row models.Document
	require.NoError(t, db.First(&row, doc.ID).Error)
	assert.False(t, row.IsActive)

	_, err = GetByID(db, doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	// deleting again reports not found
	_, err = SoftDelete(db, doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	// updates on a deleted document report not found
	name := "resurrect"
	_, err = Update(db, doc.ID, UpdateParams{Name: &name})
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
