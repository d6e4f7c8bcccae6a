package auth

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

// seedCatalog inserts the full permission catalog.
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()

	for i := range Catalog {
		perm := Catalog[i]
		perm.ID = 0
		require.NoError(t, db.Create(&perm).Error)
	}
}

func createUser(t *testing.T, db *gorm.DB, email string, active bool) *models.User {
	t.Helper()

	user := &models.User{
		Email:      email,
		Active:     active,
		AuthSource: models.AuthSourceLocal,
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

func createRole(t *testing.T, db *gorm.DB, name string) *models.Role {
	t.Helper()

	role := &models.Role{Name: name}
	require.NoError(t, db.Create(role).Error)

	return role
}

func assignRole(t *testing.T, db *gorm.DB, userID uint64, roleID uint) {
	t.Helper()

	require.NoError(t, db.Create(&models.UserRole{UserID: userID, RoleID: roleID}).Error)
}

// grantByName grants the named catalog permission to a role.
func grantByName(t *testing.T, db *gorm.DB, roleID uint, permissionName string) {
	t.Helper()

	var perm models.Permission
	require.NoError(t, db.Where("name = ?", permissionName).First(&perm).Error)
	require.NoError(t, db.Create(&models.RolePermission{RoleID: roleID, PermissionID: perm.ID}).Error)
}

func createCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	cat := &models.Category{Name: name}
	require.NoError(t, db.Create(cat).Error)

	return cat
}

func createDocument(t *testing.T, db *gorm.DB, name string, categoryID uint, uploadedBy uint64) *models.Document {
	t.Helper()

	doc := &models.Document{
		Name:       name,
		FileName:   name + ".pdf",
		FilePath:   "/tmp/" + name + ".pdf",
		CategoryID: categoryID,
		UploadedBy: uploadedBy,
		IsActive:   true,
	}
	require.NoError(t, db.Create(doc).Error)

	return doc
}

func grantOnDocument(t *testing.T, db *gorm.DB, documentID uint64, roleID uint, permType PermissionType) {
	t.Helper()

	require.NoError(t, db.Create(&models.DocumentPermission{
		DocumentID:     documentID,
		RoleID:         roleID,
		PermissionType: string(permType),
	}).Error)
}

func TestCan_InvalidInput(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.Can(1, "bogus", ActionView, nil)
	assert.ErrorIs(t, err, ErrInvalidResource)

	_, err = svc.Can(1, ResourceDocuments, "bogus", nil)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestCan_UnknownPrincipal(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.Can(42, ResourceDocuments, ActionView, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCan_InactivePrincipal(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	user := createUser(t, db, "inactive@example.com", false)
	role := createRole(t, db, "viewer")
	assignRole(t, db, user.ID, role.ID)
	grantByName(t, db, role.ID, "view_documents")

	_, err := svc.Can(user.ID, ResourceDocuments, ActionView, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCan_NoRolesDenied(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	user := createUser(t, db, "norole@example.com", true)

	for _, action := range []Action{ActionView, ActionUpload, ActionEdit, ActionDelete, ActionShare} {
		allowed, err := svc.Can(user.ID, ResourceDocuments, action, nil)
		require.NoError(t, err)
		assert.False(t, allowed, "user without roles must be denied %s", action)
	}
}

func TestCan_GeneralPermission(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	user := createUser(t, db, "viewer@example.com", true)
	role := createRole(t, db, "viewer")
	assignRole(t, db, user.ID, role.ID)
	grantByName(t, db, role.ID, "view_documents")

	allowed, err := svc.Can(user.ID, ResourceDocuments, ActionView, nil)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Can(user.ID, ResourceDocuments, ActionEdit, nil)
	require.NoError(t, err)
	assert.False(t, allowed)
}

// A grant matches on the full (resource, action) pair; holding "view" on
// documents must not leak onto the roles resource.
func TestCan_ResourceActionPairMatching(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	user := createUser(t, db, "pair@example.com", true)
	role := createRole(t, db, "viewer")
	assignRole(t, db, user.ID, role.ID)
	grantByName(t, db, role.ID, "view_documents")

	allowed, err := svc.Can(user.ID, ResourceRoles, ActionView, nil)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = svc.Can(user.ID, ResourceRoles, ActionAssign, nil)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCan_OwnershipFastPath(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	owner := createUser(t, db, "owner@example.com", true)
	other := createUser(t, db, "other@example.com", true)
	cat := createCategory(t, db, "general")
	doc := createDocument(t, db, "mine", cat.ID, owner.ID)

	// owner holds no roles at all but keeps full access to their own upload
	for _, action := range []Action{ActionView, ActionEdit, ActionDelete} {
		allowed, err := svc.Can(owner.ID, ResourceDocuments, action, &doc.ID)
		require.NoError(t, err)
		assert.True(t, allowed, "owner must be allowed %s on own document", action)
	}

	allowed, err := svc.Can(other.ID, ResourceDocuments, ActionView, &doc.ID)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCan_DocumentOverride(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	owner := createUser(t, db, "owner@example.com", true)
	viewer := createUser(t, db, "viewer@example.com", true)
	role := createRole(t, db, "viewer")
	assignRole(t, db, viewer.ID, role.ID)
	grantByName(t, db, role.ID, "view_documents")

	cat := createCategory(t, db, "general")
	shared := createDocument(t, db, "shared", cat.ID, owner.ID)
	unshared := createDocument(t, db, "unshared", cat.ID, owner.ID)

	// the role may view everything but edit nothing
	allowed, err := svc.Can(viewer.ID, ResourceDocuments, ActionEdit, &shared.ID)
	require.NoError(t, err)
	assert.False(t, allowed)

	// a per-document update grant opens exactly that document
	grantOnDocument(t, db, shared.ID, role.ID, PermissionTypeUpdate)

	allowed, err = svc.Can(viewer.ID, ResourceDocuments, ActionEdit, &shared.ID)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Can(viewer.ID, ResourceDocuments, ActionEdit, &unshared.ID)
	require.NoError(t, err)
	assert.False(t, allowed)

	// the override grants update, not delete
	allowed, err = svc.Can(viewer.ID, ResourceDocuments, ActionDelete, &shared.ID)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCan_DocumentNotFound(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	user := createUser(t, db, "user@example.com", true)
	role := createRole(t, db, "editor")
	assignRole(t, db, user.ID, role.ID)
	grantByName(t, db, role.ID, "view_documents")

	missing := uint64(999)
	_, err := svc.Can(user.ID, ResourceDocuments, ActionView, &missing)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

// A soft-deleted document is indistinguishable from an absent one, even for
// its owner.
func TestCan_SoftDeletedDocument(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	owner := createUser(t, db, "owner@example.com", true)
	cat := createCategory(t, db, "general")
	doc := createDocument(t, db, "gone", cat.ID, owner.ID)

	require.NoError(t, db.Model(&models.Document{}).
		Where("id = ?", doc.ID).Update("is_active", false).Error)

	_, err := svc.Can(owner.ID, ResourceDocuments, ActionView, &doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

// Revoking a role permission takes effect on the next decision; revoking a
// document grant closes only the override.
func TestCan_RevocationTakesEffect(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	owner := createUser(t, db, "owner@example.com", true)
	user := createUser(t, db, "user@example.com", true)
	role := createRole(t, db, "viewer")
	assignRole(t, db, user.ID, role.ID)
	grantByName(t, db, role.ID, "view_documents")

	cat := createCategory(t, db, "general")
	doc := createDocument(t, db, "doc", cat.ID, owner.ID)
	grantOnDocument(t, db, doc.ID, role.ID, PermissionTypeUpdate)

	allowed, err := svc.Can(user.ID, ResourceDocuments, ActionEdit, &doc.ID)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, svc.RevokeDocumentPermission(doc.ID, role.ID, PermissionTypeUpdate))

	allowed, err = svc.Can(user.ID, ResourceDocuments, ActionEdit, &doc.ID)
	require.NoError(t, err)
	assert.False(t, allowed)

	// general view still holds until its grant is revoked too
	allowed, err = svc.Can(user.ID, ResourceDocuments, ActionView, &doc.ID)
	require.NoError(t, err)
	assert.True(t, allowed)

	var viewPerm models.Permission
	require.NoError(t, db.Where("name = ?", "view_documents").First(&viewPerm).Error)
	require.NoError(t, svc.RevokeRolePermission(role.ID, viewPerm.ID))

	allowed, err = svc.Can(user.ID, ResourceDocuments, ActionView, &doc.ID)
	require.NoError(t, err)
	assert.False(t, allowed)
}

// Permissions are purely additive across roles: holding a second, weaker role
// never removes what the first one grants.
func TestCan_AdditiveAcrossRoles(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	user := createUser(t, db, "multi@example.com", true)

	editor := createRole(t, db, "editor")
	grantByName(t, db, editor.ID, "view_documents")
	grantByName(t, db, editor.ID, "edit_documents")

	viewer := createRole(t, db, "viewer")
	grantByName(t, db, viewer.ID, "view_documents")

	assignRole(t, db, user.ID, editor.ID)
	assignRole(t, db, user.ID, viewer.ID)

	allowed, err := svc.Can(user.ID, ResourceDocuments, ActionEdit, nil)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestGetUserPermissions(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	user := createUser(t, db, "user@example.com", true)
	editor := createRole(t, db, "editor")
	viewer := createRole(t, db, "viewer")
	assignRole(t, db, user.ID, editor.ID)
	assignRole(t, db, user.ID, viewer.ID)

	// the same permission through two roles appears once
	grantByName(t, db, editor.ID, "view_documents")
	grantByName(t, db, viewer.ID, "view_documents")
	grantByName(t, db, editor.ID, "edit_documents")

	permissions, err := svc.GetUserPermissions(user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"view_documents", "edit_documents"}, permissions)
}

func TestGetUserRoles(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	user := createUser(t, db, "user@example.com", true)
	editor := createRole(t, db, "editor")
	viewer := createRole(t, db, "viewer")
	assignRole(t, db, user.ID, editor.ID)
	assignRole(t, db, user.ID, viewer.ID)

	roles, err := svc.GetUserRoles(user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
}
