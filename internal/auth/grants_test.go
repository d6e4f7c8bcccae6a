package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/db/models"
)

func TestGrantRolePermission_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	admin := createUser(t, db, "admin@example.com", true)
	role := createRole(t, db, "viewer")

	var perm models.Permission
	require.NoError(t, db.Where("name = ?", "view_documents").First(&perm).Error)

	require.NoError(t, svc.GrantRolePermission(role.ID, perm.ID, admin.ID))
	require.NoError(t, svc.GrantRolePermission(role.ID, perm.ID, admin.ID))

	var count int64
	require.NoError(t, db.Model(&models.RolePermission{}).
		Where("role_id = ? AND permission_id = ?", role.ID, perm.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGrantRolePermission_UnknownTargets(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	role := createRole(t, db, "viewer")

	var perm models.Permission
	require.NoError(t, db.Where("name = ?", "view_documents").First(&perm).Error)

	err := svc.GrantRolePermission(999, perm.ID, 1)
	assert.ErrorIs(t, err, ErrRoleNotFound)

	err = svc.GrantRolePermission(role.ID, 999, 1)
	assert.ErrorIs(t, err, ErrPermissionNotFound)
}

func TestRevokeRolePermission_AbsentGrantIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	role := createRole(t, db, "viewer")

	assert.NoError(t, svc.RevokeRolePermission(role.ID, 42))
}

func TestGrantDocumentPermission(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	owner := createUser(t, db, "owner@example.com", true)
	role := createRole(t, db, "viewer")
	cat := createCategory(t, db, "general")
	doc := createDocument(t, db, "doc", cat.ID, owner.ID)

	require.NoError(t, svc.GrantDocumentPermission(doc.ID, role.ID, PermissionTypeRead, owner.ID))
	// duplicate grant is a no-op
	require.NoError(t, svc.GrantDocumentPermission(doc.ID, role.ID, PermissionTypeRead, owner.ID))

	var count int64
	require.NoError(t, db.Model(&models.DocumentPermission{}).
		Where("document_id = ?", doc.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	err := svc.GrantDocumentPermission(doc.ID, role.ID, "write", owner.ID)
	assert.ErrorIs(t, err, ErrInvalidPermissionType)

	err = svc.GrantDocumentPermission(doc.ID, 999, PermissionTypeRead, owner.ID)
	assert.ErrorIs(t, err, ErrRoleNotFound)

	err = svc.GrantDocumentPermission(999, role.ID, PermissionTypeRead, owner.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestGrantDocumentPermission_SoftDeletedDocument(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	owner := createUser(t, db, "owner@example.com", true)
	role := createRole(t, db, "viewer")
	cat := createCategory(t, db, "general")
	doc := createDocument(t, db, "doc", cat.ID, owner.ID)

	require.NoError(t, db.Model(&models.Document{}).
		Where("id = ?", doc.ID).Update("is_active", false).Error)

	err := svc.GrantDocumentPermission(doc.ID, role.ID, PermissionTypeRead, owner.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestRevokeDocumentPermission_AbsentGrantIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	assert.NoError(t, svc.RevokeDocumentPermission(1, 1, PermissionTypeRead))
	assert.ErrorIs(t, svc.RevokeDocumentPermission(1, 1, "bogus"), ErrInvalidPermissionType)
}

func TestListPermissions_Ordering(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	permissions, err := svc.ListPermissions()
	require.NoError(t, err)
	require.Len(t, permissions, len(Catalog))

	for i := 1; i < len(permissions); i++ {
		prev, cur := permissions[i-1], permissions[i]
		ordered := prev.Resource < cur.Resource ||
			(prev.Resource == cur.Resource && prev.Action <= cur.Action)
		assert.True(t, ordered, "catalog must be ordered by resource then action")
	}
}

func TestListRolePermissions(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	role := createRole(t, db, "viewer")
	grantByName(t, db, role.ID, "view_documents")

	views, err := svc.ListRolePermissions(role.ID)
	require.NoError(t, err)
	require.Len(t, views, len(Catalog), "the full catalog is listed, granted or not")

	granted := 0

	for _, v := range views {
		if v.Granted {
			granted++

			assert.Equal(t, "view_documents", v.Name)
		}
	}

	assert.Equal(t, 1, granted)

	_, err = svc.ListRolePermissions(999)
	assert.ErrorIs(t, err, ErrRoleNotFound)
}

func TestListDocumentPermissions(t *testing.T) {
	db := setupTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	owner := &models.User{
		Email:      "owner@example.com",
		Active:     true,
		FirstName:  "Alice",
		LastName:   "Smith",
		AuthSource: models.AuthSourceLocal,
	}
	require.NoError(t, db.Create(owner).Error)

	role := createRole(t, db, "viewer")
	cat := createCategory(t, db, "general")
	doc := createDocument(t, db, "doc", cat.ID, owner.ID)

	require.NoError(t, svc.GrantDocumentPermission(doc.ID, role.ID, PermissionTypeRead, owner.ID))

	views, err := svc.ListDocumentPermissions(doc.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Equal(t, "read", views[0].PermissionType)
	assert.Equal(t, role.ID, views[0].RoleID)
	assert.Equal(t, "viewer", views[0].RoleName)
	assert.Equal(t, "Alice Smith", views[0].GrantedByName)

	_, err = svc.ListDocumentPermissions(999)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
