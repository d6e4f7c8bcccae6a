package auth

import "github.com/docvault/docvault/internal/db/models"

// Resource identifies a category of things a permission applies to.
// The set is closed; unknown resources are rejected at the boundary rather
// than silently producing always-deny rules.
type Resource string

const (
	// ResourceDocuments covers uploaded documents and their files.
	ResourceDocuments Resource = "documents"
	// ResourceRoles covers role administration and role assignment.
	ResourceRoles Resource = "roles"
	// ResourcePermissions covers the grant tables themselves.
	ResourcePermissions Resource = "permissions"
	// ResourceUsers covers user account administration.
	ResourceUsers Resource = "users"
)

// Action identifies what may be done with a resource. The set is closed.
type Action string

const (
	// ActionView allows reading a resource.
	ActionView Action = "view"
	// ActionUpload allows creating new documents.
	ActionUpload Action = "upload"
	// ActionEdit allows updating a resource.
	ActionEdit Action = "edit"
	// ActionDelete allows deleting a resource.
	ActionDelete Action = "delete"
	// ActionShare allows sharing a document with others.
	ActionShare Action = "share"
	// ActionAssign allows assigning roles to users.
	ActionAssign Action = "assign"
	// ActionManage allows full administration of a resource.
	ActionManage Action = "manage"
)

// PermissionType is the grant type of a per-document permission override.
type PermissionType string

const (
	// PermissionTypeRead allows viewing and downloading one specific document.
	PermissionTypeRead PermissionType = "read"
	// PermissionTypeUpdate allows editing one specific document.
	PermissionTypeUpdate PermissionType = "update"
	// PermissionTypeDelete allows deleting one specific document.
	PermissionTypeDelete PermissionType = "delete"
)

// Valid reports whether the resource is part of the closed set.
func (r Resource) Valid() bool {
	switch r {
	case ResourceDocuments, ResourceRoles, ResourcePermissions, ResourceUsers:
		return true
	}

	return false
}

// Valid reports whether the action is part of the closed set.
func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionUpload, ActionEdit, ActionDelete, ActionShare, ActionAssign, ActionManage:
		return true
	}

	return false
}

// Valid reports whether the permission type is one of read, update or delete.
func (t PermissionType) Valid() bool {
	switch t {
	case PermissionTypeRead, PermissionTypeUpdate, PermissionTypeDelete:
		return true
	}

	return false
}

// PermissionType maps a document-scoped action to its per-document grant type.
// Only view, edit and delete can be overridden on a single document; every
// other action returns false.
func (a Action) PermissionType() (PermissionType, bool) {
	switch a {
	case ActionView:
		return PermissionTypeRead, true
	case ActionEdit:
		return PermissionTypeUpdate, true
	case ActionDelete:
		return PermissionTypeDelete, true
	}

	return "", false
}

// Catalog is the fixed universe of permissions the system recognizes.
// It is seeded once at startup and treated as immutable reference data.
var Catalog = []models.Permission{
	{Name: "view_documents", Resource: string(ResourceDocuments), Action: string(ActionView), Description: "View and download documents"},
	{Name: "upload_documents", Resource: string(ResourceDocuments), Action: string(ActionUpload), Description: "Upload new documents"},
	{Name: "edit_documents", Resource: string(ResourceDocuments), Action: string(ActionEdit), Description: "Edit document metadata"},
	{Name: "delete_documents", Resource: string(ResourceDocuments), Action: string(ActionDelete), Description: "Delete documents"},
	{Name: "share_documents", Resource: string(ResourceDocuments), Action: string(ActionShare), Description: "Share documents with others"},
	{Name: "assign_roles", Resource: string(ResourceRoles), Action: string(ActionAssign), Description: "Assign roles to users"},
	{Name: "manage_roles", Resource: string(ResourceRoles), Action: string(ActionManage), Description: "Create and administer roles"},
	{Name: "manage_permissions", Resource: string(ResourcePermissions), Action: string(ActionManage), Description: "Grant and revoke permissions"},
	{Name: "manage_users", Resource: string(ResourceUsers), Action: string(ActionManage), Description: "Administer user accounts"},
}
