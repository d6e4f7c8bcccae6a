// Package auth provides authentication and authorization functionality for the application.
//
// This package implements a Role-Based Access Control (RBAC) system augmented
// with per-document permission overrides, plus the authentication providers
// that resolve the acting principal:
//   - Local database authentication with Argon2id password hashing
//   - OpenID Connect (OIDC) authentication with external identity providers
//
// # Authorization Model
//
// Permissions form a fixed catalog of (resource, action) pairs such as
// (documents, view) or (permissions, manage). Access flows through three
// additive paths, any of which is sufficient:
//   - General role permission: one of the user's roles holds a grant for the
//     (resource, action) pair via the role_permissions relation.
//   - Document-specific grant: for actions scoped to a single document, one of
//     the user's roles holds a grant for that exact document and permission
//     type via the document_permissions relation.
//   - Ownership: the uploader of a document keeps implicit full access to it
//     regardless of role grants.
//
// There is no explicit deny mechanism; permissions are purely additive.
// Every decision re-reads current grants, so a revocation takes effect on the
// next decision.
//
// # Permission Checking
//
// The Service type is the single decision engine consumed by every handler:
//   - Can: decide whether a user may perform an action on a resource,
//     optionally scoped to one document
//   - GetUserPermissions: all general permission names a user holds
//   - GetUserRoles: the roles assigned to a user
//
// # Grant Administration
//
// Service also carries the grant/revoke protocol for both grant tables:
//   - GrantRolePermission / RevokeRolePermission (idempotent)
//   - GrantDocumentPermission / RevokeDocumentPermission (idempotent)
//   - ListRolePermissions: catalog projection with a granted flag per row
//   - ListDocumentPermissions: grants on one document with role and grantor
//
// # Middleware
//
// Fiber middleware functions are provided for route protection:
//   - RequirePermission: protect routes requiring a general permission
//   - RequireDocumentPermission: protect document routes, applying the
//     not-found masking rules for soft-deleted or invisible documents
//
// Example usage:
//
//	// Initialize auth service
//	authService := auth.NewService(db)
//
//	// Check permission in handler
//	allowed, err := authService.Can(userID, auth.ResourceDocuments, auth.ActionUpload, nil)
//
//	// Protect route with middleware
//	app.Post("/api/permissions/grant",
//	    auth.RequirePermission(authService, auth.ResourcePermissions, auth.ActionManage),
//	    handler,
//	)
package auth
