package auth

import "errors"

var (
	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured OIDC provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrInvalidOldPassword is returned when the provided old password does not match the user's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrEmailExists is returned when attempting to create a user with an email that already exists.
	ErrEmailExists = errors.New("user with email already exists")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthenticated is returned by the decision engine when the acting
	// principal is unknown or inactive. Every decision for such a principal is deny.
	ErrUnauthenticated = errors.New("unauthenticated principal")

	// ErrDocumentNotFound is returned for decisions and grants targeting a
	// document that is absent or soft-deleted. Soft-deleted documents must be
	// indistinguishable from missing ones.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrRoleNotFound is returned for grants targeting an unknown role.
	ErrRoleNotFound = errors.New("role not found")

	// ErrPermissionNotFound is returned for grants targeting a permission
	// outside the seeded catalog.
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrInvalidResource is returned when a decision names a resource outside the closed set.
	ErrInvalidResource = errors.New("unknown resource")

	// ErrInvalidAction is returned when a decision names an action outside the closed set.
	ErrInvalidAction = errors.New("unknown action")

	// ErrInvalidPermissionType is returned when a document grant names a type
	// other than read, update or delete.
	ErrInvalidPermissionType = errors.New("invalid document permission type")
)
