// Package permission provides the JSON endpoints for the grant tables: the
// permission catalog, role-permission grants and per-document permission
// grants (sharing).
package permission

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/web/handler"
)

const (
	// Path is the base path for permission routes.
	Path = handler.APIPath + "/permissions"
)

// Service is the permission handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	auth      *auth.Service
	validator *validator.Validate
}

// Handler is the permission handler.
var Handler = Service{}

// Init initializes the permission handler. Every route, the per-document
// grant routes included, requires permission management rights.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.auth = authService
	s.validator = validator.New()

	manage := auth.RequirePermission(authService, auth.ResourcePermissions, auth.ActionManage)

	app.Get(Path, manage, s.Catalog)

	app.Get(Path+"/roles/:roleId", manage, s.RolePermissions)
	app.Post(Path+"/roles/:roleId", manage, s.GrantToRole)
	app.Delete(Path+"/roles/:roleId/:permissionId", manage, s.RevokeFromRole)

	app.Get(Path+"/documents/:id", manage, s.DocumentPermissions)
	app.Post(Path+"/documents/:id", manage, s.GrantOnDocument)
	app.Delete(Path+"/documents/:id/:roleId/:permType", manage, s.RevokeOnDocument)
}

// PermissionView is the JSON projection of a catalog entry.
type PermissionView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// Catalog returns the full permission catalog ordered by resource and action.
func (s *Service) Catalog(c *fiber.Ctx) error {
	permissions, err := s.auth.ListPermissions()
	if err != nil {
		log.Error().Err(err).Msg("failed to list permissions")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	views := make([]PermissionView, 0, len(permissions))
	for _, p := range permissions {
		views = append(views, PermissionView{
			ID:          p.ID,
			Name:        p.Name,
			Resource:    p.Resource,
			Action:      p.Action,
			Description: p.Description,
		})
	}

	return c.JSON(fiber.Map{"permissions": views})
}

// RolePermissions returns the full catalog annotated with whether the role
// holds each permission.
func (s *Service) RolePermissions(c *fiber.Ctx) error {
	roleID, err := parseUint(c.Params("roleId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role id"})
	}

	permissions, err := s.auth.ListRolePermissions(roleID)

	switch {
	case errors.Is(err, auth.ErrRoleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Role not found"})
	case err != nil:
		log.Error().Err(err).Uint("role_id", roleID).Msg("failed to list role permissions")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"permissions": permissions})
}

// GrantToRole grants one catalog permission to a role. Granting a permission
// the role already holds is a no-op success.
func (s *Service) GrantToRole(c *fiber.Ctx) error {
	roleID, err := parseUint(c.Params("roleId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role id"})
	}

	var in struct {
		PermissionID uint `json:"permissionId" validate:"required"`
	}

	if err = c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err = s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err = s.auth.GrantRolePermission(roleID, in.PermissionID, auth.CurrentUserID(c))

	switch {
	case errors.Is(err, auth.ErrRoleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Role not found"})
	case errors.Is(err, auth.ErrPermissionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Permission not found"})
	case err != nil:
		log.Error().Err(err).Uint("role_id", roleID).Uint("permission_id", in.PermissionID).
			Msg("failed to grant role permission")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint("role_id", roleID).Uint("permission_id", in.PermissionID).
		Uint64("granted_by", auth.CurrentUserID(c)).Msg("role permission granted")

	return c.JSON(fiber.Map{"message": "Permission granted"})
}

// RevokeFromRole removes one catalog permission from a role. Users holding the
// role lose the capability on their next request; revoking an absent grant is
// a no-op success.
func (s *Service) RevokeFromRole(c *fiber.Ctx) error {
	roleID, err := parseUint(c.Params("roleId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role id"})
	}

	permissionID, err := parseUint(c.Params("permissionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid permission id"})
	}

	if err = s.auth.RevokeRolePermission(roleID, permissionID); err != nil {
		log.Error().Err(err).Uint("role_id", roleID).Uint("permission_id", permissionID).
			Msg("failed to revoke role permission")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"message": "Permission revoked"})
}

// DocumentPermissions lists the per-document grants of one document.
func (s *Service) DocumentPermissions(c *fiber.Ctx) error {
	documentID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document id"})
	}

	grants, err := s.auth.ListDocumentPermissions(documentID)

	switch {
	case errors.Is(err, auth.ErrDocumentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	case err != nil:
		log.Error().Err(err).Uint64("document_id", documentID).Msg("failed to list document permissions")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"permissions": grants})
}

// GrantOnDocument grants a role one permission type on one document.
// Duplicate grants are a no-op success.
func (s *Service) GrantOnDocument(c *fiber.Ctx) error {
	documentID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document id"})
	}

	var in struct {
		RoleID         uint   `json:"roleId"         validate:"required"`
		PermissionType string `json:"permissionType" validate:"required,oneof=read update delete"`
	}

	if err = c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err = s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err = s.auth.GrantDocumentPermission(
		documentID,
		in.RoleID,
		auth.PermissionType(in.PermissionType),
		auth.CurrentUserID(c),
	)

	switch {
	case errors.Is(err, auth.ErrRoleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Role not found"})
	case errors.Is(err, auth.ErrDocumentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	case errors.Is(err, auth.ErrInvalidPermissionType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid permission type"})
	case err != nil:
		log.Error().Err(err).Uint64("document_id", documentID).Uint("role_id", in.RoleID).
			Msg("failed to grant document permission")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint64("document_id", documentID).Uint("role_id", in.RoleID).
		Str("permission_type", in.PermissionType).
		Uint64("granted_by", auth.CurrentUserID(c)).Msg("document permission granted")

	return c.JSON(fiber.Map{"message": "Document permission granted"})
}

// RevokeOnDocument removes a per-document grant. Revoking an absent grant is a
// no-op success.
func (s *Service) RevokeOnDocument(c *fiber.Ctx) error {
	documentID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document id"})
	}

	roleID, err := parseUint(c.Params("roleId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role id"})
	}

	permType := auth.PermissionType(c.Params("permType"))

	err = s.auth.RevokeDocumentPermission(documentID, roleID, permType)

	switch {
	case errors.Is(err, auth.ErrInvalidPermissionType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid permission type"})
	case err != nil:
		log.Error().Err(err).Uint64("document_id", documentID).Uint("role_id", roleID).
			Msg("failed to revoke document permission")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"message": "Document permission revoked"})
}

func parseUint(value string) (uint, error) {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	return uint(parsed), nil
}
