// Package role provides the JSON endpoints for role administration: the role
// listing with user counts, the assignment listing, assigning or removing
// roles on users, and creating a new account with a role in one operation.
package role

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/db/controller/role"
	"github.com/docvault/docvault/internal/web/handler"
	"github.com/docvault/docvault/internal/web/handler/account"
)

const (
	// Path is the base path for role routes.
	Path = handler.APIPath + "/roles"
)

// Service is the role handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	local     *auth.LocalProvider
	validator *validator.Validate
}

// Handler is the role handler.
var Handler = Service{}

// Init initializes the role handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.local = auth.NewLocalProvider(db)
	s.validator = validator.New()

	app.Get(Path,
		auth.RequirePermission(authService, auth.ResourceRoles, auth.ActionAssign),
		s.List,
	)
	app.Get(Path+"/assignments",
		auth.RequirePermission(authService, auth.ResourceRoles, auth.ActionAssign),
		s.Assignments,
	)
	app.Post(Path+"/assign",
		auth.RequirePermission(authService, auth.ResourceRoles, auth.ActionAssign),
		s.Assign,
	)
	app.Post(Path+"/unassign",
		auth.RequirePermission(authService, auth.ResourceRoles, auth.ActionAssign),
		s.Unassign,
	)
	app.Post(Path+"/create",
		auth.RequirePermission(authService, auth.ResourceRoles, auth.ActionAssign),
		s.CreateUser,
	)
	app.Post(Path,
		auth.RequirePermission(authService, auth.ResourceRoles, auth.ActionManage),
		s.Create,
	)
}

// List returns all roles with the number of users holding each.
func (s *Service) List(c *fiber.Ctx) error {
	roles, err := role.List(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list roles")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"roles": roles})
}

// Assignments returns every active user together with one of their roles, most
// recently assigned first.
func (s *Service) Assignments(c *fiber.Ctx) error {
	assignments, err := role.ListAssignments(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list role assignments")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"assignments": assignments})
}

// Assign gives a user a role. Assigning a role the user already holds is a
// no-op success.
func (s *Service) Assign(c *fiber.Ctx) error {
	var in struct {
		UserID uint64 `json:"userId" validate:"required"`
		RoleID uint   `json:"roleId" validate:"required"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := role.Assign(s.db, in.UserID, in.RoleID, auth.CurrentUserID(c))

	switch {
	case errors.Is(err, role.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case errors.Is(err, role.ErrRoleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Role not found"})
	case err != nil:
		log.Error().Err(err).Uint64("user_id", in.UserID).Uint("role_id", in.RoleID).Msg("failed to assign role")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint64("user_id", in.UserID).Uint("role_id", in.RoleID).
		Uint64("assigned_by", auth.CurrentUserID(c)).Msg("role assigned")

	return c.JSON(fiber.Map{"message": "Role assigned"})
}

// Unassign removes a role from a user. Removing a role the user does not hold
// is a no-op success.
func (s *Service) Unassign(c *fiber.Ctx) error {
	var in struct {
		UserID uint64 `json:"userId" validate:"required"`
		RoleID uint   `json:"roleId" validate:"required"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := role.Unassign(s.db, in.UserID, in.RoleID); err != nil {
		log.Error().Err(err).Uint64("user_id", in.UserID).Uint("role_id", in.RoleID).Msg("failed to unassign role")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"message": "Role removed"})
}

// CreateUser creates a local account and assigns it a role in one operation.
// A duplicate email is a conflict; the role is validated before the account is
// created so an unknown role leaves no partial state behind.
func (s *Service) CreateUser(c *fiber.Ctx) error {
	var in struct {
		Email       string `json:"email"       validate:"required,email"`
		Password    string `json:"password"    validate:"required,min=8,max=128"`
		FirstName   string `json:"firstName"   validate:"required,max=100"`
		LastName    string `json:"lastName"    validate:"required,max=100"`
		PhoneNumber string `json:"phoneNumber" validate:"max=32"`
		RoleID      uint   `json:"roleId"      validate:"required"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if _, err := role.GetByID(s.db, in.RoleID); err != nil {
		if errors.Is(err, role.ErrRoleNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Role not found"})
		}

		log.Error().Err(err).Uint("role_id", in.RoleID).Msg("failed to load role")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	user, err := s.local.CreateUser(in.Email, in.Password, in.FirstName, in.LastName, in.PhoneNumber)

	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already registered"})
	case err != nil:
		log.Error().Err(err).Str("email", in.Email).Msg("failed to create user")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	if err = role.Assign(s.db, user.ID, in.RoleID, auth.CurrentUserID(c)); err != nil {
		log.Error().Err(err).Uint64("user_id", user.ID).Uint("role_id", in.RoleID).Msg("failed to assign role")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	user, err = s.local.GetUserByID(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to reload user")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint64("user_id", user.ID).Uint("role_id", in.RoleID).
		Uint64("created_by", auth.CurrentUserID(c)).Msg("user created with role")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": account.NewUserView(user)})
}

// Create adds a new role. The new role starts without any permissions.
func (s *Service) Create(c *fiber.Ctx) error {
	var in struct {
		Name        string `json:"name"        validate:"required,min=2,max=100"`
		Description string `json:"description" validate:"max=255"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	created, err := role.Create(s.db, in.Name, in.Description)

	switch {
	case errors.Is(err, role.ErrRoleAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Role already exists"})
	case err != nil:
		log.Error().Err(err).Str("name", in.Name).Msg("failed to create role")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint("role_id", created.ID).Str("name", created.Name).Msg("role created")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"role": fiber.Map{
		"id":          created.ID,
		"name":        created.Name,
		"description": created.Description,
	}})
}
