// Package user provides the JSON endpoints for user administration: listing
// accounts, profile updates, activation state and password resets.
package user

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/db/models"
	"github.com/docvault/docvault/internal/web/handler"
	"github.com/docvault/docvault/internal/web/handler/account"
)

const (
	// Path is the base path for user administration routes.
	Path = handler.APIPath + "/users"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25

	// MaxPageSize is the upper bound for the pageSize query parameter.
	MaxPageSize = 100
)

// Service is the user administration handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	local     *auth.LocalProvider
	validator *validator.Validate
}

// Handler is the user administration handler.
var Handler = Service{}

// Init initializes the user administration handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.local = auth.NewLocalProvider(db)
	s.validator = validator.New()

	manage := auth.RequirePermission(authService, auth.ResourceUsers, auth.ActionManage)

	app.Get(Path, manage, s.List)
	app.Put(Path+"/:id", manage, s.Update)
	app.Post(Path+"/:id/activate", manage, s.Activate)
	app.Post(Path+"/:id/deactivate", manage, s.Deactivate)
	app.Post(Path+"/:id/reset-password", manage, s.ResetPassword)
}

// List returns user accounts with optional source and active filters.
func (s *Service) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	var active *bool

	if raw := c.Query("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid active filter"})
		}

		active = &parsed
	}

	users, total, err := s.local.ListUsers(
		models.AuthSource(c.Query("source")),
		active,
		pageSize,
		(page-1)*pageSize,
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	views := make([]account.UserView, 0, len(users))
	for i := range users {
		views = append(views, account.NewUserView(&users[i]))
	}

	return c.JSON(fiber.Map{
		"users":    views,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// Update changes a local account's profile fields.
func (s *Service) Update(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var in struct {
		Email       string `json:"email"       validate:"required,email,max=255"`
		FirstName   string `json:"firstName"   validate:"required,max=100"`
		LastName    string `json:"lastName"    validate:"required,max=100"`
		PhoneNumber string `json:"phoneNumber" validate:"max=50"`
	}

	if err = c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err = s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err = s.local.UpdateUser(userID, in.Email, in.FirstName, in.LastName, in.PhoneNumber); err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to update user")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	user, err := s.local.GetUserByID(userID)

	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	case err != nil:
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to load user")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"user": account.NewUserView(user)})
}

// Activate re-enables an account.
func (s *Service) Activate(c *fiber.Ctx) error {
	return s.setActive(c, true)
}

// Deactivate disables an account. Every authorization decision denies the
// account from its next evaluation; open sessions are cut off by the auth
// middleware.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	return s.setActive(c, false)
}

func (s *Service) setActive(c *fiber.Ctx, active bool) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	if !active && userID == auth.CurrentUserID(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot deactivate your own account"})
	}

	if active {
		err = s.local.ActivateUser(userID)
	} else {
		err = s.local.DeactivateUser(userID)
	}

	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Bool("active", active).Msg("failed to change account state")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint64("user_id", userID).Bool("active", active).
		Uint64("changed_by", auth.CurrentUserID(c)).Msg("account state changed")

	return c.JSON(fiber.Map{"message": "Account updated"})
}

// ResetPassword sets a new password on a local account without the old one.
func (s *Service) ResetPassword(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	var in struct {
		NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
	}

	if err = c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err = s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err = s.local.ResetPassword(userID, in.NewPassword); err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to reset password")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint64("user_id", userID).
		Uint64("reset_by", auth.CurrentUserID(c)).Msg("password reset")

	return c.JSON(fiber.Map{"message": "Password reset"})
}
