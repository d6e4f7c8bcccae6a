// Package account provides the JSON endpoints for local account handling:
// registration, login, logout, the current-user profile and password changes.
package account

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/db/models"
	"github.com/docvault/docvault/internal/web/handler"
	"github.com/docvault/docvault/internal/web/session"
)

const (
	// Path is the base path for account routes.
	Path = handler.APIPath + "/auth"

	// SessionCookie is the name of the session cookie.
	SessionCookie = "session"
)

// Service is the account handler service.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	local     *auth.LocalProvider
	auth      *auth.Service
	validator *validator.Validate
}

// Handler is the account handler.
var Handler = Service{}

// Init initializes the account handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.local = auth.NewLocalProvider(db)
	s.auth = authService
	s.validator = validator.New()

	app.Post(Path+"/register", s.Register)
	app.Post(Path+"/login", s.Login)
	app.Post(Path+"/logout", s.Logout)
	app.Get(Path+"/me", s.Me)
	app.Post(Path+"/password", s.ChangePassword)
}

// UserView is the JSON projection of a user account.
type UserView struct {
	ID          uint64   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
	AuthSource  string   `json:"authSource"`
	Active      bool     `json:"active"`
	Roles       []string `json:"roles"`
}

// NewUserView builds a UserView from a user and its preloaded roles.
func NewUserView(user *models.User) UserView {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}

	return UserView{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		AuthSource:  string(user.AuthSource),
		Active:      user.Active,
		Roles:       roles,
	}
}

// Register creates a new local account. New accounts start without any role,
// so they hold no permissions until an administrator assigns one.
func (s *Service) Register(c *fiber.Ctx) error {
	var in struct {
		Email       string `json:"email"        validate:"required,email,max=255"`
		Password    string `json:"password"     validate:"required,min=8,max=128"`
		FirstName   string `json:"firstName"    validate:"required,max=100"`
		LastName    string `json:"lastName"     validate:"required,max=100"`
		PhoneNumber string `json:"phoneNumber"  validate:"max=50"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := s.local.CreateUser(in.Email, in.Password, in.FirstName, in.LastName, in.PhoneNumber)

	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email address is already registered"})
	case err != nil:
		log.Error().Err(err).Msg("failed to create user")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint64("user_id", user.ID).Str("email", user.Email).Msg("user registered")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": NewUserView(user)})
}

// Login authenticates against the local user database and opens a session.
func (s *Service) Login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := s.local.Authenticate(in.Email, in.Password)

	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is disabled"})
	case err != nil:
		log.Error().Err(err).Msg("login failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	if err = s.openSession(c, user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	log.Info().Uint64("user_id", user.ID).Str("email", user.Email).Msg("user logged in")

	return c.JSON(fiber.Map{"user": NewUserView(user)})
}

// Logout closes the session and clears the cookie.
func (s *Service) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies(SessionCookie)
	if sessionID != "" {
		sessionData := new(session.Data)
		if err := sessionData.Delete(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		MaxAge:   -1,
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me returns the profile of the logged-in user, together with the effective
// permission names its roles grant.
func (s *Service) Me(c *fiber.Ctx) error {
	userID := auth.CurrentUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	user, err := s.local.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to load user")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	permissions, err := s.auth.GetUserPermissions(userID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to load user permissions")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{
		"user":        NewUserView(user),
		"permissions": permissions,
	})
}

// ChangePassword sets a new password after checking the old one.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	userID := auth.CurrentUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var in struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err := s.local.ChangePassword(userID, in.OldPassword, in.NewPassword)

	switch {
	case errors.Is(err, auth.ErrInvalidOldPassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Old password is incorrect"})
	case errors.Is(err, auth.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	case err != nil:
		log.Error().Err(err).Uint64("user_id", userID).Msg("failed to change password")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}

// openSession creates a session for the user and sets the cookie.
func (s *Service) openSession(c *fiber.Ctx, user *models.User) error {
	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return err
	}

	userSession := &session.Data{User: *user}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return nil
}
