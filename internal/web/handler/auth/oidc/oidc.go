package oidc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/web/handler"
	"github.com/docvault/docvault/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.APIPath + "/auth/oidc/login"

	// CallbackPath is the path for the OIDC callback.
	CallbackPath = handler.APIPath + "/auth/oidc/callback"

	// LogoutPath is the path for OIDC logout.
	LogoutPath = handler.APIPath + "/auth/oidc/logout"

	// stateTTL is how long a state token stays valid.
	stateTTL = 5 * time.Minute
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg          *config.Config
	db           *gorm.DB
	oidcProvider *auth.OIDCProvider

	stateMu    sync.Mutex
	stateStore map[string]time.Time // in-memory state store, per instance
}

// Handler is the OIDC handler.
var Handler = Service{
	stateStore: make(map[string]time.Time),
}

// Init initializes the OIDC handler. When OIDC is disabled or the provider
// cannot be reached the routes are simply not registered.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db

	if !cfg.OIDC.Enabled {
		return
	}

	oidcConfig := auth.OIDCConfig{
		Enabled:      cfg.OIDC.Enabled,
		ProviderURL:  cfg.OIDC.ProviderURL,
		ClientID:     cfg.OIDC.ClientID,
		ClientSecret: cfg.OIDC.ClientSecret,
		RedirectURL:  cfg.OIDC.RedirectURL,
		Scopes:       cfg.OIDC.Scopes,
		DefaultRole:  cfg.OIDC.DefaultRole,
	}

	oidcProvider, err := auth.NewOIDCProvider(context.Background(), &oidcConfig, db)
	if err != nil {
		if errors.Is(err, auth.ErrOIDCDisabled) {
			log.Info().Msg("OIDC authentication is disabled by configuration")
		} else {
			log.Warn().Err(err).Msg("Failed to initialize OIDC provider - OIDC authentication will be disabled")
		}

		return
	}

	s.oidcProvider = oidcProvider

	log.Info().Msg("OIDC authentication provider initialized")

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)
	app.Get(LogoutPath, s.Logout)

	go s.cleanupStates()
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	if s.oidcProvider == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "OIDC authentication is not available"})
	}

	// state token for CSRF protection
	state, err := auth.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate state token")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	s.stateMu.Lock()
	s.stateStore[state] = time.Now().Add(stateTTL)
	s.stateMu.Unlock()

	return c.Redirect(s.oidcProvider.GetAuthURL(state))
}

// Callback handles the OIDC provider callback. Unknown subjects are
// provisioned as new accounts holding the configured default role.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.oidcProvider == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "OIDC authentication is not available"})
	}

	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		log.Error().Msg("Missing code or state in OIDC callback")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid callback parameters"})
	}

	if !s.consumeState(state) {
		log.Error().Msg("Invalid or expired state token")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid state token"})
	}

	authenticatedUser, created, err := s.oidcProvider.HandleCallback(context.Background(), code)
	if err != nil {
		log.Error().Err(err).Msg("OIDC authentication failed")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication failed"})
	}

	sessionID, err := session.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate session ID")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	userSession := &session.Data{User: *authenticatedUser}
	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("Failed to write session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "session",
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   !s.cfg.DevMode,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	log.Info().
		Str("email", authenticatedUser.Email).
		Bool("provisioned", created).
		Msg("User logged in via OIDC")

	return c.Redirect(handler.RootPath)
}

// Logout clears the session and redirects to the provider's logout endpoint
// when it advertises one.
func (s *Service) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies("session")
	if sessionID != "" {
		sessionData := new(session.Data)
		if err := sessionData.Delete(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	c.ClearCookie("session")

	if s.oidcProvider != nil {
		if logoutURL := s.oidcProvider.GetLogoutURL("", s.cfg.Webserver.URL); logoutURL != "" {
			return c.Redirect(logoutURL)
		}
	}

	return c.Redirect(handler.RootPath)
}

// consumeState validates a state token and removes it so it cannot be replayed.
func (s *Service) consumeState(state string) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	expiration, exists := s.stateStore[state]
	if !exists {
		return false
	}

	delete(s.stateStore, state)

	return time.Now().Before(expiration)
}

// cleanupStates drops expired state tokens.
func (s *Service) cleanupStates() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		s.stateMu.Lock()
		for state, expiration := range s.stateStore {
			if now.After(expiration) {
				delete(s.stateStore, state)
			}
		}
		s.stateMu.Unlock()
	}
}
