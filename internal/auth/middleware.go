package auth

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/docvault/docvault/internal/web/session"
)

// CurrentUserID resolves the acting user from the session cookie.
// Returns 0 if the request carries no valid session.
func CurrentUserID(c *fiber.Ctx) uint64 {
	sessionID := c.Cookies("session")
	if sessionID == "" {
		return 0
	}

	sessionData := new(session.Data)
	if err := sessionData.Read(sessionID); err != nil {
		return 0
	}

	return sessionData.User.ID
}

// RequirePermission creates Fiber middleware that requires a general
// permission for the given (resource, action) pair.
func RequirePermission(authService *Service, resource Resource, action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := CurrentUserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		allowed, err := authService.Can(userID, resource, action, nil)

		switch {
		case errors.Is(err, ErrUnauthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		case err != nil:
			log.Error().Err(err).Uint64("user_id", userID).
				Str("resource", string(resource)).Str("action", string(action)).
				Msg("Failed to check permission")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		case !allowed:
			log.Warn().Uint64("user_id", userID).
				Str("resource", string(resource)).Str("action", string(action)).
				Msg("User lacks required permission")

			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
		}

		return c.Next()
	}
}

// RequireDocumentPermission creates Fiber middleware guarding routes that act
// on one specific document (the ":id" route parameter). It evaluates the full
// decision including per-document overrides and the ownership fast-path.
//
// Denials are masked: a soft-deleted or absent document reports not found, as
// does any deny for a user who cannot even view the document, so that a deny
// never reveals the document's existence. A deny for a user who can view but
// not modify reports forbidden.
func RequireDocumentPermission(authService *Service, action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := CurrentUserID(c)
		if userID == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		documentID, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid document id"})
		}

		allowed, err := authService.Can(userID, ResourceDocuments, action, &documentID)

		switch {
		case errors.Is(err, ErrDocumentNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
		case errors.Is(err, ErrUnauthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		case err != nil:
			log.Error().Err(err).Uint64("user_id", userID).Uint64("document_id", documentID).
				Str("action", string(action)).
				Msg("Failed to check document permission")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		case allowed:
			return c.Next()
		}

		if action != ActionView {
			canView, viewErr := authService.Can(userID, ResourceDocuments, ActionView, &documentID)
			if viewErr == nil && canView {
				log.Warn().Uint64("user_id", userID).Uint64("document_id", documentID).
					Str("action", string(action)).
					Msg("User lacks required document permission")

				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient document permissions"})
			}
		}

		// No viewing rights at all: do not reveal that the document exists.
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
	}
}
