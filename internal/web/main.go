// Package web implements the HTTP service: the Fiber application, the JSON
// API routes and the session-backed authentication middleware.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/auth"
	"github.com/docvault/docvault/internal/config"
	fiberlogger "github.com/docvault/docvault/internal/logger/adapter/fiber"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/web/handler"
	"github.com/docvault/docvault/internal/web/handler/account"
	oidchandler "github.com/docvault/docvault/internal/web/handler/auth/oidc"
	"github.com/docvault/docvault/internal/web/handler/document"
	"github.com/docvault/docvault/internal/web/handler/permission"
	"github.com/docvault/docvault/internal/web/handler/role"
	"github.com/docvault/docvault/internal/web/handler/user"
)

// HealthPath is the liveness endpoint used by load balancers.
const HealthPath = handler.APIPath + "/health"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and shuts the service down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so the health
	// endpoint returns fail and the LB drains this instance.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, store *storage.Store) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	if store == nil {
		panic("store cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "DocVault",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      int(cfg.Storage.MaxUploadSize) + 1<<20, // headroom for multipart framing
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: HealthPath,
	}))

	// session auth middleware
	app.Use(AuthMiddleware)

	authService := auth.NewService(db)

	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
	}
	service.alive.Store(true)

	// init handlers (they register their own routes with permission checks)
	account.Handler.Init(app, cfg, db, authService)
	oidchandler.Handler.Init(app, cfg, db)
	document.Handler.Init(app, cfg, db, authService, store)
	role.Handler.Init(app, cfg, db, authService)
	permission.Handler.Init(app, cfg, db, authService)
	user.Handler.Init(app, cfg, db, authService)

	app.Get(HealthPath, service.health)

	return service
}

// health reports liveness. During graceful shutdown it returns 503 so load
// balancers stop routing here before the listener closes.
func (s *Service) health(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "shutting down"})
	}

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}

	if err != nil {
		log.Error().Err(err).Msg("database ping failed")

		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "database unavailable"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// Addr builds the listen address from the configured port.
func Addr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Webserver.Port)
}
