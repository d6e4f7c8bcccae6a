// Package daemon wires the application together: database, migrations, seed
// data, session store, file store and the web service.
package daemon

import (
	sessionmysql "github.com/gofiber/storage/mysql"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/db/dsn"
	"github.com/docvault/docvault/internal/db/models"
	gormlogger "github.com/docvault/docvault/internal/logger/adapter/gorm"
	"github.com/docvault/docvault/internal/storage"
	"github.com/docvault/docvault/internal/web"
	"github.com/docvault/docvault/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start runs the web service until a shutdown signal arrives.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(web.Addr(d.cfg))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	dbDriver := gormmysql.Open(dsn.Create(cfg)) // open db with gorm mysql driver

	db, err := gorm.Open(dbDriver, &gorm.Config{Logger: gormlogger.New()})
	if err != nil {
		panic("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.Permission{},
		&models.RolePermission{},
		&models.Category{},
		&models.Document{},
		&models.DocumentPermission{},
	); err != nil {
		panic("failed to migrate database")
	}

	seed(cfg, db)

	// Initialize fiber session store
	sessionStorage := sessionmysql.New(sessionmysql.Config{
		ConnectionURI: dsn.Create(cfg),
		Table:         "sessions",
	})

	session.Init(sessionStorage)

	store, err := storage.New(cfg.Storage.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Storage.UploadDir).Msg("failed to init file store")
		return nil
	}

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, store),
	}
}
