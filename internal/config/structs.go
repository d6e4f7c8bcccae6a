package config

import (
	"time"

	"github.com/docvault/docvault/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Storage   Storage
	OIDC      OIDC
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath           bool    // use clean path middleware to allow multi slash requests
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // encryption key for cookies
	Session             Session // session settings
}

// Storage holds file store settings for uploaded documents.
type Storage struct {
	UploadDir     string // directory document files are stored under
	MaxUploadSize int64  // maximum accepted upload size in bytes
}

// OIDC holds the OpenID Connect single sign-on settings.
type OIDC struct {
	Enabled      bool
	ProviderURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	DefaultRole  string // role name assigned to users provisioned on first login
}
