package handler

const (
	// RootPath is the root path for route registration.
	RootPath = "/"

	// APIPath is the base path for all JSON API routes.
	APIPath = "/api"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"
)
