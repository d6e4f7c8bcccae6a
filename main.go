// Package main provides the entry point for the DocVault service. It starts a
// Fiber web server exposing a JSON API for uploading, organizing and sharing
// documents, with authorization decided by role permissions, per-document
// grants and document ownership. Data is persisted with gorm.
package main

import (
	"os"

	"github.com/docvault/docvault/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
