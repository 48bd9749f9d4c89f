// Package application defines what commands need from the CLI application.
//
// Commands accept the Application interface rather than the concrete App so
// they can be tested with Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func() (osiris.Client, error) { return testClient, nil },
//	}
//	cmd := feeds.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/osiris"
)

// Application provides the dependencies commands use. All methods must be
// safe for concurrent use.
type Application interface {
	// Client returns the shared osiris client, creating it on first use.
	Client() (osiris.Client, error)

	// Logger returns the configured logger.
	Logger() *zerolog.Logger

	// OutputFormat returns the --format value, or "" when unset.
	OutputFormat() string

	// APIKey returns the key required by the HTTP server when auth is enabled.
	APIKey() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
