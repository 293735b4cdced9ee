// Package application provides the interface commands use to reach the
// parity application.
//
// Commands accept an Application rather than the concrete App so they can be
// tested against a Mock:
//
//	mock := &application.Mock{
//	    CatalogFunc: func() (*streams.Catalog, error) { return catalog, nil },
//	}
//	cmd := streams.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/parity"
	"github.com/agentstation/parity/pkg/streams"
	"github.com/agentstation/parity/pkg/waivers"
)

// Settings are the configured inputs of a check run.
type Settings struct {
	ExpectedDir      string
	OutputFile       string
	ExcludeStreams   []string
	FetchConcurrency int
	AllowMissing     bool
}

// Application is what commands need from the running application.
type Application interface {
	// Catalog returns the configured stream catalog, the embedded one by default.
	Catalog() (*streams.Catalog, error)

	// Waivers returns the configured waiver registry, the embedded one by default.
	Waivers() (waivers.Registry, error)

	// Checker creates a checker from the configured catalog and waivers,
	// followed by opts.
	Checker(opts ...parity.Option) (*parity.Checker, error)

	// Settings returns the configured check inputs.
	Settings() Settings

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, wide, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
