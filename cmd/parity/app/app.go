// Package app wires configuration, logging and the parity checker together
// for the parity CLI.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/parity"
	"github.com/agentstation/parity/cmd/application"
	"github.com/agentstation/parity/pkg/errors"
	"github.com/agentstation/parity/pkg/streams"
	"github.com/agentstation/parity/pkg/waivers"
)

// App represents the parity application with all its dependencies.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Catalog and waivers are loaded once, on first use.
	mu      sync.Mutex
	catalog *streams.Catalog
	waivers waivers.Registry
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "load config", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Settings returns the configured check inputs.
func (a *App) Settings() application.Settings {
	return application.Settings{
		ExpectedDir:      a.config.ExpectedDir,
		OutputFile:       a.config.OutputFile,
		ExcludeStreams:   a.config.ExcludeStreams,
		FetchConcurrency: a.config.FetchConcurrency,
		AllowMissing:     a.config.AllowMissing,
	}
}

// Catalog returns the stream catalog from streams_file, or the embedded one.
func (a *App) Catalog() (*streams.Catalog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.catalog != nil {
		return a.catalog, nil
	}
	if a.config.StreamsFile == "" {
		a.catalog = streams.Default()
		return a.catalog, nil
	}

	catalog, err := streams.LoadFile(a.config.StreamsFile)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("path", a.config.StreamsFile).Int("streams", len(catalog.Names())).Msg("Loaded stream catalog")
	a.catalog = catalog
	return catalog, nil
}

// Waivers returns the waiver registry from waivers_file, or the embedded one.
func (a *App) Waivers() (waivers.Registry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.waivers != nil {
		return a.waivers, nil
	}
	if a.config.WaiversFile == "" {
		a.waivers = waivers.Default()
		return a.waivers, nil
	}

	registry, err := waivers.LoadFile(a.config.WaiversFile)
	if err != nil {
		return nil, err
	}
	a.logger.Debug().Str("path", a.config.WaiversFile).Int("waivers", len(registry.Entries())).Msg("Loaded waiver table")
	a.waivers = registry
	return registry, nil
}

// Checker creates a checker from the configured catalog, waivers, exclusions
// and fetch concurrency. Later options override earlier ones.
func (a *App) Checker(opts ...parity.Option) (*parity.Checker, error) {
	catalog, err := a.Catalog()
	if err != nil {
		return nil, err
	}
	registry, err := a.Waivers()
	if err != nil {
		return nil, err
	}

	base := []parity.Option{
		parity.WithCatalog(catalog),
		parity.WithWaivers(registry),
		parity.WithExcluded(a.config.ExcludeStreams...),
	}
	if a.config.FetchConcurrency > 0 {
		base = append(base, parity.WithFetchConcurrency(a.config.FetchConcurrency))
	}
	return parity.New(append(base, opts...)...)
}

// Shutdown performs graceful shutdown of the application.
func (a *App) Shutdown(_ context.Context) error {
	a.logger.Debug().Msg("Shutting down")
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return &errors.ValidationError{Field: "config", Message: "cannot be nil"}
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
