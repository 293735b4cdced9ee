package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/parity"
	"github.com/agentstation/parity/pkg/streams"
	"github.com/agentstation/parity/pkg/waivers"
)

// Mock provides a mock implementation of Application for testing.
// A nil function field falls back to the embedded tables or a zero value.
type Mock struct {
	CatalogFunc      func() (*streams.Catalog, error)
	WaiversFunc      func() (waivers.Registry, error)
	CheckerFunc      func(opts ...parity.Option) (*parity.Checker, error)
	SettingsValue    Settings
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionValue     string
}

var _ Application = (*Mock)(nil)

// Catalog returns the mock catalog or the embedded one.
func (m *Mock) Catalog() (*streams.Catalog, error) {
	if m.CatalogFunc != nil {
		return m.CatalogFunc()
	}
	return streams.Default(), nil
}

// Waivers returns the mock registry or the embedded one.
func (m *Mock) Waivers() (waivers.Registry, error) {
	if m.WaiversFunc != nil {
		return m.WaiversFunc()
	}
	return waivers.Default(), nil
}

// Checker returns the mock checker or one built from Catalog and Waivers.
func (m *Mock) Checker(opts ...parity.Option) (*parity.Checker, error) {
	if m.CheckerFunc != nil {
		return m.CheckerFunc(opts...)
	}
	catalog, err := m.Catalog()
	if err != nil {
		return nil, err
	}
	registry, err := m.Waivers()
	if err != nil {
		return nil, err
	}
	return parity.New(append([]parity.Option{parity.WithCatalog(catalog), parity.WithWaivers(registry)}, opts...)...)
}

// Settings returns SettingsValue.
func (m *Mock) Settings() Settings {
	return m.SettingsValue
}

// Logger returns the mock logger or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the mock format or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns VersionValue or "test".
func (m *Mock) Version() string {
	if m.VersionValue != "" {
		return m.VersionValue
	}
	return "test"
}

// Commit returns a fixed test commit.
func (m *Mock) Commit() string { return "test-commit" }

// Date returns a fixed test date.
func (m *Mock) Date() string { return "test-date" }

// BuiltBy returns a fixed test builder.
func (m *Mock) BuiltBy() string { return "test" }
