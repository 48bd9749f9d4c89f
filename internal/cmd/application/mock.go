package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/osiris"
)

var _ Application = (*Mock)(nil)

// Mock is an Application for tests. Nil function fields return zero values.
type Mock struct {
	ClientFunc       func() (osiris.Client, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	APIKeyFunc       func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Client returns the result of ClientFunc or nil.
func (m *Mock) Client() (osiris.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return nil, nil
}

// Logger returns the result of LoggerFunc or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the result of OutputFormatFunc or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// APIKey returns the result of APIKeyFunc or "".
func (m *Mock) APIKey() string {
	if m.APIKeyFunc != nil {
		return m.APIKeyFunc()
	}
	return ""
}

// Version returns the result of VersionFunc or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns the result of CommitFunc or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns the result of DateFunc or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns the result of BuiltByFunc or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
