package services

import "fmt"

// ValidationError is returned when required caller input is missing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConfigError is returned when provider credentials are not configured. It is
// fatal for the request only, never for the process.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

// UpstreamProtocolError is returned when the provider response cannot be
// parsed.
type UpstreamProtocolError struct {
	Err error
}

func (e *UpstreamProtocolError) Error() string {
	return fmt.Sprintf("unparsable provider response: %v", e.Err)
}

func (e *UpstreamProtocolError) Unwrap() error { return e.Err }

// UpstreamRejectionError is returned when the provider explicitly rejects a
// push request. No transaction record exists for a rejected initiation.
type UpstreamRejectionError struct {
	Message string
}

func (e *UpstreamRejectionError) Error() string { return e.Message }
