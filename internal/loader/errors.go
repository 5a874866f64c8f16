// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import "fmt"

const (
	msgNoTarget    = "Either file_path or url must be provided"
	msgBothTargets = "Only one of file_path or url should be provided"
)

// ConfigurationError reports an invalid loader configuration. It is returned
// by New before any backend call is made.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// NormalizationError reports a failed load: either the backend call failed
// or its outcome did not have the shape the requested format demands.
type NormalizationError struct {
	// Backend is the backend name used in the message prefix.
	Backend string
	Err     error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("Error parsing document with %s: %v", e.Backend, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}
