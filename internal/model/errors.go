package model

import "fmt"

// InvalidParameterError reports a configuration or simulation parameter
// that fails pre-run validation. Always fatal before an ensemble exists.
type InvalidParameterError struct {
	Param  string
	Reason string
}

// Error implements the error interface
func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
}
