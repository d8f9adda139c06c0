package dataset

import (
	"errors"
	"fmt"
)

// LoadError reports a dataset file that could not be read or parsed.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("dataset: load %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Message is the user-facing text shown in place of every dashboard title
// once loading has failed.
func (e *LoadError) Message() string {
	return fmt.Sprintf("Error: Could not load data file '%s'. Make sure all data files are in the same directory.", e.File)
}

func loadErr(file string, err error) *LoadError {
	return &LoadError{File: file, Err: err}
}

// AsLoadError extracts a *LoadError from err, if there is one.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
