// Package qerr defines the error taxonomy raised by the query compiler.
package qerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is against these to classify a failure.
var (
	ErrAliasInUse          = errors.New("alias already in use")
	ErrUnparseableLambda   = errors.New("lambda source could not be parsed")
	ErrUnresolvedProperty  = errors.New("property chain could not be resolved")
	ErrUnsupportedOperator = errors.New("source operator has no SQL mapping")
	ErrInvalidPagination   = errors.New("offset requires a deterministic order")
	ErrProviderFailure     = errors.New("provider failed to execute plan")
)

// CompileError wraps a sentinel error with the source text of the lambda
// that triggered it, so diagnostics survive past the call that raised them.
type CompileError struct {
	Err    error
	Source string
}

func (e *CompileError) Error() string {
	if e.Source == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: in %q", e.Err.Error(), e.Source)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Wrap builds a CompileError carrying the offending lambda source.
func Wrap(err error, source string) error {
	if err == nil {
		return nil
	}
	return &CompileError{Err: err, Source: source}
}
