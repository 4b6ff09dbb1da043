// ABOUTME: Error taxonomy for the search pipeline
// ABOUTME: Fatal errors surface through SearchError; advisory failures degrade instead
package core

import (
	"errors"
	"fmt"
)

// ErrStoreEmpty means the catalog has no usable embeddings
var ErrStoreEmpty = errors.New("embedding store is empty")

// DimensionMismatchError reports a query vector that does not fit the snapshot
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: snapshot has %d, query has %d", e.Expected, e.Got)
}

// EmbeddingUnavailableError wraps a failed call to the embedding service
type EmbeddingUnavailableError struct {
	Err error
}

func (e *EmbeddingUnavailableError) Error() string {
	return fmt.Sprintf("embedding service unavailable: %v", e.Err)
}

func (e *EmbeddingUnavailableError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a failed search for callers
type ErrorKind string

const (
	KindInvalidRequest    ErrorKind = "invalid_request"
	KindSearchUnavailable ErrorKind = "search_unavailable"
)

// SearchError is the only error type Handle returns
type SearchError struct {
	Kind ErrorKind
	Err  error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a SearchError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var se *SearchError
	return errors.As(err, &se) && se.Kind == kind
}

// Outcome records whether an advisory step used the model or its fallback
type Outcome int

const (
	OutcomeModel Outcome = iota
	OutcomeDegraded
)

func (o Outcome) String() string {
	if o == OutcomeDegraded {
		return "degraded"
	}
	return "model"
}
