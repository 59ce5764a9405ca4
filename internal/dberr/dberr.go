// Package dberr defines the structured error taxonomy shared across the
// binder, planner, optimizer, executor, and storage layers (§7 of the
// specification). Each layer wraps lower-layer errors with fmt.Errorf's
// %w verb, matching the teacher's pervasive wrap-and-annotate error
// style; this package adds typed Kind values on top so the engine driver
// can make abort/continue decisions generically instead of type-switching.
package dberr

import (
	"errors"
	"fmt"
)

// Layer identifies which stage of the pipeline produced an error.
type Layer uint8

const (
	LayerParse Layer = iota
	LayerBind
	LayerPlan
	LayerOptimize
	LayerExec
	LayerStorage
)

func (l Layer) String() string {
	switch l {
	case LayerParse:
		return "parse"
	case LayerBind:
		return "bind"
	case LayerPlan:
		return "plan"
	case LayerOptimize:
		return "optimize"
	case LayerExec:
		return "exec"
	case LayerStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Kind is a specific error variant within a layer.
type Kind string

const (
	// Bind layer.
	UnknownTable        Kind = "UnknownTable"
	UnknownColumn        Kind = "UnknownColumn"
	AmbiguousColumn       Kind = "AmbiguousColumn"
	ColumnCountMismatch   Kind = "ColumnCountMismatch"
	TypeMismatchUnary     Kind = "TypeMismatch.Unary"
	TypeMismatchBinary    Kind = "TypeMismatch.Binary"
	EmptyProject          Kind = "EmptyProject"
	NotImplemented        Kind = "NotImplemented"

	// Plan layer.
	InvalidPlan       Kind = "InvalidPlan"
	UnsupportedFeature Kind = "UnsupportedFeature"

	// Optimize layer (InvalidPlan is shared with Plan).
	UnsupportedRule Kind = "UnsupportedRule"
	CatalogError    Kind = "CatalogError"

	// Execution layer.
	TableNotFound              Kind = "TableNotFound"
	IndexNotFound               Kind = "IndexNotFound"
	ColumnOutOfBounds           Kind = "ColumnOutOfBounds"
	ExecutorInvariantViolation  Kind = "ExecutorInvariantViolation"
	DivisionByZero              Kind = "DivisionByZero"
	TypeError                   Kind = "TypeError"

	// Storage layer.
	PageNotFound    Kind = "PageNotFound"
	InvalidRowId    Kind = "InvalidRowId"
	PageFull        Kind = "PageFull"
	CorruptedPage   Kind = "CorruptedPage"
	IndexCorrupted  Kind = "IndexCorrupted"
	IndexViolation  Kind = "IndexViolation"
	Io              Kind = "Io"

	// Table/index name collisions (catalog), surfaced at the bind/plan
	// boundary for DDL.
	TableExists Kind = "TableExists"
	IndexExists Kind = "IndexExists"
)

// Error is the structured error value returned by every layer.
type Error struct {
	Layer   Layer
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Layer, e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Layer, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New creates an unwrapped structured error.
func New(layer Layer, kind Kind, format string, args ...any) *Error {
	return &Error{Layer: layer, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a structured error that wraps a lower-layer cause.
func Wrap(layer Layer, kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Layer: layer, Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: cause}
}

// Is reports whether err is a *Error with the given Kind, unwrapping
// through any wrap chain the way errors.Is does for sentinels.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if errors.As(err, &e) {
			if e.Kind == kind {
				return true
			}
			err = e.Wrapped
			continue
		}
		return false
	}
	return false
}

// OfLayer reports whether err is a *Error produced directly by layer.
func OfLayer(err error, layer Layer) bool {
	var e *Error
	return errors.As(err, &e) && e.Layer == layer
}
