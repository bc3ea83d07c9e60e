// Package errors provides structured error handling for the kernel build
// pipeline.
//
// Every failure surfaced by the engine is an *Error carrying a Kind. Kinds are
// matched with the standard library: errors.Is(err, ErrMutation) reports
// whether err (or anything it wraps) is a mutation failure.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindSchemaValidation indicates a fragment or resolved config failed
	// required-field or type checks.
	KindSchemaValidation
	// KindDuplicatePlugin indicates a registry conflict.
	KindDuplicatePlugin
	// KindMergeConflict indicates an incompatible override during merge.
	KindMergeConflict
	// KindMutation indicates a plugin mutation function failed.
	KindMutation
	// KindResource indicates a file or external tool failure inside a plugin.
	KindResource
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrSchemaValidation = errors.New("schema validation failed")
	ErrDuplicatePlugin  = errors.New("duplicate plugin")
	ErrMergeConflict    = errors.New("merge conflict")
	ErrMutation         = errors.New("mutation failed")
	ErrResource         = errors.New("resource failure")
)

func (k ErrorKind) String() string {
	switch k {
	case KindSchemaValidation:
		return "schema_validation"
	case KindDuplicatePlugin:
		return "duplicate_plugin"
	case KindMergeConflict:
		return "merge_conflict"
	case KindMutation:
		return "mutation"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind stop a build before any mutation
// runs. Mutation and resource failures are only fatal for critical plugins,
// which the runner decides.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindSchemaValidation, KindDuplicatePlugin, KindMergeConflict:
		return true
	default:
		return false
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindSchemaValidation:
		return ErrSchemaValidation
	case KindDuplicatePlugin:
		return ErrDuplicatePlugin
	case KindMergeConflict:
		return ErrMergeConflict
	case KindMutation:
		return ErrMutation
	case KindResource:
		return ErrResource
	default:
		return nil
	}
}

// Error represents a structured error in the kernel pipeline.
type Error struct {
	// Op is the operation that failed (e.g., "config.Merge").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Plugin is the plugin identity, if applicable.
	Plugin string
	// Platform is the target platform, if applicable.
	Platform string
	// Err is the underlying error.
	Err error
	// StackTrace is set when the error was recovered from a panic.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s [%s]", e.Op, e.Kind)
	if e.Plugin != "" {
		msg += " plugin=" + e.Plugin
	}
	if e.Platform != "" {
		msg += " platform=" + e.Platform
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// New returns an *Error of the given kind stamped with the current time.
func New(op string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err, Timestamp: time.Now()}
}

// SchemaValidation wraps err as a schema validation failure.
func SchemaValidation(op string, err error) *Error {
	return New(op, KindSchemaValidation, err)
}

// MergeConflict wraps err as a merge conflict.
func MergeConflict(op string, err error) *Error {
	return New(op, KindMergeConflict, err)
}

// DuplicatePlugin reports a second registration of name.
func DuplicatePlugin(op, name string) *Error {
	e := New(op, KindDuplicatePlugin, fmt.Errorf("plugin %q already registered", name))
	e.Plugin = name
	return e
}

// Resource wraps a file or external tool failure. Plugins return these from
// mutation functions; the runner records them as mutation failures.
func Resource(op string, err error) *Error {
	return New(op, KindResource, err)
}

// Mutation wraps a failed mutation function for plugin on platform.
func Mutation(plugin, platform string, err error) *Error {
	e := New("plugin.Run", KindMutation, err)
	e.Plugin = plugin
	e.Platform = platform
	return e
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "plugin appicon ios").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}
