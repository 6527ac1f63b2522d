// Package tmerrors defines the typed error kinds TimeMachine's engine
// returns instead of raw os/io errors. Every exported engine operation
// returns one of these (wrapped with context) on failure, never a bare
// string or a panic.
package tmerrors

import (
	"errors"
	"fmt"
)

// Kind identifies which of the documented failure modes an Error represents.
type Kind string

const (
	KindNoSuchDirectory    Kind = "no_such_directory"
	KindNotInitialized     Kind = "not_initialized"
	KindAlreadyInitialized Kind = "already_initialized"
	KindNotFound           Kind = "not_found"
	KindCorrupt            Kind = "corrupt"
	KindUncommittedChanges Kind = "uncommitted_changes"
	KindMissingContent     Kind = "missing_content"
	KindIoError            Kind = "io_error"
	KindInvalidPath        Kind = "invalid_path"
	KindInsufficientSpace  Kind = "insufficient_space"
)

// Error is the concrete type behind every error the engine returns.
type Error struct {
	Kind   Kind
	Entity string // "manifest", "content", "directory", ...
	ID     string // snapshot id or content hash, when applicable
	Path   string
	Cause  error

	// Added, Removed, and Modified carry the pending change set for
	// KindUncommittedChanges, so a caller can report what blocked the
	// restore without re-running status.
	Added, Removed, Modified []string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNoSuchDirectory:
		return fmt.Sprintf("no such directory: %s", e.Path)
	case KindNotInitialized:
		return fmt.Sprintf("not initialized: %s", e.Path)
	case KindAlreadyInitialized:
		return fmt.Sprintf("already initialized: %s", e.Path)
	case KindNotFound:
		return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
	case KindCorrupt:
		return fmt.Sprintf("%s corrupt: %s: %v", e.Entity, e.ID, e.Cause)
	case KindUncommittedChanges:
		return fmt.Sprintf("uncommitted changes in tracked directory: %d added, %d removed, %d modified",
			len(e.Added), len(e.Removed), len(e.Modified))
	case KindMissingContent:
		return fmt.Sprintf("missing content object: %s", e.ID)
	case KindIoError:
		return fmt.Sprintf("io error at %s: %v", e.Path, e.Cause)
	case KindInvalidPath:
		return fmt.Sprintf("invalid path: %s", e.Path)
	case KindInsufficientSpace:
		return fmt.Sprintf("insufficient disk space to restore into %s", e.Path)
	default:
		return fmt.Sprintf("timemachine error (%s)", e.Kind)
	}
}

// Unwrap exposes the underlying cause, when present, for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

func NoSuchDirectory(path string) error {
	return &Error{Kind: KindNoSuchDirectory, Path: path}
}

func NotInitialized(path string) error {
	return &Error{Kind: KindNotInitialized, Path: path}
}

func AlreadyInitialized(path string) error {
	return &Error{Kind: KindAlreadyInitialized, Path: path}
}

func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id}
}

func Corrupt(entity, id string, cause error) error {
	return &Error{Kind: KindCorrupt, Entity: entity, ID: id, Cause: cause}
}

func UncommittedChanges(added, removed, modified []string) error {
	return &Error{Kind: KindUncommittedChanges, Added: added, Removed: removed, Modified: modified}
}

func MissingContent(hash string) error {
	return &Error{Kind: KindMissingContent, ID: hash}
}

func IoError(path string, cause error) error {
	return &Error{Kind: KindIoError, Path: path, Cause: cause}
}

func InvalidPath(path string) error {
	return &Error{Kind: KindInvalidPath, Path: path}
}

func InsufficientSpace(path string) error {
	return &Error{Kind: KindInsufficientSpace, Path: path}
}

// Is matches target against err's Kind, without requiring the caller to
// construct a sentinel *Error value (errors.Is(err, tmerrors.Kind("x"))
// does not work because Kind is a plain string; use this helper instead).
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
