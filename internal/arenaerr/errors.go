// Package arenaerr defines the typed error kinds shared by the codec,
// punter host, and arena driver (spec.md §7).
package arenaerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure. The arena branches on Kind to decide
// whether a failure aborts the match or is absorbed as a pass.
type Kind int

const (
	// KindEmptyLength: a ':' appeared before any length digit.
	KindEmptyLength Kind = iota
	// KindBadLength: the length prefix is not a canonical non-negative integer.
	KindBadLength
	// KindTruncated: the stream ended before a full message was read.
	KindTruncated
	// KindBadJSON: the payload bytes did not parse as JSON.
	KindBadJSON
	// KindBadHandshake: the child's first message was not {"me": ...}.
	KindBadHandshake
	// KindBadReady: the setup response's "ready" id did not match the punter id.
	KindBadReady
	// KindBadMove: the move response had neither claim nor pass, or a malformed one.
	KindBadMove
	// KindChildSpawnFailed: the child process could not be started.
	KindChildSpawnFailed
	// KindChildCrashed: the child exited before producing a response.
	KindChildCrashed
	// KindMapSchema: the map file violated the expected schema.
	KindMapSchema
)

func (k Kind) String() string {
	switch k {
	case KindEmptyLength:
		return "EmptyLength"
	case KindBadLength:
		return "BadLength"
	case KindTruncated:
		return "Truncated"
	case KindBadJSON:
		return "BadJson"
	case KindBadHandshake:
		return "BadHandshake"
	case KindBadReady:
		return "BadReady"
	case KindBadMove:
		return "BadMove"
	case KindChildSpawnFailed:
		return "ChildSpawnFailed"
	case KindChildCrashed:
		return "ChildCrashed"
	case KindMapSchema:
		return "MapSchema"
	default:
		return "Unknown"
	}
}

// Error is a typed error carrying a Kind alongside the usual message chain.
// Wrapped with github.com/pkg/errors at the call site when extra context
// (which stream, which punter) is useful.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New builds an *Error of the given kind with a formatted message.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err (or something it wraps, including pkg/errors.Wrap
// chains) is an *Error of kind k.
func Is(err error, k Kind) bool {
	var ae *Error
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Kind == k
}
