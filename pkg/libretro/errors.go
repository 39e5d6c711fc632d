package libretro

import (
	"errors"
	"fmt"

	"github.com/retrolink/retrolink/pkg/libretro/native"
)

// Load failures, fatal to session construction.
var (
	ErrLibNotFound   = native.ErrLibNotFound
	ErrSymbolMissing = native.ErrSymbolMissing
)

// LoadError carries the path and, when applicable, the missing symbol
// of a failed core load.
type LoadError = native.LoadError

// Fault is a handler panic trapped inside a callback trampoline,
// reported out-of-band once the originating core call returns.
type Fault = native.Fault

var (
	// ErrCoreInUse means the same library is already owned by another
	// live session.
	ErrCoreInUse = errors.New("libretro: core is in use by another session")
	// ErrSessionActive means another session holds the process-wide
	// callback slot. The ABI keeps one global callback set, so only
	// one session may be bound at a time.
	ErrSessionActive = native.ErrCallbacksActive
	// ErrIncompleteHandlers means Bind was called with one of the
	// required handlers missing.
	ErrIncompleteHandlers = errors.New("libretro: handler set is incomplete")
	// ErrAPIVersion means the core implements an ABI revision this
	// adapter doesn't speak.
	ErrAPIVersion = errors.New("libretro: unsupported core API version")
	// ErrSmallBuffer means the caller's buffer is smaller than the
	// core's serialize size.
	ErrSmallBuffer = errors.New("libretro: buffer is smaller than the serialize size")
)

// StateError reports an operation invoked out of lifecycle order.
// Recoverable: the caller may retry after correcting sequencing.
type StateError struct {
	Op   string
	Have State
	Want State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("libretro: %v requires state %v, session is %v", e.Op, e.Want, e.Have)
}

// NativeRejection reports the core returning failure from an
// operation (load_game, serialize, unserialize). Recoverable, never
// retried by this layer.
type NativeRejection struct {
	Op string
}

func (e *NativeRejection) Error() string {
	return fmt.Sprintf("libretro: core rejected %v", e.Op)
}
