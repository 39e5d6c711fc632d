package libretro

import (
	"unsafe"

	"github.com/retrolink/retrolink/pkg/libretro/buffer"
)

// FrameInfo describes one video frame handed to OnVideo. Stride is
// the real row length in bytes and may exceed W times the pixel size.
type FrameInfo struct {
	W      uint32
	H      uint32
	Stride uint32
}

// Handlers is the callback set a session forwards core activity to.
// All six slots except OnEnvironment must be populated before Bind.
// Every handler runs synchronously inside the core call that triggered
// it (typically Run) and must return promptly. Any view passed in dies
// when the handler returns; Materialize is the only way to keep the
// data.
type Handlers struct {
	// OnEnvironment sees every environment negotiation verbatim,
	// before the session's default handling. Return true to claim the
	// command. A nil handler defers everything to the defaults.
	OnEnvironment func(cmd uint32, data unsafe.Pointer) bool
	// OnVideo receives the frame pixels. A nil view means the core
	// duplicated the previous frame.
	OnVideo func(v *buffer.View, frame FrameInfo)
	// OnAudio receives interleaved stereo samples, two per frame, and
	// returns how many frames it consumed (at most the given count).
	OnAudio func(v *buffer.View, frames int) int
	// OnSample receives a single stereo frame.
	OnSample func(left, right int16)
	// OnInputPoll asks the handler to refresh its input state.
	OnInputPoll func()
	// OnInputState reports the state of one input to the core.
	OnInputState func(port, device, index, id uint32) int16
}

func (h Handlers) complete() bool {
	return h.OnVideo != nil && h.OnAudio != nil && h.OnSample != nil &&
		h.OnInputPoll != nil && h.OnInputState != nil
}
