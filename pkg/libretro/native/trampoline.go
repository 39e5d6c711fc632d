package native

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"unsafe"

	"github.com/retrolink/retrolink/pkg/libretro/buffer"
)

/*
#include "bridge.h"
*/
import "C"

// ErrCallbacksActive is returned by Activate when another callback set
// already occupies the dispatch slot.
var ErrCallbacksActive = errors.New("native: another callback set is active")

// Callbacks is one session's handler set. The core calls back through
// the six fixed trampolines; each trampoline dispatches to the field
// of the currently active set. Every handler runs synchronously on the
// thread that entered the originating core call and must return
// promptly.
type Callbacks struct {
	Environment      func(cmd uint32, data unsafe.Pointer) bool
	VideoRefresh     func(v *buffer.View, width, height, pitch uint32)
	AudioSample      func(left, right int16)
	AudioSampleBatch func(v *buffer.View, frames int) int
	InputPoll        func()
	InputState       func(port, device, index, id uint32) int16
	Log              func(level uint32, msg string)
}

// Fault is a handler panic trapped at the native boundary. The
// trampoline swallows it, returns the ABI default, and parks it here
// for the caller to pick up once the originating call returns. A Go
// panic must never unwind through a C frame.
type Fault struct {
	Callback string
	Reason   interface{}
	Stack    []byte
}

func (f *Fault) Error() string {
	return fmt.Sprintf("handler fault in %v: %v", f.Callback, f.Reason)
}

// The ABI holds a single global set of callback function pointers, so
// the dispatch slot is global too: at most one bound session per
// process. Trampolines read the slot without locking, matching the
// single-threaded contract of the whole surface.
var active struct {
	mu    sync.Mutex
	cb    *Callbacks
	pix   PixFmt
	fault *Fault
}

func init() { active.pix = PixFmt0RGB1555 }

// Activate claims the dispatch slot for cb.
func Activate(cb *Callbacks) error {
	active.mu.Lock()
	defer active.mu.Unlock()
	if active.cb != nil {
		return ErrCallbacksActive
	}
	active.cb = cb
	active.pix = PixFmt0RGB1555
	active.fault = nil
	return nil
}

// Deactivate frees the dispatch slot if cb owns it.
func Deactivate(cb *Callbacks) {
	active.mu.Lock()
	defer active.mu.Unlock()
	if active.cb == cb {
		active.cb = nil
		active.fault = nil
	}
}

// TakeFault returns the last trapped handler fault and clears it.
func TakeFault() *Fault {
	f := active.fault
	active.fault = nil
	return f
}

// PixelFormat returns the pixel format last accepted by the core
// through SET_PIXEL_FORMAT, 0RGB1555 until then.
func PixelFormat() PixFmt { return active.pix }

func trap(name string) {
	if r := recover(); r != nil {
		active.fault = &Fault{Callback: name, Reason: r, Stack: debug.Stack()}
	}
}

//export coreEnvironment
func coreEnvironment(cmd C.unsigned, data unsafe.Pointer) C.bool {
	cb := active.cb
	if cb == nil || cb.Environment == nil {
		return false
	}
	res := false
	func() {
		defer trap("environment")
		res = cb.Environment(uint32(cmd), data)
	}()
	// track the accepted pixel format, video views are sized with it
	if res && uint32(cmd) == EnvSetPixelFormat {
		switch *(*C.enum_retro_pixel_format)(data) {
		case C.RETRO_PIXEL_FORMAT_0RGB1555:
			active.pix = PixFmt0RGB1555
		case C.RETRO_PIXEL_FORMAT_XRGB8888:
			active.pix = PixFmtXRGB8888
		case C.RETRO_PIXEL_FORMAT_RGB565:
			active.pix = PixFmtRGB565
		}
	}
	return C.bool(res)
}

//export coreVideoRefresh
func coreVideoRefresh(data unsafe.Pointer, width C.unsigned, height C.unsigned, pitch C.size_t) {
	cb := active.cb
	if cb == nil || cb.VideoRefresh == nil {
		return
	}
	defer trap("video_refresh")

	// some cores or games output zero pitch, i.e. N64 Mupen
	stride := uint32(pitch)
	if stride == 0 {
		stride = uint32(width) * active.pix.BPP
	}

	// a nil frame means the core duplicated the previous one
	var v *buffer.View
	if data != nil {
		kind := buffer.Uint16
		if active.pix.BPP == 4 {
			kind = buffer.Uint32
		}
		n := int(stride) * int(height) / int(active.pix.BPP)
		v = buffer.NewView(data, kind, n)
		defer v.Release()
	}
	cb.VideoRefresh(v, uint32(width), uint32(height), stride)
}

//export coreInputPoll
func coreInputPoll() {
	cb := active.cb
	if cb == nil || cb.InputPoll == nil {
		return
	}
	defer trap("input_poll")
	cb.InputPoll()
}

//export coreInputState
func coreInputState(port C.unsigned, device C.unsigned, index C.unsigned, id C.unsigned) C.int16_t {
	cb := active.cb
	if cb == nil || cb.InputState == nil {
		return 0
	}
	state := int16(0)
	func() {
		defer trap("input_state")
		state = cb.InputState(uint32(port), uint32(device), uint32(index), uint32(id))
	}()
	return C.int16_t(state)
}

//export coreAudioSample
func coreAudioSample(left C.int16_t, right C.int16_t) {
	cb := active.cb
	if cb == nil || cb.AudioSample == nil {
		return
	}
	defer trap("audio_sample")
	cb.AudioSample(int16(left), int16(right))
}

//export coreAudioSampleBatch
func coreAudioSampleBatch(data unsafe.Pointer, frames C.size_t) C.size_t {
	cb := active.cb
	if cb == nil || cb.AudioSampleBatch == nil {
		return 0
	}
	return C.size_t(dispatchAudioBatch(cb, data, int(frames)))
}

func dispatchAudioBatch(cb *Callbacks, data unsafe.Pointer, frames int) int {
	consumed := 0
	func() {
		defer trap("audio_sample_batch")
		if data == nil || frames == 0 {
			consumed = cb.AudioSampleBatch(nil, 0)
			return
		}
		// interleaved stereo, two samples per frame
		v := buffer.NewView(data, buffer.Int16, frames*2)
		defer v.Release()
		consumed = cb.AudioSampleBatch(v, frames)
	}()
	// cores detect underrun by consumed < frames, never report more
	if consumed < 0 {
		consumed = 0
	}
	if consumed > frames {
		consumed = frames
	}
	return consumed
}

//export coreLog
func coreLog(level C.enum_retro_log_level, msg *C.char) {
	cb := active.cb
	if cb == nil || cb.Log == nil {
		return
	}
	defer trap("log")
	cb.Log(uint32(level), strings.TrimRight(C.GoString(msg), "\n"))
}
