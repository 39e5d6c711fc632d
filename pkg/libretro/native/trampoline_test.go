package native

import (
	"errors"
	"strings"
	"testing"
	"unsafe"

	"github.com/retrolink/retrolink/pkg/libretro/buffer"
)

func TestActivationSlot(t *testing.T) {
	first := &Callbacks{}
	second := &Callbacks{}

	if err := Activate(first); err != nil {
		t.Fatalf("Activate(first) = %v", err)
	}
	if err := Activate(second); !errors.Is(err, ErrCallbacksActive) {
		t.Errorf("Activate(second) = %v, want ErrCallbacksActive", err)
	}

	// only the owner may free the slot
	Deactivate(second)
	if err := Activate(second); !errors.Is(err, ErrCallbacksActive) {
		t.Errorf("slot freed by a non-owner")
	}

	Deactivate(first)
	if err := Activate(second); err != nil {
		t.Errorf("Activate after owner release = %v", err)
	}
	Deactivate(second)
}

func TestActivateResetsPixelFormat(t *testing.T) {
	cb := &Callbacks{}
	if err := Activate(cb); err != nil {
		t.Fatal(err)
	}
	defer Deactivate(cb)
	if got := PixelFormat(); got != PixFmt0RGB1555 {
		t.Errorf("PixelFormat() = %v, want %v", got, PixFmt0RGB1555)
	}
}

func TestTakeFaultClears(t *testing.T) {
	cb := &Callbacks{}
	if err := Activate(cb); err != nil {
		t.Fatal(err)
	}
	defer Deactivate(cb)
	if f := TakeFault(); f != nil {
		t.Errorf("fresh slot has fault %v", f)
	}
	active.fault = &Fault{Callback: "video_refresh", Reason: "boom"}
	if f := TakeFault(); f == nil || f.Callback != "video_refresh" {
		t.Errorf("TakeFault() = %+v", f)
	}
	if f := TakeFault(); f != nil {
		t.Errorf("fault not cleared: %v", f)
	}
}

// A panicking handler must never take the process down: the recover
// sits between the handler and the native frame, the call yields the
// ABI default, and the fault is retrievable afterwards.
func TestHandlerPanicTrapped(t *testing.T) {
	func() {
		defer trap("environment")
		panic("boom")
	}()
	f := TakeFault()
	if f == nil {
		t.Fatal("panic was not trapped")
	}
	if f.Callback != "environment" || f.Reason != "boom" {
		t.Errorf("fault = %+v", f)
	}
	if len(f.Stack) == 0 {
		t.Error("fault carries no stack")
	}
	if f := TakeFault(); f != nil {
		t.Errorf("fault not cleared: %v", f)
	}
}

func TestAudioBatchDispatch(t *testing.T) {
	samples := []int16{1, -1, 2, -2, 3, -3, 4, -4}
	data := unsafe.Pointer(&samples[0])

	t.Run("zero frames", func(t *testing.T) {
		called := false
		cb := &Callbacks{AudioSampleBatch: func(v *buffer.View, frames int) int {
			called = true
			if v != nil || frames != 0 {
				t.Errorf("handler got (%v, %v), want (nil, 0)", v, frames)
			}
			return 0
		}}
		if got := dispatchAudioBatch(cb, data, 0); got != 0 {
			t.Errorf("consumed = %v, want 0", got)
		}
		if !called {
			t.Error("handler was not called")
		}
		if f := TakeFault(); f != nil {
			t.Errorf("unexpected fault: %v", f)
		}
	})

	t.Run("nil data", func(t *testing.T) {
		cb := &Callbacks{AudioSampleBatch: func(v *buffer.View, frames int) int {
			if v != nil || frames != 0 {
				t.Errorf("handler got (%v, %v), want (nil, 0)", v, frames)
			}
			return 0
		}}
		if got := dispatchAudioBatch(cb, nil, 4); got != 0 {
			t.Errorf("consumed = %v, want 0", got)
		}
	})

	t.Run("view scope", func(t *testing.T) {
		var kept *buffer.View
		cb := &Callbacks{AudioSampleBatch: func(v *buffer.View, frames int) int {
			if v.Kind() != buffer.Int16 || v.Len() != frames*2 {
				t.Errorf("view %v x%v, want int16 x%v", v.Kind(), v.Len(), frames*2)
			}
			if s, err := v.Int16s(); err != nil || s[0] != 1 || s[7] != -4 {
				t.Errorf("Int16s() = %v, %v", s, err)
			}
			kept = v
			return frames
		}}
		if got := dispatchAudioBatch(cb, data, 4); got != 4 {
			t.Errorf("consumed = %v, want 4", got)
		}
		if _, err := kept.Int16s(); !errors.Is(err, buffer.ErrReleased) {
			t.Errorf("view survived the dispatch: %v", err)
		}
	})

	t.Run("consumed clamped", func(t *testing.T) {
		for _, tt := range []struct{ ret, want int }{{99, 4}, {-3, 0}, {2, 2}} {
			cb := &Callbacks{AudioSampleBatch: func(*buffer.View, int) int { return tt.ret }}
			if got := dispatchAudioBatch(cb, data, 4); got != tt.want {
				t.Errorf("handler returned %v, consumed = %v, want %v", tt.ret, got, tt.want)
			}
		}
	})

	t.Run("panicking handler", func(t *testing.T) {
		cb := &Callbacks{AudioSampleBatch: func(*buffer.View, int) int { panic("underflow") }}
		if got := dispatchAudioBatch(cb, data, 4); got != 0 {
			t.Errorf("consumed = %v after a fault, want 0", got)
		}
		f := TakeFault()
		if f == nil || f.Callback != "audio_sample_batch" {
			t.Errorf("fault = %+v", f)
		}
	})
}

func TestEnvBoolArg(t *testing.T) {
	v := false
	SetBool(unsafe.Pointer(&v), true)
	if !GoBool(unsafe.Pointer(&v)) {
		t.Error("bool answer did not round-trip")
	}
	SetBool(unsafe.Pointer(&v), false)
	if GoBool(unsafe.Pointer(&v)) {
		t.Error("bool answer stuck at true")
	}
}

func TestFaultError(t *testing.T) {
	f := &Fault{Callback: "environment", Reason: "index out of range"}
	msg := f.Error()
	if !strings.Contains(msg, "environment") || !strings.Contains(msg, "index out of range") {
		t.Errorf("Fault.Error() = %q", msg)
	}
}

func TestLoadErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *LoadError
		want []string
		is   error
	}{
		{
			name: "missing lib",
			err:  &LoadError{Path: "/cores/na.so", Detail: "no such file", Err: ErrLibNotFound},
			want: []string{"/cores/na.so", "no such file"},
			is:   ErrLibNotFound,
		},
		{
			name: "missing symbol",
			err:  &LoadError{Path: "/cores/na.so", Symbol: "retro_run", Err: ErrSymbolMissing},
			want: []string{"/cores/na.so", "retro_run"},
			is:   ErrSymbolMissing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, part := range tt.want {
				if !strings.Contains(msg, part) {
					t.Errorf("Error() = %q, missing %q", msg, part)
				}
			}
			if !errors.Is(tt.err, tt.is) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.is)
			}
		})
	}
}

func TestPixFmtString(t *testing.T) {
	if PixFmt0RGB1555.BPP != 2 || PixFmtXRGB8888.BPP != 4 || PixFmtRGB565.BPP != 2 {
		t.Error("wrong bytes per pixel")
	}
	if PixFmtXRGB8888.String() != "XRGB8888/4" {
		t.Errorf("String() = %v", PixFmtXRGB8888.String())
	}
}
