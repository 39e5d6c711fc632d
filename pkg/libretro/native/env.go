package native

import "unsafe"

/*
#include "bridge.h"
#include <stdlib.h>

// cgo cannot reference a variadic C function directly; hand the
// pointer back through a non-variadic getter instead.
static retro_log_printf_t core_log_cgo_ptr(void) { return core_log_cgo; }
*/
import "C"

// Typed accessors for the data argument of environment calls. The
// pointer stays owned by the core and is valid for the call only.

// GoBool reads the data argument as a bool.
func GoBool(data unsafe.Pointer) bool { return bool(*(*C.bool)(data)) }

// SetBool writes a bool answer into the data argument.
func SetBool(data unsafe.Pointer, v bool) { *(*C.bool)(data) = C.bool(v) }

// GoUint reads the data argument as an unsigned.
func GoUint(data unsafe.Pointer) uint { return uint(*(*C.unsigned)(data)) }

// SetString points a char** data argument at a C string owned by the
// caller. The caller keeps the string alive as long as the core may
// read it.
func SetString(data unsafe.Pointer, cstr unsafe.Pointer) {
	*(**C.char)(data) = (*C.char)(cstr)
}

// GoVariable decodes a retro_variable data argument.
func GoVariable(data unsafe.Pointer) Variable {
	rv := (*C.struct_retro_variable)(data)
	return Variable{Key: C.GoString(rv.key), Value: C.GoString(rv.value)}
}

// GoVariables decodes a SET_VARIABLES array, terminated by a null key.
func GoVariables(data unsafe.Pointer) []Variable {
	var vars []Variable
	for rv := (*C.struct_retro_variable)(data); rv != nil && rv.key != nil; rv = (*C.struct_retro_variable)(unsafe.Add(unsafe.Pointer(rv), unsafe.Sizeof(*rv))) {
		vars = append(vars, Variable{Key: C.GoString(rv.key), Value: C.GoString(rv.value)})
	}
	return vars
}

// SetVariableValue points the value of a GET_VARIABLE answer at a C
// string owned by the caller.
func SetVariableValue(data unsafe.Pointer, cstr unsafe.Pointer) {
	(*C.struct_retro_variable)(data).value = (*C.char)(cstr)
}

// GoMessage decodes a retro_message data argument.
func GoMessage(data unsafe.Pointer) Message {
	m := (*C.struct_retro_message)(data)
	return Message{Msg: C.GoString(m.msg), Frames: uint(m.frames)}
}

// GoGameGeometry decodes a SET_GEOMETRY data argument.
func GoGameGeometry(data unsafe.Pointer) GameGeometry {
	g := (*C.struct_retro_game_geometry)(data)
	return GameGeometry{
		BaseWidth:   uint(g.base_width),
		BaseHeight:  uint(g.base_height),
		MaxWidth:    uint(g.max_width),
		MaxHeight:   uint(g.max_height),
		AspectRatio: float32(g.aspect_ratio),
	}
}

// GoSystemAVInfo decodes a SET_SYSTEM_AV_INFO data argument.
func GoSystemAVInfo(data unsafe.Pointer) SystemAVInfo {
	av := (*C.struct_retro_system_av_info)(data)
	return SystemAVInfo{
		Geometry: GameGeometry{
			BaseWidth:   uint(av.geometry.base_width),
			BaseHeight:  uint(av.geometry.base_height),
			MaxWidth:    uint(av.geometry.max_width),
			MaxHeight:   uint(av.geometry.max_height),
			AspectRatio: float32(av.geometry.aspect_ratio),
		},
		Timing: SystemTiming{
			FPS:        float64(av.timing.fps),
			SampleRate: float64(av.timing.sample_rate),
		},
	}
}

// InstallLogInterface answers GET_LOG_INTERFACE by pointing the core's
// printf-style log at the host logger shim.
func InstallLogInterface(data unsafe.Pointer) {
	cb := (*C.struct_retro_log_callback)(data)
	cb.log = C.core_log_cgo_ptr()
}

// CString allocates a C copy of s. Free it with FreeCString.
func CString(s string) unsafe.Pointer { return unsafe.Pointer(C.CString(s)) }

// FreeCString releases a string allocated by CString.
func FreeCString(p unsafe.Pointer) {
	if p != nil {
		C.free(p)
	}
}
