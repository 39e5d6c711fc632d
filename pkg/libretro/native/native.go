// Package native owns the unsafe side of the libretro contract: it
// loads a core shared library, resolves its fixed set of entry points,
// and adapts every call and callback between Go and the C ABI.
package native

import (
	"unsafe"
)

/*
#include "bridge.h"
#include <stdlib.h>
*/
import "C"

// APIVersion is the only ABI revision this adapter speaks.
const APIVersion = uint(C.RETRO_API_VERSION)

// Memory bank ids of retro_get_memory_data/size.
const (
	MemorySaveRAM   = uint32(C.RETRO_MEMORY_SAVE_RAM)
	MemoryRTC       = uint32(C.RETRO_MEMORY_RTC)
	MemorySystemRAM = uint32(C.RETRO_MEMORY_SYSTEM_RAM)
	MemoryVideoRAM  = uint32(C.RETRO_MEMORY_VIDEO_RAM)
)

// Regions of retro_get_region.
const (
	RegionNTSC = uint(C.RETRO_REGION_NTSC)
	RegionPAL  = uint(C.RETRO_REGION_PAL)
)

// Input device classes.
const (
	DeviceNone     = uint32(C.RETRO_DEVICE_NONE)
	DeviceJoypad   = uint32(C.RETRO_DEVICE_JOYPAD)
	DeviceMouse    = uint32(C.RETRO_DEVICE_MOUSE)
	DeviceKeyboard = uint32(C.RETRO_DEVICE_KEYBOARD)
	DeviceLightgun = uint32(C.RETRO_DEVICE_LIGHTGUN)
	DeviceAnalog   = uint32(C.RETRO_DEVICE_ANALOG)
	DevicePointer  = uint32(C.RETRO_DEVICE_POINTER)
)

// Environment commands recognized by the default session handler.
// The rest of the command space passes through to the caller opaque.
const (
	EnvSetRotation       = uint32(C.RETRO_ENVIRONMENT_SET_ROTATION)
	EnvGetOverscan       = uint32(C.RETRO_ENVIRONMENT_GET_OVERSCAN)
	EnvGetCanDupe        = uint32(C.RETRO_ENVIRONMENT_GET_CAN_DUPE)
	EnvSetMessage        = uint32(C.RETRO_ENVIRONMENT_SET_MESSAGE)
	EnvShutdown          = uint32(C.RETRO_ENVIRONMENT_SHUTDOWN)
	EnvGetSystemDir      = uint32(C.RETRO_ENVIRONMENT_GET_SYSTEM_DIRECTORY)
	EnvSetPixelFormat    = uint32(C.RETRO_ENVIRONMENT_SET_PIXEL_FORMAT)
	EnvGetVariable       = uint32(C.RETRO_ENVIRONMENT_GET_VARIABLE)
	EnvSetVariables      = uint32(C.RETRO_ENVIRONMENT_SET_VARIABLES)
	EnvGetVariableUpdate = uint32(C.RETRO_ENVIRONMENT_GET_VARIABLE_UPDATE)
	EnvSetSupportNoGame  = uint32(C.RETRO_ENVIRONMENT_SET_SUPPORT_NO_GAME)
	EnvGetLogInterface   = uint32(C.RETRO_ENVIRONMENT_GET_LOG_INTERFACE)
	EnvGetSaveDir        = uint32(C.RETRO_ENVIRONMENT_GET_SAVE_DIRECTORY)
	EnvSetSystemAVInfo   = uint32(C.RETRO_ENVIRONMENT_SET_SYSTEM_AV_INFO)
	EnvSetGeometry       = uint32(C.RETRO_ENVIRONMENT_SET_GEOMETRY)
	EnvGetUsername       = uint32(C.RETRO_ENVIRONMENT_GET_USERNAME)
)

// Pixel formats of RETRO_ENVIRONMENT_SET_PIXEL_FORMAT.
var (
	PixFmt0RGB1555 = PixFmt{C: C.RETRO_PIXEL_FORMAT_0RGB1555, BPP: 2}
	PixFmtXRGB8888 = PixFmt{C: C.RETRO_PIXEL_FORMAT_XRGB8888, BPP: 4}
	PixFmtRGB565   = PixFmt{C: C.RETRO_PIXEL_FORMAT_RGB565, BPP: 2}
)

type PixFmt struct {
	C   uint32
	BPP uint32
}

func (p PixFmt) String() string {
	switch p.C {
	case C.RETRO_PIXEL_FORMAT_0RGB1555:
		return "0RGB1555/2"
	case C.RETRO_PIXEL_FORMAT_XRGB8888:
		return "XRGB8888/4"
	case C.RETRO_PIXEL_FORMAT_RGB565:
		return "RGB565/2"
	}
	return "unknown"
}

// SystemInfo is a copy of retro_system_info with no ownership strings.
type SystemInfo struct {
	LibraryName     string
	LibraryVersion  string
	ValidExtensions string
	NeedFullpath    bool
	BlockExtract    bool
}

type GameGeometry struct {
	BaseWidth   uint
	BaseHeight  uint
	MaxWidth    uint
	MaxHeight   uint
	AspectRatio float32
}

type SystemTiming struct {
	FPS        float64
	SampleRate float64
}

type SystemAVInfo struct {
	Geometry GameGeometry
	Timing   SystemTiming
}

// GameInfo describes an image passed to retro_load_game. Data is
// borrowed for the duration of the call only. For cores that demand a
// full path (need_fullpath) Data stays nil and Size carries the image
// size on disk.
type GameInfo struct {
	Path string
	Data []byte
	Size uint64
	Meta string
}

type Variable struct {
	Key   string
	Value string
}

type Message struct {
	Msg    string
	Frames uint
}

// Core wraps one loaded shared library and its resolved entry points.
// Exclusively owned by a single session; not safe for concurrent use.
type Core struct {
	handle unsafe.Pointer
	path   string

	symInit                    unsafe.Pointer
	symDeinit                  unsafe.Pointer
	symAPIVersion              unsafe.Pointer
	symGetSystemInfo           unsafe.Pointer
	symGetSystemAVInfo         unsafe.Pointer
	symSetEnvironment          unsafe.Pointer
	symSetVideoRefresh         unsafe.Pointer
	symSetInputPoll            unsafe.Pointer
	symSetInputState           unsafe.Pointer
	symSetAudioSample          unsafe.Pointer
	symSetAudioSampleBatch     unsafe.Pointer
	symLoadGame                unsafe.Pointer
	symLoadGameSpecial         unsafe.Pointer
	symUnloadGame              unsafe.Pointer
	symRun                     unsafe.Pointer
	symReset                   unsafe.Pointer
	symSerializeSize           unsafe.Pointer
	symSerialize               unsafe.Pointer
	symUnserialize             unsafe.Pointer
	symCheatReset              unsafe.Pointer
	symCheatSet                unsafe.Pointer
	symGetRegion               unsafe.Pointer
	symGetMemorySize           unsafe.Pointer
	symGetMemoryData           unsafe.Pointer
	symSetControllerPortDevice unsafe.Pointer
}

// Load opens the shared library at path and resolves every required
// entry point. Any missing piece fails the whole load with a LoadError
// and the library handle released.
func Load(path string) (*Core, error) {
	handle, err := loadLib(path)
	if err != nil {
		// the file may carry an ABI version suffix
		handle, err = loadLibRolling(path)
		if err != nil {
			return nil, err
		}
	}

	c := &Core{handle: handle, path: path}
	symbols := []struct {
		name string
		ptr  *unsafe.Pointer
	}{
		{"retro_init", &c.symInit},
		{"retro_deinit", &c.symDeinit},
		{"retro_api_version", &c.symAPIVersion},
		{"retro_get_system_info", &c.symGetSystemInfo},
		{"retro_get_system_av_info", &c.symGetSystemAVInfo},
		{"retro_set_environment", &c.symSetEnvironment},
		{"retro_set_video_refresh", &c.symSetVideoRefresh},
		{"retro_set_input_poll", &c.symSetInputPoll},
		{"retro_set_input_state", &c.symSetInputState},
		{"retro_set_audio_sample", &c.symSetAudioSample},
		{"retro_set_audio_sample_batch", &c.symSetAudioSampleBatch},
		{"retro_load_game", &c.symLoadGame},
		{"retro_load_game_special", &c.symLoadGameSpecial},
		{"retro_unload_game", &c.symUnloadGame},
		{"retro_run", &c.symRun},
		{"retro_reset", &c.symReset},
		{"retro_serialize_size", &c.symSerializeSize},
		{"retro_serialize", &c.symSerialize},
		{"retro_unserialize", &c.symUnserialize},
		{"retro_cheat_reset", &c.symCheatReset},
		{"retro_cheat_set", &c.symCheatSet},
		{"retro_get_region", &c.symGetRegion},
		{"retro_get_memory_size", &c.symGetMemorySize},
		{"retro_get_memory_data", &c.symGetMemoryData},
		{"retro_set_controller_port_device", &c.symSetControllerPortDevice},
	}
	for _, s := range symbols {
		ptr, err := loadFunction(handle, path, s.name)
		if err != nil {
			_ = closeLib(handle)
			return nil, err
		}
		*s.ptr = ptr
	}
	return c, nil
}

func (c *Core) Path() string { return c.path }

// APIVersion asks the core which ABI revision it implements.
func (c *Core) APIVersion() uint {
	return uint(C.bridge_retro_api_version(c.symAPIVersion))
}

func (c *Core) Init()   { C.bridge_retro_init(c.symInit) }
func (c *Core) Deinit() { C.bridge_retro_deinit(c.symDeinit) }

// InstallCallbacks wires all six trampolines into the core's
// retro_set_* entry points. The trampolines dispatch into whatever
// Callbacks set is active at call time.
func (c *Core) InstallCallbacks() {
	C.bridge_retro_set_environment(c.symSetEnvironment, C.core_environment_cgo)
	C.bridge_retro_set_video_refresh(c.symSetVideoRefresh, C.core_video_refresh_cgo)
	C.bridge_retro_set_input_poll(c.symSetInputPoll, C.core_input_poll_cgo)
	C.bridge_retro_set_input_state(c.symSetInputState, C.core_input_state_cgo)
	C.bridge_retro_set_audio_sample(c.symSetAudioSample, C.core_audio_sample_cgo)
	C.bridge_retro_set_audio_sample_batch(c.symSetAudioSampleBatch, C.core_audio_sample_batch_cgo)
}

func (c *Core) SystemInfo() SystemInfo {
	var si C.struct_retro_system_info
	C.bridge_retro_get_system_info(c.symGetSystemInfo, &si)
	return SystemInfo{
		LibraryName:     C.GoString(si.library_name),
		LibraryVersion:  C.GoString(si.library_version),
		ValidExtensions: C.GoString(si.valid_extensions),
		NeedFullpath:    bool(si.need_fullpath),
		BlockExtract:    bool(si.block_extract),
	}
}

func (c *Core) SystemAVInfo() SystemAVInfo {
	var av C.struct_retro_system_av_info
	C.bridge_retro_get_system_av_info(c.symGetSystemAVInfo, &av)
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

// LoadGame forwards the image to retro_load_game. The C copies of the
// image and strings live for the call only.
func (c *Core) LoadGame(info GameInfo) bool {
	game, free := cGameInfo(info)
	defer free()
	return bool(C.bridge_retro_load_game(c.symLoadGame, &game))
}

// LoadGameSpecial is the multi-image variant of LoadGame.
func (c *Core) LoadGameSpecial(gameType uint32, infos []GameInfo) bool {
	n := len(infos)
	if n == 0 {
		return bool(C.bridge_retro_load_game_special(c.symLoadGameSpecial, C.unsigned(gameType), nil, 0))
	}
	arr := (*C.struct_retro_game_info)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(C.struct_retro_game_info{}))))
	defer C.free(unsafe.Pointer(arr))
	games := unsafe.Slice(arr, n)
	for i, info := range infos {
		game, free := cGameInfo(info)
		defer free()
		games[i] = game
	}
	return bool(C.bridge_retro_load_game_special(c.symLoadGameSpecial, C.unsigned(gameType), arr, C.size_t(n)))
}

func (c *Core) UnloadGame() { C.bridge_retro_unload_game(c.symUnloadGame) }
func (c *Core) Run()        { C.bridge_retro_run(c.symRun) }
func (c *Core) Reset()      { C.bridge_retro_reset(c.symReset) }

func (c *Core) SerializeSize() uint {
	return uint(C.bridge_retro_serialize_size(c.symSerializeSize))
}

func (c *Core) Serialize(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	return bool(C.bridge_retro_serialize(c.symSerialize, unsafe.Pointer(&buf[0]), C.size_t(len(buf))))
}

func (c *Core) Unserialize(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	return bool(C.bridge_retro_unserialize(c.symUnserialize, unsafe.Pointer(&buf[0]), C.size_t(len(buf))))
}

func (c *Core) CheatReset() { C.bridge_retro_cheat_reset(c.symCheatReset) }

func (c *Core) CheatSet(index uint32, enabled bool, code string) {
	cs := C.CString(code)
	defer C.free(unsafe.Pointer(cs))
	C.bridge_retro_cheat_set(c.symCheatSet, C.unsigned(index), C.bool(enabled), cs)
}

func (c *Core) Region() uint {
	return uint(C.bridge_retro_get_region(c.symGetRegion))
}

// MemorySize returns the size of a memory bank in bytes.
func (c *Core) MemorySize(id uint32) uint {
	return uint(C.bridge_retro_get_memory_size(c.symGetMemorySize, C.unsigned(id)))
}

// MemoryData returns a raw pointer into a core-owned memory bank, or
// nil when the core has none with that id.
func (c *Core) MemoryData(id uint32) unsafe.Pointer {
	return C.bridge_retro_get_memory_data(c.symGetMemoryData, C.unsigned(id))
}

func (c *Core) SetControllerPortDevice(port, device uint32) {
	C.bridge_retro_set_controller_port_device(c.symSetControllerPortDevice, C.unsigned(port), C.unsigned(device))
}

// Close releases the library handle. Safe to call once.
func (c *Core) Close() error {
	err := closeLib(c.handle)
	c.handle = nil
	return err
}

func cGameInfo(info GameInfo) (C.struct_retro_game_info, func()) {
	game := C.struct_retro_game_info{}
	var frees []unsafe.Pointer
	if len(info.Data) > 0 {
		ptr := C.CBytes(info.Data)
		frees = append(frees, ptr)
		game.data = ptr
		game.size = C.size_t(len(info.Data))
	} else {
		game.size = C.size_t(info.Size)
	}
	if info.Path != "" {
		cs := C.CString(info.Path)
		frees = append(frees, unsafe.Pointer(cs))
		game.path = cs
	}
	if info.Meta != "" {
		cs := C.CString(info.Meta)
		frees = append(frees, unsafe.Pointer(cs))
		game.meta = cs
	}
	return game, func() {
		for _, p := range frees {
			C.free(p)
		}
	}
}
