package libretro

import "github.com/retrolink/retrolink/pkg/libretro/native"

// Value descriptors copied out of native structures, no ownership
// concerns.
type (
	SystemInfo   = native.SystemInfo
	SystemAVInfo = native.SystemAVInfo
	GameGeometry = native.GameGeometry
	SystemTiming = native.SystemTiming
	GameInfo     = native.GameInfo
	Variable     = native.Variable
	Message      = native.Message
)

// Memory bank ids of MemoryData and MemorySize.
const (
	MemorySaveRAM   = native.MemorySaveRAM
	MemoryRTC       = native.MemoryRTC
	MemorySystemRAM = native.MemorySystemRAM
	MemoryVideoRAM  = native.MemoryVideoRAM
)

// Regions reported by Region.
const (
	RegionNTSC = native.RegionNTSC
	RegionPAL  = native.RegionPAL
)

// Input device classes for SetControllerPortDevice and OnInputState.
const (
	DeviceNone     = native.DeviceNone
	DeviceJoypad   = native.DeviceJoypad
	DeviceMouse    = native.DeviceMouse
	DeviceKeyboard = native.DeviceKeyboard
	DeviceLightgun = native.DeviceLightgun
	DeviceAnalog   = native.DeviceAnalog
	DevicePointer  = native.DevicePointer
)
