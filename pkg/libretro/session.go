// Package libretro drives a loaded core through its lifecycle:
// Unloaded, Loaded, Bound, Initialized, GameLoaded. All operations are
// direct blocking calls into native code with no locking; invoking
// session operations concurrently from multiple threads is the
// caller's responsibility to avoid. The ABI keeps a single global
// callback set, so at most one session per process may be bound at a
// time.
package libretro

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/retrolink/retrolink/pkg/libretro/buffer"
	"github.com/retrolink/retrolink/pkg/libretro/native"
	"github.com/retrolink/retrolink/pkg/logger"
	"github.com/retrolink/retrolink/pkg/os"
)

// State is a lifecycle position of a session.
type State uint8

const (
	Unloaded State = iota
	Loaded
	Bound
	Initialized
	GameLoaded
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Bound:
		return "bound"
	case Initialized:
		return "initialized"
	case GameLoaded:
		return "game-loaded"
	}
	return "unknown"
}

// Options tune session construction.
type Options struct {
	// SystemDir answers GET_SYSTEM_DIRECTORY when set.
	SystemDir string
	// SaveDir answers GET_SAVE_DIRECTORY when set.
	SaveDir string
	// Username answers GET_USERNAME, "retro" when empty.
	Username string
	// CoreOptions seed the variables served to GET_VARIABLE.
	CoreOptions map[string]string
}

// Session owns one loaded core and its callback registration. Not
// safe for concurrent use.
type Session struct {
	state State
	core  *native.Core
	cb    *native.Callbacks

	handlers Handlers
	log      *logger.Logger
	sysInfo  SystemInfo

	options map[string]string
	optVals map[string]unsafe.Pointer

	cSystemDir unsafe.Pointer
	cSaveDir   unsafe.Pointer
	cUsername  unsafe.Pointer

	cheats   map[uint32]cheat
	banks    []*buffer.View
	fault    *Fault
	rotation uint
	storage  Storage

	release func()
}

// NewSession loads the core at libPath and resolves its entry points.
// A missing library or symbol is a fatal LoadError, as is a core
// speaking an unknown ABI revision. On success the session is Loaded.
func NewSession(libPath string, opts Options, log *logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.Default()
	}
	release, err := registry.acquire(libPath)
	if err != nil {
		return nil, err
	}
	core, err := native.Load(libPath)
	if err != nil {
		release()
		return nil, err
	}
	if api := core.APIVersion(); api != native.APIVersion {
		_ = core.Close()
		release()
		return nil, fmt.Errorf("%w: %v", ErrAPIVersion, api)
	}

	s := &Session{
		state:   Loaded,
		core:    core,
		options: map[string]string{},
		optVals: map[string]unsafe.Pointer{},
		cheats:  map[uint32]cheat{},
		release: release,
	}
	for k, v := range opts.CoreOptions {
		s.options[k] = v
	}
	s.sysInfo = core.SystemInfo()
	s.log = log.Extend(log.With().Str("core", s.sysInfo.LibraryName))

	if opts.SystemDir != "" {
		if err := os.CheckCreateDir(opts.SystemDir); err != nil {
			s.log.Error().Err(err).Msgf("couldn't create %v", opts.SystemDir)
		}
		s.cSystemDir = native.CString(opts.SystemDir)
	}
	if opts.SaveDir != "" {
		if err := os.CheckCreateDir(opts.SaveDir); err != nil {
			s.log.Error().Err(err).Msgf("couldn't create %v", opts.SaveDir)
		}
		s.cSaveDir = native.CString(opts.SaveDir)
	}
	username := opts.Username
	if username == "" {
		username = "retro"
	}
	s.cUsername = native.CString(username)

	s.log.Info().Msgf("system >>> %v (%v) [%v] nfp: %v",
		s.sysInfo.LibraryName, s.sysInfo.LibraryVersion,
		s.sysInfo.ValidExtensions, s.sysInfo.NeedFullpath)

	return s, nil
}

// State returns the current lifecycle position.
func (s *Session) State() State { return s.state }

// SystemInfo returns the core's identity descriptor.
func (s *Session) SystemInfo() (SystemInfo, error) {
	if s.state == Unloaded {
		return SystemInfo{}, &StateError{Op: "get_system_info", Have: s.state, Want: Loaded}
	}
	return s.sysInfo, nil
}

// SystemAVInfo queries the core's geometry and timing.
func (s *Session) SystemAVInfo() (SystemAVInfo, error) {
	if s.state == Unloaded {
		return SystemAVInfo{}, &StateError{Op: "get_system_av_info", Have: s.state, Want: Loaded}
	}
	return s.core.SystemAVInfo(), nil
}

// Bind registers the handler set and installs the six callback
// trampolines into the core. All handlers except OnEnvironment must be
// populated. Claims the process-wide callback slot; a second bound
// session anywhere in the process fails with ErrSessionActive.
func (s *Session) Bind(h Handlers) error {
	if s.state != Loaded {
		return &StateError{Op: "bind", Have: s.state, Want: Loaded}
	}
	if !h.complete() {
		return ErrIncompleteHandlers
	}
	s.handlers = h
	cb := &native.Callbacks{
		Environment:      s.environment,
		VideoRefresh:     s.videoRefresh,
		AudioSample:      h.OnSample,
		AudioSampleBatch: h.OnAudio,
		InputPoll:        h.OnInputPoll,
		InputState:       h.OnInputState,
		Log:              s.coreLog,
	}
	if err := native.Activate(cb); err != nil {
		return err
	}
	s.cb = cb
	s.core.InstallCallbacks()
	s.state = Bound
	return nil
}

// Init runs the core's one-time global initialization. A second call
// is a caller error, not a process fault.
func (s *Session) Init() error {
	if s.state != Bound {
		return &StateError{Op: "init", Have: s.state, Want: Bound}
	}
	s.core.Init()
	s.pickFault()
	s.state = Initialized
	return nil
}

// LoadGame hands the image to the core. The image data is borrowed
// for the call only, empty data included. A false return from the
// core surfaces as NativeRejection.
func (s *Session) LoadGame(info GameInfo) error {
	if s.state != Initialized {
		return &StateError{Op: "load_game", Have: s.state, Want: Initialized}
	}
	if s.sysInfo.NeedFullpath && info.Path == "" {
		return fmt.Errorf("libretro: core %v loads from disk and needs a path", s.sysInfo.LibraryName)
	}
	ok := s.core.LoadGame(info)
	s.pickFault()
	if !ok {
		return &NativeRejection{Op: "retro_load_game"}
	}
	s.afterGameLoad()
	return nil
}

// LoadGamePath reads the image at path the way the core wants it:
// fullpath cores get the path and size, the rest get the bytes.
func (s *Session) LoadGamePath(path string) error {
	if s.state != Initialized {
		return &StateError{Op: "load_game", Have: s.state, Want: Initialized}
	}
	info := GameInfo{Path: path}
	if s.sysInfo.NeedFullpath {
		size, err := os.StatSize(path)
		if err != nil {
			return err
		}
		info.Size = uint64(size)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info.Data = data
	}
	return s.LoadGame(info)
}

// LoadGameSpecial is the multi-image variant of LoadGame.
func (s *Session) LoadGameSpecial(gameType uint32, infos []GameInfo) error {
	if s.state != Initialized {
		return &StateError{Op: "load_game_special", Have: s.state, Want: Initialized}
	}
	ok := s.core.LoadGameSpecial(gameType, infos)
	s.pickFault()
	if !ok {
		return &NativeRejection{Op: "retro_load_game_special"}
	}
	s.afterGameLoad()
	return nil
}

func (s *Session) afterGameLoad() {
	s.state = GameLoaded

	av := s.core.SystemAVInfo()
	s.log.Info().Msgf("system A/V >>> %vx%v (%vx%v), [%vfps], AR [%v], audio [%vHz]",
		av.Geometry.BaseWidth, av.Geometry.BaseHeight,
		av.Geometry.MaxWidth, av.Geometry.MaxHeight,
		av.Timing.FPS, av.Geometry.AspectRatio, av.Timing.SampleRate)

	// default joypads on the first ports, some cores need it
	for port := uint32(0); port < 4; port++ {
		s.core.SetControllerPortDevice(port, DeviceJoypad)
	}

	s.replayCheats()
}

// Run advances the emulation by exactly one frame. The core invokes
// zero or more callbacks synchronously before Run returns, in an
// order it alone decides.
func (s *Session) Run() error {
	if s.state != GameLoaded {
		return &StateError{Op: "run", Have: s.state, Want: GameLoaded}
	}
	s.drainBanks()
	s.core.Run()
	s.pickFault()
	return nil
}

// Reset reinitializes the emulated machine without reloading the
// image.
func (s *Session) Reset() error {
	if s.state != GameLoaded {
		return &StateError{Op: "reset", Have: s.state, Want: GameLoaded}
	}
	s.drainBanks()
	s.core.Reset()
	s.pickFault()
	return nil
}

// SerializeSize returns the byte size of the core's snapshot.
func (s *Session) SerializeSize() (uint, error) {
	if s.state < Initialized {
		return 0, &StateError{Op: "serialize_size", Have: s.state, Want: Initialized}
	}
	return s.core.SerializeSize(), nil
}

// Serialize snapshots the core into buf, which must hold at least
// SerializeSize bytes. A false result from the core is recoverable
// (the core may be unable to snapshot in its current state).
func (s *Session) Serialize(buf []byte) error {
	if s.state < Initialized {
		return &StateError{Op: "serialize", Have: s.state, Want: Initialized}
	}
	if uint(len(buf)) < s.core.SerializeSize() {
		return ErrSmallBuffer
	}
	if !s.core.Serialize(buf) {
		return &NativeRejection{Op: "retro_serialize"}
	}
	return nil
}

// Unserialize restores a snapshot taken by Serialize. A false result
// is recoverable (format or version mismatch).
func (s *Session) Unserialize(buf []byte) error {
	if s.state < Initialized {
		return &StateError{Op: "unserialize", Have: s.state, Want: Initialized}
	}
	if len(buf) == 0 {
		return ErrSmallBuffer
	}
	s.drainBanks()
	if !s.core.Unserialize(buf) {
		return &NativeRejection{Op: "retro_unserialize"}
	}
	return nil
}

// SaveState snapshots the core into a fresh buffer.
func (s *Session) SaveState() ([]byte, error) {
	size, err := s.SerializeSize()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, &NativeRejection{Op: "retro_serialize_size"}
	}
	buf := make([]byte, size)
	if err := s.Serialize(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// RestoreState restores a snapshot taken by SaveState.
func (s *Session) RestoreState(data []byte) error { return s.Unserialize(data) }

// Region reports NTSC or PAL, meaningful once a game is loaded.
func (s *Session) Region() (uint, error) {
	if s.state != GameLoaded {
		return 0, &StateError{Op: "get_region", Have: s.state, Want: GameLoaded}
	}
	return s.core.Region(), nil
}

// MemorySize returns the byte size of a memory bank, zero when the
// core has none with that id.
func (s *Session) MemorySize(id uint32) (uint, error) {
	if s.state != GameLoaded {
		return 0, &StateError{Op: "get_memory_size", Have: s.state, Want: GameLoaded}
	}
	return s.core.MemorySize(id), nil
}

// MemoryData returns a zero-copy view over a core-owned memory bank,
// nil when the core has none with that id. The view dies on the next
// operation that re-enters the core; Materialize to keep the bytes.
func (s *Session) MemoryData(id uint32) (*buffer.View, error) {
	if s.state != GameLoaded {
		return nil, &StateError{Op: "get_memory_data", Have: s.state, Want: GameLoaded}
	}
	ptr := s.core.MemoryData(id)
	size := s.core.MemorySize(id)
	if ptr == nil || size == 0 {
		return nil, nil
	}
	v := buffer.NewView(ptr, buffer.Uint8, int(size))
	s.banks = append(s.banks, v)
	return v, nil
}

// RestoreMemory writes previously materialized bank contents (e.g.
// the map returned by UnloadGame) back into the core's memory banks.
// Banks the core doesn't expose, or exposes smaller, are skipped.
func (s *Session) RestoreMemory(banks map[uint32][]byte) error {
	if s.state != GameLoaded {
		return &StateError{Op: "restore_memory", Have: s.state, Want: GameLoaded}
	}
	for id, data := range banks {
		if len(data) == 0 {
			continue
		}
		ptr := s.core.MemoryData(id)
		size := s.core.MemorySize(id)
		if ptr == nil || uint(len(data)) > size {
			continue
		}
		copy(unsafe.Slice((*byte)(ptr), size), data)
	}
	return nil
}

// SetControllerPortDevice tells the core what device sits on a port.
func (s *Session) SetControllerPortDevice(port, device uint32) error {
	if s.state < Bound {
		return &StateError{Op: "set_controller_port_device", Have: s.state, Want: Bound}
	}
	s.core.SetControllerPortDevice(port, device)
	return nil
}

// UnloadGame releases the core-side game resources and returns the
// materialized contents of every memory bank the core still exposed,
// keyed by bank id.
func (s *Session) UnloadGame() (map[uint32][]byte, error) {
	if s.state != GameLoaded {
		return nil, &StateError{Op: "unload_game", Have: s.state, Want: GameLoaded}
	}
	saves := s.materializeBanks()
	s.drainBanks()
	s.core.UnloadGame()
	s.pickFault()
	s.state = Initialized
	return saves, nil
}

// Deinit tears down the core's global state and releases the callback
// slot. A loaded game is unloaded first.
func (s *Session) Deinit() error {
	if s.state < Initialized {
		return &StateError{Op: "deinit", Have: s.state, Want: Initialized}
	}
	s.drainBanks()
	if s.state == GameLoaded {
		s.core.UnloadGame()
	}
	s.core.Deinit()
	s.pickFault()
	native.Deactivate(s.cb)
	s.cb = nil
	s.state = Loaded
	return nil
}

// Unload releases everything the session owns: game, core global
// state, callback slot, library handle. Idempotent.
func (s *Session) Unload() error {
	if s.state == Unloaded {
		return nil
	}
	s.drainBanks()
	if s.state == GameLoaded {
		s.core.UnloadGame()
	}
	if s.state >= Initialized {
		s.core.Deinit()
	}
	if s.cb != nil {
		native.Deactivate(s.cb)
		s.cb = nil
	}
	native.FreeCString(s.cSystemDir)
	native.FreeCString(s.cSaveDir)
	native.FreeCString(s.cUsername)
	s.cSystemDir, s.cSaveDir, s.cUsername = nil, nil, nil
	s.freeOptVals()
	err := s.core.Close()
	if err != nil {
		s.log.Error().Err(err).Msg("lib close failed")
	}
	s.release()
	s.state = Unloaded
	return err
}

// TakeFault returns the last handler fault trapped at the callback
// boundary and clears it. Faults never unwind through native frames;
// they surface here once the originating call has returned.
func (s *Session) TakeFault() *Fault {
	f := s.fault
	s.fault = nil
	return f
}

// Rotation returns the screen rotation requested by the core, in
// degrees.
func (s *Session) Rotation() uint { return s.rotation }

// SetOptions replaces the variables served to GET_VARIABLE.
func (s *Session) SetOptions(options map[string]string) {
	s.freeOptVals()
	s.options = map[string]string{}
	for k, v := range options {
		s.options[k] = v
	}
}

func (s *Session) pickFault() {
	if f := native.TakeFault(); f != nil {
		s.fault = f
		s.log.Error().Err(f).Msgf("handler fault trapped in %v", f.Callback)
	}
}

func (s *Session) drainBanks() {
	for _, v := range s.banks {
		v.Release()
	}
	s.banks = nil
}

func (s *Session) materializeBanks() map[uint32][]byte {
	banks := map[uint32][]byte{}
	ids := []uint32{MemorySaveRAM, MemoryRTC, MemorySystemRAM, MemoryVideoRAM}
	for _, id := range ids {
		ptr := s.core.MemoryData(id)
		size := s.core.MemorySize(id)
		if ptr == nil || size == 0 {
			continue
		}
		v := buffer.NewView(ptr, buffer.Uint8, int(size))
		data, err := v.Materialize()
		v.Release()
		if err == nil && len(data) > 0 {
			banks[id] = data
		}
	}
	return banks
}

func (s *Session) freeOptVals() {
	for _, p := range s.optVals {
		native.FreeCString(p)
	}
	s.optVals = map[string]unsafe.Pointer{}
}

func (s *Session) videoRefresh(v *buffer.View, width, height, pitch uint32) {
	s.handlers.OnVideo(v, FrameInfo{W: width, H: height, Stride: pitch})
}

func (s *Session) coreLog(level uint32, msg string) {
	switch level {
	case 0: // with debug level cores have too much logs
		s.log.Debug().Msg(msg)
	case 1:
		s.log.Info().Msg(msg)
	case 2:
		s.log.Warn().Msg(msg)
	case 3:
		s.log.Error().Msg(msg)
	default:
		s.log.Log().Msg(msg)
	}
}

// environment forwards every negotiation to the caller's handler
// first, then falls back to the session defaults.
func (s *Session) environment(cmd uint32, data unsafe.Pointer) bool {
	if s.handlers.OnEnvironment != nil {
		if handled := s.handlers.OnEnvironment(cmd, data); handled {
			return true
		}
	}
	switch cmd {
	case native.EnvGetCanDupe:
		native.SetBool(data, true)
		return true
	case native.EnvGetUsername:
		if s.cUsername == nil {
			return false
		}
		native.SetString(data, s.cUsername)
		return true
	case native.EnvGetSystemDir:
		if s.cSystemDir == nil {
			return false
		}
		native.SetString(data, s.cSystemDir)
		return true
	case native.EnvGetSaveDir:
		if s.cSaveDir == nil {
			return false
		}
		native.SetString(data, s.cSaveDir)
		return true
	case native.EnvGetLogInterface:
		native.InstallLogInterface(data)
		return true
	case native.EnvSetPixelFormat:
		format := native.GoUint(data)
		if format > 2 {
			s.log.Error().Msgf("unknown pixel format %v", format)
			return false
		}
		return true
	case native.EnvSetRotation:
		s.rotation = (native.GoUint(data) % 4) * 90
		s.log.Debug().Msgf("image rotated %v°", s.rotation)
		return true
	case native.EnvSetMessage:
		m := native.GoMessage(data)
		s.log.Info().Msgf("core message: %v", m.Msg)
		return true
	case native.EnvGetVariable:
		v := native.GoVariable(data)
		val, ok := s.options[v.Key]
		if !ok {
			return false
		}
		cstr, cached := s.optVals[v.Key]
		if !cached {
			cstr = native.CString(val)
			s.optVals[v.Key] = cstr
		}
		native.SetVariableValue(data, cstr)
		s.log.Debug().Msgf("set %v=%v", v.Key, val)
		return true
	case native.EnvSetVariables:
		// record core-declared defaults for options the caller didn't seed
		for _, v := range native.GoVariables(data) {
			if _, set := s.options[v.Key]; !set {
				s.options[v.Key] = defaultVariableValue(v.Value)
			}
		}
		return true
	case native.EnvGetVariableUpdate:
		native.SetBool(data, false)
		return true
	case native.EnvSetGeometry, native.EnvSetSystemAVInfo:
		geom := native.GoGameGeometry(data)
		if cmd == native.EnvSetSystemAVInfo {
			geom = native.GoSystemAVInfo(data).Geometry
		}
		s.log.Debug().Msgf("geometry change >>> %vx%v", geom.BaseWidth, geom.BaseHeight)
		return true
	}
	return false
}

// defaultVariableValue picks the first choice out of a core variable
// description ("Label; choice1|choice2").
func defaultVariableValue(desc string) string {
	rest := desc
	if i := strings.IndexByte(rest, ';'); i >= 0 {
		rest = strings.TrimLeft(rest[i+1:], " ")
	}
	if i := strings.IndexByte(rest, '|'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
