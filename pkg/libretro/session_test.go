package libretro

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retrolink/retrolink/pkg/libretro/buffer"
	"github.com/retrolink/retrolink/pkg/logger"
)

// Guard checks run before any native call, so a session with no core
// behind it must reject out-of-order operations instead of crashing.
func TestLifecycleGuards(t *testing.T) {
	tests := []struct {
		name  string
		state State
		op    func(s *Session) error
	}{
		{"run before load_game", Initialized, func(s *Session) error { return s.Run() }},
		{"run unbound", Loaded, func(s *Session) error { return s.Run() }},
		{"reset before load_game", Initialized, func(s *Session) error { return s.Reset() }},
		{"init before bind", Loaded, func(s *Session) error { return s.Init() }},
		{"double init", Initialized, func(s *Session) error { return s.Init() }},
		{"bind twice", Bound, func(s *Session) error { return s.Bind(Handlers{}) }},
		{"load_game before init", Bound, func(s *Session) error { return s.LoadGame(GameInfo{}) }},
		{"load_game_special before init", Bound, func(s *Session) error {
			return s.LoadGameSpecial(1, nil)
		}},
		{"serialize before init", Bound, func(s *Session) error { return s.Serialize(nil) }},
		{"unserialize before init", Bound, func(s *Session) error { return s.Unserialize(nil) }},
		{"serialize_size before init", Loaded, func(s *Session) error {
			_, err := s.SerializeSize()
			return err
		}},
		{"region before load_game", Initialized, func(s *Session) error {
			_, err := s.Region()
			return err
		}},
		{"memory before load_game", Initialized, func(s *Session) error {
			_, err := s.MemoryData(MemorySaveRAM)
			return err
		}},
		{"memory size before load_game", Initialized, func(s *Session) error {
			_, err := s.MemorySize(MemorySaveRAM)
			return err
		}},
		{"unload_game before load_game", Initialized, func(s *Session) error {
			_, err := s.UnloadGame()
			return err
		}},
		{"restore_memory before load_game", Initialized, func(s *Session) error {
			return s.RestoreMemory(map[uint32][]byte{MemorySaveRAM: {1}})
		}},
		{"deinit before init", Bound, func(s *Session) error { return s.Deinit() }},
		{"cheat_set before init", Loaded, func(s *Session) error { return s.CheatSet(0, true, "code") }},
		{"cheat_reset before init", Loaded, func(s *Session) error { return s.CheatReset() }},
		{"controller device unbound", Loaded, func(s *Session) error {
			return s.SetControllerPortDevice(0, DeviceJoypad)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{state: tt.state, log: logger.Default(), cheats: map[uint32]cheat{}}
			err := tt.op(s)
			var se *StateError
			if !errors.As(err, &se) {
				t.Fatalf("got %v, want StateError", err)
			}
			if s.state != tt.state {
				t.Errorf("state moved %v -> %v on a rejected op", tt.state, s.state)
			}
		})
	}
}

// A failed library load is fatal to construction: no session comes
// back, the error is a LoadError, and the library slot is released so
// a later attempt isn't refused as in-use.
func TestNewSessionLoadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no_such_core.so")
	s, err := NewSession(path, Options{}, logger.Default())
	if s != nil {
		t.Fatal("NewSession() returned a session for a missing library")
	}
	if !errors.Is(err, ErrLibNotFound) {
		t.Fatalf("NewSession() error = %v, want ErrLibNotFound", err)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("NewSession() error = %T, want *LoadError", err)
	}
	if _, err := NewSession(path, Options{}, logger.Default()); errors.Is(err, ErrCoreInUse) {
		t.Error("failed load left the library registered as in use")
	}
}

func TestQueriesNeedLoadedCore(t *testing.T) {
	s := &Session{state: Unloaded, log: logger.Default()}
	if _, err := s.SystemInfo(); err == nil {
		t.Error("SystemInfo() on unloaded session should fail")
	}
	if _, err := s.SystemAVInfo(); err == nil {
		t.Error("SystemAVInfo() on unloaded session should fail")
	}
}

func TestBindIncompleteHandlers(t *testing.T) {
	s := &Session{state: Loaded, log: logger.Default()}
	if err := s.Bind(Handlers{}); !errors.Is(err, ErrIncompleteHandlers) {
		t.Errorf("Bind(empty) = %v, want ErrIncompleteHandlers", err)
	}
	if s.state != Loaded {
		t.Errorf("state = %v after rejected bind", s.state)
	}
}

func TestCheatBookkeeping(t *testing.T) {
	// below Initialized the cheats stay on file without core calls
	s := &Session{state: Loaded, log: logger.Default(), cheats: map[uint32]cheat{
		3: {code: "AAAA-BBBB", enabled: true},
	}}

	if !s.CheatIsEnabled(3) {
		t.Error("cheat 3 should be enabled")
	}
	if s.CheatIsEnabled(5) {
		t.Error("unknown cheat should not be enabled")
	}
	if !s.CheatSetEnabled(3, false) {
		t.Error("toggling a known cheat should succeed")
	}
	if s.CheatIsEnabled(3) {
		t.Error("cheat 3 should be disabled after toggle")
	}
	if s.CheatSetEnabled(9, true) {
		t.Error("toggling an unknown cheat should fail")
	}
	if !s.CheatRemove(3) {
		t.Error("removing a known cheat should succeed")
	}
	if s.CheatRemove(3) {
		t.Error("removing twice should fail")
	}
}

func TestRegistry(t *testing.T) {
	release, err := registry.acquire("/tmp/fake_core.so")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := registry.acquire("/tmp/fake_core.so"); !errors.Is(err, ErrCoreInUse) {
		t.Errorf("second acquire = %v, want ErrCoreInUse", err)
	}
	release()
	release() // idempotent
	release2, err := registry.acquire("/tmp/fake_core.so")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		Unloaded:    "unloaded",
		Loaded:      "loaded",
		Bound:       "bound",
		Initialized: "initialized",
		GameLoaded:  "game-loaded",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %v, want %v", s, got, want)
		}
	}
}

func TestDefaultVariableValue(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"Frame skip; disabled|enabled", "disabled"},
		{"Region; auto|ntsc|pal", "auto"},
		{"plain", "plain"},
		{"Label; single", "single"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := defaultVariableValue(tt.desc); got != tt.want {
			t.Errorf("defaultVariableValue(%q) = %q, want %q", tt.desc, got, tt.want)
		}
	}
}

// TestSessionLifecycle drives a real core end to end. It needs an
// actual shared library, so it only runs when RETROLINK_TEST_CORE
// points at one.
func TestSessionLifecycle(t *testing.T) {
	lib := os.Getenv("RETROLINK_TEST_CORE")
	if lib == "" {
		t.Skip("set RETROLINK_TEST_CORE to a core library path to run")
	}
	rom := os.Getenv("RETROLINK_TEST_ROM")

	s, err := NewSession(lib, Options{SaveDir: t.TempDir(), SystemDir: t.TempDir()}, logger.Default())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer func() { _ = s.Unload() }()

	info, err := s.SystemInfo()
	if err != nil || info.LibraryName == "" {
		t.Fatalf("SystemInfo() = %+v, %v", info, err)
	}

	frames := 0
	err = s.Bind(Handlers{
		OnVideo:      func(v *buffer.View, f FrameInfo) {},
		OnAudio:      func(v *buffer.View, n int) int { return n },
		OnSample:     func(l, r int16) {},
		OnInputPoll:  func() {},
		OnInputState: func(port, device, index, id uint32) int16 { return 0 },
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if rom != "" {
		if err := s.LoadGamePath(rom); err != nil {
			t.Fatalf("LoadGamePath: %v", err)
		}
		for i := 0; i < 10; i++ {
			if err := s.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}
			frames++
		}
		if f := s.TakeFault(); f != nil {
			t.Fatalf("unexpected fault: %v", f)
		}
		state, err := s.SaveState()
		if err != nil {
			t.Fatalf("SaveState: %v", err)
		}
		if err := s.RestoreState(state); err != nil {
			t.Fatalf("RestoreState: %v", err)
		}
		if _, err := s.UnloadGame(); err != nil {
			t.Fatalf("UnloadGame: %v", err)
		}
	}
	if err := s.Deinit(); err != nil {
		t.Fatalf("Deinit: %v", err)
	}
	_ = frames
}
