package libretro

type cheat struct {
	code    string
	enabled bool
}

// CheatSet installs a cheat. Fire-and-forget: the ABI gives no
// validity feedback. The session keeps the cheat on file and replays
// it after every game load, since cores drop cheats with the game.
func (s *Session) CheatSet(index uint32, enabled bool, code string) error {
	if s.state < Initialized {
		return &StateError{Op: "cheat_set", Have: s.state, Want: Initialized}
	}
	s.cheats[index] = cheat{code: code, enabled: enabled}
	s.core.CheatSet(index, enabled, code)
	return nil
}

// CheatReset drops every installed cheat, core-side and on file.
func (s *Session) CheatReset() error {
	if s.state < Initialized {
		return &StateError{Op: "cheat_reset", Have: s.state, Want: Initialized}
	}
	s.cheats = map[uint32]cheat{}
	s.core.CheatReset()
	return nil
}

// CheatSetEnabled toggles a cheat already on file. Reports whether
// the index was known.
func (s *Session) CheatSetEnabled(index uint32, enabled bool) bool {
	c, ok := s.cheats[index]
	if !ok {
		return false
	}
	c.enabled = enabled
	s.cheats[index] = c
	if s.state >= Initialized {
		s.core.CheatSet(index, c.enabled, c.code)
	}
	return true
}

// CheatIsEnabled reports whether a cheat on file is enabled.
func (s *Session) CheatIsEnabled(index uint32) bool {
	return s.cheats[index].enabled
}

// CheatRemove takes a cheat off file. The core forgets all cheats and
// gets the remaining ones replayed.
func (s *Session) CheatRemove(index uint32) bool {
	if _, ok := s.cheats[index]; !ok {
		return false
	}
	delete(s.cheats, index)
	if s.state >= Initialized {
		s.core.CheatReset()
		s.replayCheats()
	}
	return true
}

func (s *Session) replayCheats() {
	for index, c := range s.cheats {
		s.core.CheatSet(index, c.enabled, c.code)
	}
}
