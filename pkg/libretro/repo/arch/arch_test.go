package arch

import (
	"strings"
	"testing"
)

func TestGuess(t *testing.T) {
	info, err := Guess()
	if err != nil {
		t.Skipf("no core mapping for this platform: %v", err)
	}
	if info.Os == "" || info.Arch == "" || !strings.HasPrefix(info.LibExt, ".") {
		t.Errorf("incomplete platform info: %+v", info)
	}
}

func TestGuessLibraryNames(t *testing.T) {
	names := GuessLibraryNames("gba")
	if len(names) != 3 {
		t.Fatalf("expected 3 candidates, got %v", names)
	}
	if !strings.HasPrefix(names[0], "gba_libretro.") {
		t.Errorf("conventional name should come first, got %v", names[0])
	}
	for _, n := range names {
		if ext := n[strings.LastIndexByte(n, '.'):]; ext == "." {
			t.Errorf("missing lib extension in %v", n)
		}
	}
}
