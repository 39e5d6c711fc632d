package manager

import (
	"reflect"
	"testing"

	"github.com/retrolink/retrolink/pkg/config"
)

func TestCoreDiff(t *testing.T) {
	ci := func(names ...string) (cores []config.CoreInfo) {
		for _, n := range names {
			cores = append(cores, config.CoreInfo{Name: n})
		}
		return
	}

	tests := []struct {
		declared  []config.CoreInfo
		installed []config.CoreInfo
		out       []config.CoreInfo
	}{
		{},
		{declared: ci("a", "b"), out: ci("a", "b")},
		{declared: ci("a", "b"), installed: ci("a", "b")},
		{declared: ci("a", "b", "c"), installed: ci("b"), out: ci("a", "c")},
		{installed: ci("a")},
	}

	for _, test := range tests {
		if got := diff(test.declared, test.installed); !reflect.DeepEqual(got, test.out) {
			t.Errorf("diff(%v, %v) = %v, want %v", test.declared, test.installed, got, test.out)
		}
	}
}

func TestGetInstalled(t *testing.T) {
	m := BasicManager{Conf: config.LibretroConfig{}}
	if cores, err := m.GetInstalled(""); err != nil || cores != nil {
		t.Errorf("no lib extension should list nothing, got %v, %v", cores, err)
	}
}
