package repo

import (
	"testing"

	"github.com/retrolink/retrolink/pkg/libretro/repo/arch"
)

func TestCoreUrl(t *testing.T) {
	testAddress := "https://test.me"
	tests := []struct {
		arch     arch.Info
		compress string
		f        string
		repo     string
		result   string
	}{
		{
			arch:   arch.Info{Arch: "x86_64", LibExt: ".so", Os: "linux"},
			f:      "uber_core",
			repo:   "buildbot",
			result: testAddress + "/" + "linux/x86_64/latest/uber_core.so",
		},
		{
			arch:     arch.Info{Arch: "x86_64", LibExt: ".so", Os: "linux"},
			compress: "zip",
			f:        "uber_core",
			repo:     "buildbot",
			result:   testAddress + "/" + "linux/x86_64/latest/uber_core.so.zip",
		},
		{
			arch:   arch.Info{Arch: "x86_64", LibExt: ".dylib", Os: "osx", Vendor: "apple"},
			f:      "uber_core",
			repo:   "buildbot",
			result: testAddress + "/" + "apple/osx/x86_64/latest/uber_core.dylib",
		},
		{
			arch:   arch.Info{Os: "linux", Arch: "x86_64", LibExt: ".so"},
			f:      "uber_core",
			repo:   "github",
			result: testAddress + "/" + "linux/x86_64/latest/uber_core.so?raw=true",
		},
		{
			arch:     arch.Info{Os: "linux", Arch: "x86_64", LibExt: ".so"},
			compress: "zip",
			f:        "uber_core",
			repo:     "github",
			result:   testAddress + "/" + "linux/x86_64/latest/uber_core.so.zip?raw=true",
		},
		{
			arch:   arch.Info{Os: "osx", Arch: "x86_64", Vendor: "apple", LibExt: ".dylib"},
			f:      "uber_core",
			repo:   "github",
			result: testAddress + "/" + "apple/osx/x86_64/latest/uber_core.dylib?raw=true",
		},
		{
			arch:   arch.Info{Os: "linux", Arch: "x86_64", LibExt: ".so"},
			f:      "uber_core",
			repo:   "raw",
			result: testAddress,
		},
	}

	for _, test := range tests {
		r := New(test.repo, testAddress, test.compress, "")
		url := r.GetCoreUrl(test.f, test.arch)
		if url != test.result {
			t.Errorf("seems that expected link address is incorrect (%v) for file %s %+v", url, test.f, test.arch)
		}
	}
}

func TestDefaultRepoFallback(t *testing.T) {
	r := New("unknown", "https://test.me", "", "buildbot")
	if r == nil {
		t.Fatal("expected fallback to the default repo")
	}
	info := arch.Info{Os: "linux", Arch: "x86_64", LibExt: ".so"}
	if got := r.GetCoreUrl("core", info); got != "https://test.me/linux/x86_64/latest/core.so" {
		t.Errorf("fallback url = %v", got)
	}
	if r := New("unknown", "https://test.me", "", ""); r != nil {
		t.Errorf("no fallback should give nil, got %v", r)
	}
}
