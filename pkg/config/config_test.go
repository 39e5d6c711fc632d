package config

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

const testConfig = `
libretro:
  savecompression: true
  cores:
    paths:
      libs: ./cores
    repo:
      sync: true
      main:
        type: buildbot
        url: https://buildbot.libretro.com/nightly
        compression: zip
    list:
      gba:
        lib: mgba_libretro
        roms: ["gba", "gbc"]
      nes:
        lib: nestopia_libretro
        altrepo: true
        roms: ["nes"]
        options:
          "nestopia_sndquality": "high"
`

func load(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	var conf Config
	if err := LoadConfig(&conf, dir); err != nil {
		t.Fatal(err)
	}
	return conf
}

func TestConfigLoad(t *testing.T) {
	conf := load(t)
	l := conf.Libretro
	if !l.SaveCompression {
		t.Errorf("savecompression not set")
	}
	if !l.Cores.Repo.Sync || l.Cores.Repo.Main.Type != "buildbot" {
		t.Errorf("repo config mismatch: %+v", l.Cores.Repo)
	}
	if len(l.Cores.List) != 2 {
		t.Errorf("expected 2 cores, got %v", l.Cores.List)
	}
	if l.Cores.List["nes"].Options["nestopia_sndquality"] != "high" {
		t.Errorf("core options not loaded")
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("RETROLINK_LIBRETRO_STORAGE", "/tmp/states")
	t.Setenv("RETROLINK_LIBRETRO_SAVECOMPRESSION", "true")
	var conf Config
	if err := LoadConfigEnv(&conf); err != nil {
		t.Fatalf("LoadConfigEnv() error = %v", err)
	}
	if conf.Libretro.Storage != "/tmp/states" || !conf.Libretro.SaveCompression {
		t.Errorf("env not applied: %+v", conf.Libretro)
	}
}

func TestGetCoreConfig(t *testing.T) {
	conf := load(t)
	core := conf.Libretro.GetCoreConfig("gba")
	if filepath.Base(core.Lib) != "mgba_libretro" {
		t.Errorf("lib name mismatch: %v", core.Lib)
	}
	if filepath.Dir(core.Lib) == "." {
		t.Errorf("lib path should be joined with the store path: %v", core.Lib)
	}
}

func TestGetCores(t *testing.T) {
	conf := load(t)
	cores := conf.Libretro.GetCores()
	sort.Slice(cores, func(i, j int) bool { return cores[i].Id < cores[j].Id })
	want := []CoreInfo{
		{Id: "gba", Name: "mgba_libretro"},
		{Id: "nes", Name: "nestopia_libretro", AltRepo: true},
	}
	if !reflect.DeepEqual(cores, want) {
		t.Errorf("GetCores() = %v, want %v", cores, want)
	}
}

func TestGetSupportedExtensions(t *testing.T) {
	conf := load(t)
	exts := conf.Libretro.GetSupportedExtensions()
	if len(exts) != 3 {
		t.Errorf("expected 3 extensions, got %v", exts)
	}
}
