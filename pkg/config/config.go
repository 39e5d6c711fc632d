package config

import (
	"path"
	"path/filepath"
)

// Config is the root configuration of the library host.
type Config struct {
	Libretro LibretroConfig
}

type LibretroConfig struct {
	Cores struct {
		Paths struct {
			Libs string
		}
		Repo struct {
			Sync      bool
			ExtLock   string
			Main      LibretroRepoConfig
			Secondary LibretroRepoConfig
		}
		List map[string]LibretroCoreConfig
	}
	SaveCompression bool
	Storage         string
	LogLevel        int
}

type LibretroRepoConfig struct {
	Type        string
	Url         string
	Compression string
}

type LibretroCoreConfig struct {
	AltRepo bool
	Folder  string
	Lib     string
	Options map[string]string
	Roms    []string
}

type CoreInfo struct {
	Id      string
	Name    string
	AltRepo bool
}

// GetCoreConfig returns a core config with expanded paths.
func (l LibretroConfig) GetCoreConfig(core string) LibretroCoreConfig {
	cores := l.Cores
	conf := cores.List[core]
	conf.Lib = path.Join(cores.Paths.Libs, conf.Lib)
	return conf
}

func (l *LibretroConfig) GetCores() (cores []CoreInfo) {
	for k, core := range l.Cores.List {
		cores = append(cores, CoreInfo{Id: k, Name: core.Lib, AltRepo: core.AltRepo})
	}
	return
}

func (l *LibretroConfig) GetCoresStorePath() string {
	pth, err := filepath.Abs(l.Cores.Paths.Libs)
	if err != nil {
		return ""
	}
	return pth
}

func (l *LibretroConfig) GetSupportedExtensions() []string {
	var extensions []string
	for _, core := range l.Cores.List {
		extensions = append(extensions, core.Roms...)
	}
	return extensions
}
