package repo

import (
	"github.com/retrolink/retrolink/pkg/libretro/repo/arch"
	"github.com/retrolink/retrolink/pkg/libretro/repo/buildbot"
	"github.com/retrolink/retrolink/pkg/libretro/repo/github"
	"github.com/retrolink/retrolink/pkg/libretro/repo/raw"
)

type Repository interface {
	GetCoreUrl(file string, info arch.Info) (url string)
}

func New(kind string, url string, compression string, defaultRepo string) Repository {
	var repository Repository
	switch kind {
	case "raw":
		repository = raw.NewRawRepo(url)
	case "github":
		repository = github.NewGithubRepo(url, compression)
	case "buildbot":
		repository = buildbot.NewBuildbotRepo(url, compression)
	default:
		if defaultRepo != "" {
			repository = New(defaultRepo, url, compression, "")
		}
	}
	return repository
}
