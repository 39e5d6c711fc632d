package raw

import "github.com/retrolink/retrolink/pkg/libretro/repo/arch"

// Repo is a single address serving one archive with all the cores,
// extracted as is.
type Repo struct {
	Address     string
	Compression string
}

func NewRawRepo(address string) Repo { return Repo{Address: address, Compression: "zip"} }

func (r Repo) GetCoreUrl(_ string, _ arch.Info) string { return r.Address }
