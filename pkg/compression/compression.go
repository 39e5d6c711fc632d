package compression

import (
	"path/filepath"

	"github.com/retrolink/retrolink/pkg/compression/zip"
	"github.com/retrolink/retrolink/pkg/logger"
)

type Extractor interface {
	Extract(src string, dest string) ([]string, error)
}

func NewFromExt(path string, log *logger.Logger) Extractor {
	switch filepath.Ext(path) {
	case zip.Ext:
		return zip.New(log)
	default:
		return nil
	}
}
