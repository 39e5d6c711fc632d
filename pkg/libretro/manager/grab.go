package manager

import (
	"github.com/cavaliercoder/grab"

	"github.com/retrolink/retrolink/pkg/logger"
)

type GrabDownloader struct {
	client      *grab.Client
	concurrency int
	log         *logger.Logger
}

func NewGrabDownloader(log *logger.Logger) GrabDownloader {
	return GrabDownloader{
		client:      grab.NewClient(),
		concurrency: 5,
		log:         log,
	}
}

// Request downloads to dest everything in urls and returns the paths
// of the saved files plus the keys of the ones that failed.
func (d GrabDownloader) Request(dest string, urls ...Download) (files []string, fails []string) {
	reqs := make([]*grab.Request, 0, len(urls))
	keys := map[string]string{}
	for _, url := range urls {
		req, err := grab.NewRequest(dest, url.Address)
		if err != nil {
			d.log.Error().Err(err).Msgf("couldn't make request URL: %v", url.Address)
			fails = append(fails, url.Key)
			continue
		}
		keys[url.Address] = url.Key
		reqs = append(reqs, req)
	}

	// check each response
	for resp := range d.client.DoBatch(d.concurrency, reqs...) {
		if err := resp.Err(); err != nil {
			d.log.Error().Err(err).Msg("download failed")
			fails = append(fails, keys[resp.Request.URL().String()])
		} else {
			d.log.Debug().Msgf("downloaded [%v] %v", resp.HTTPResponse.Status, resp.Filename)
			files = append(files, resp.Filename)
		}
	}
	return
}
