package udagramthumbnail

import (
	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/urfave/cli/v2"
)

var ThumbnailOpts struct {
	Quality   int
	MaxPixels int
}

var QualityFlag = udagramcli.IntFlag("jpeg-quality", "JPEG quality of generated thumbnails, 1-100", &ThumbnailOpts.Quality, DefaultQuality)
var MaxPixelsFlag = udagramcli.IntFlag("max-pixels", "Largest original or thumbnail, in pixels, that will be decoded or allocated", &ThumbnailOpts.MaxPixels, DefaultMaxPixels)

var ThumbnailFlags = []cli.Flag{
	QualityFlag,
	MaxPixelsFlag,
}
