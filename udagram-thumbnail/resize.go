package udagramthumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	// decoders for the formats accepted as originals
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrTooLarge is wrapped when the original or its thumbnail exceeds the pixel
// limit.
var ErrTooLarge = errors.New("image exceeds pixel limit")

// DecodeError reports that an object's bytes are not a decodable image.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unable to decode image %v: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ScaledHeight returns the height that keeps the aspect ratio of a
// srcWidth x srcHeight image scaled to width.
func ScaledHeight(srcWidth, srcHeight, width int) int {
	h := int(math.Round(float64(srcHeight) * float64(width) / float64(srcWidth)))
	if h < 1 {
		h = 1
	}
	return h
}

// Resize decodes data, scales it to width preserving the aspect ratio and
// encodes the result as JPEG. The output is deterministic for a given input.
// Both the original and the scaled image must fit in maxPixels; the header is
// checked before any pixel is decoded.
func Resize(data []byte, width, quality int, maxPixels int64) ([]byte, image.Rectangle, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, image.Rectangle{}, fmt.Errorf("%v image has no pixels", format)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, image.Rectangle{}, fmt.Errorf("%w: %v original is %vx%v", ErrTooLarge, format, cfg.Width, cfg.Height)
	}

	height := ScaledHeight(cfg.Width, cfg.Height, width)
	if pixels := int64(width) * int64(height); pixels > maxPixels {
		return nil, image.Rectangle{}, fmt.Errorf("%w: thumbnail of %v original %vx%v would be %vx%v", ErrTooLarge, format, cfg.Width, cfg.Height, width, height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, image.Rectangle{}, err
	}

	rect := image.Rect(0, 0, width, height)
	dst := image.NewRGBA(rect)
	xdraw.CatmullRom.Scale(dst, rect, src, src.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), rect, nil
}
