// Package udagramthumbnail derives fixed-width JPEG thumbnails from uploaded
// originals.
package udagramthumbnail

import (
	"context"
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	udagramevents "github.com/AmbienceDigitals/udagram-go/udagram-events"
	udagramstorage "github.com/AmbienceDigitals/udagram-go/udagram-storage"
	"github.com/rs/zerolog"
)

const (
	// Width of every thumbnail, in pixels.
	Width = 150

	DefaultQuality   = 85
	DefaultTimeout   = 30 * time.Second
	DefaultMaxPixels = 40_000_000

	derivativeSuffix = ".jpeg"
	contentType      = "image/jpeg"
)

// Derivative is the resized image written back to storage.
type Derivative struct {
	SourceKey     string
	DerivativeKey string
	Bytes         []byte
	Width         int
	Height        int
}

// DerivativeKey returns the key the thumbnail of sourceKey is stored under.
func DerivativeKey(sourceKey string) string {
	return sourceKey + derivativeSuffix
}

// Transformer reads originals from Images and writes thumbnails to Thumbnails.
type Transformer struct {
	Images     udagramstorage.Store
	Thumbnails udagramstorage.Store
	Logger     zerolog.Logger
	Metrics    udagramcli.Recorder
	Quality    int           // jpeg quality (default 85)
	Timeout    time.Duration // per storage call (default 30s)
	MaxPixels  int64         // limit for the original and the thumbnail (default 40M)
	Dry        bool          // compute but don't write the derivative
}

// Transform builds and stores the thumbnail for sourceKey. Running it again for
// the same key overwrites the same derivative with identical bytes.
func (t *Transformer) Transform(ctx context.Context, sourceKey string) (Derivative, error) {
	begin := time.Now()
	logger := t.Logger.With().Str("object_key", sourceKey).Logger()

	original, err := t.get(ctx, sourceKey)
	if err != nil {
		return Derivative{}, err
	}

	data, rect, err := Resize(original, Width, t.quality(), t.maxPixels())
	if err != nil {
		return Derivative{}, &DecodeError{Key: sourceKey, Err: err}
	}

	derivative := Derivative{
		SourceKey:     sourceKey,
		DerivativeKey: DerivativeKey(sourceKey),
		Bytes:         data,
		Width:         rect.Dx(),
		Height:        rect.Dy(),
	}

	if t.Dry {
		logger.Info().
			Str("derivative_key", derivative.DerivativeKey).
			Int("size", len(data)).
			Msg("dry run, not writing thumbnail")
		return derivative, nil
	}

	if err := t.put(ctx, derivative); err != nil {
		return Derivative{}, err
	}

	logger.Info().
		Str("derivative_key", derivative.DerivativeKey).
		Int("width", derivative.Width).
		Int("height", derivative.Height).
		Int("size", len(data)).
		Dur("elapsed", time.Since(begin)).
		Msg("thumbnail written")

	if t.Metrics != nil {
		t.Metrics.Count(ctx, udagramcli.ThumbnailCreatedMetric, 1)
		t.Metrics.Timing(ctx, udagramcli.ThumbnailTimeMetric, begin)
	}
	return derivative, nil
}

// HandleUpload implements udagramevents.Subscriber.
func (t *Transformer) HandleUpload(ctx context.Context, event udagramevents.UploadEvent) error {
	_, err := t.Transform(ctx, event.ObjectKey)
	return err
}

func (t *Transformer) get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout())
	defer cancel()
	return t.Images.Get(ctx, key)
}

func (t *Transformer) put(ctx context.Context, d Derivative) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout())
	defer cancel()
	return t.Thumbnails.Put(ctx, d.DerivativeKey, d.Bytes, contentType)
}

func (t *Transformer) quality() int {
	if t.Quality <= 0 || t.Quality > 100 {
		return DefaultQuality
	}
	return t.Quality
}

func (t *Transformer) maxPixels() int64 {
	if t.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return t.MaxPixels
}

func (t *Transformer) timeout() time.Duration {
	if t.Timeout <= 0 {
		return DefaultTimeout
	}
	return t.Timeout
}
