package udagramrest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	udagramevents "github.com/AmbienceDigitals/udagram-go/udagram-events"
	udagramstorage "github.com/AmbienceDigitals/udagram-go/udagram-storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxUploadSize       = 10 << 20
	DefaultSignedURLExpiration = 300 * time.Second
)

// Publisher announces a stored upload to the pipeline.
type Publisher interface {
	Publish(ctx context.Context, event udagramevents.UploadEvent) error
}

// URLSigner grants a client direct upload access to one key.
type URLSigner interface {
	PresignPut(key string, expiry time.Duration) (string, error)
}

// Uploads stores images and announces them.
type Uploads struct {
	Images        udagramstorage.Store
	Bucket        string
	Publisher     Publisher // nil disables publishing
	MaxUploadSize int64
	Now           func() time.Time

	// Signer enables POST /images/upload-url. Clients upload straight to the
	// bucket, whose own notification starts the pipeline.
	Signer              URLSigner
	SignedURLExpiration time.Duration
}

type uploadResponse struct {
	ImageKey  string `json:"imageKey"`
	UploadURL string `json:"uploadUrl,omitempty"`
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

func (u *Uploads) Routes(r chi.Router) {
	r.Get("/healthz", u.healthz)
	r.Post("/images", u.create)
	if u.Signer != nil {
		r.Post("/images/upload-url", u.uploadURL)
	}
	r.Put("/images/*", u.put)
}

func (u *Uploads) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (u *Uploads) create(w http.ResponseWriter, req *http.Request) {
	contentType := mediaType(req.Header.Get("Content-Type"))
	u.store(w, req, uuid.NewString()+extensions[contentType])
}

// uploadURL mints a key and a presigned PUT url for it. The key's extension
// comes from the contentType query parameter.
func (u *Uploads) uploadURL(w http.ResponseWriter, req *http.Request) {
	key := uuid.NewString() + extensions[mediaType(req.URL.Query().Get("contentType"))]
	logger := zerolog.Ctx(req.Context()).With().Str("object_key", key).Logger()

	expiry := u.SignedURLExpiration
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiration
	}

	uploadURL, err := u.Signer.PresignPut(key, expiry)
	if err != nil {
		logger.Error().Err(err).Msg("failed to presign upload url")
		writeError(w, http.StatusBadGateway, "unable to create upload url")
		return
	}

	logger.Info().Dur("expiry", expiry).Msg("upload url issued")
	writeJSON(w, http.StatusCreated, uploadResponse{ImageKey: key, UploadURL: uploadURL})
}

func (u *Uploads) put(w http.ResponseWriter, req *http.Request) {
	key := chi.URLParam(req, "*")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing image key")
		return
	}
	u.store(w, req, key)
}

func (u *Uploads) store(w http.ResponseWriter, req *http.Request, key string) {
	ctx := req.Context()
	logger := zerolog.Ctx(ctx).With().Str("object_key", key).Logger()

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, u.maxUploadSize()))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "unable to read body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty body")
		return
	}

	contentType := req.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := u.Images.Put(ctx, key, body, contentType); err != nil {
		logger.Error().Err(err).Msg("failed to store image")
		writeError(w, http.StatusBadGateway, "unable to store image")
		return
	}

	if u.Publisher != nil {
		event := udagramevents.UploadEvent{
			ObjectKey: key,
			Bucket:    u.Bucket,
			Size:      int64(len(body)),
			EventName: "ObjectCreated:Put",
			EventTime: u.now(),
		}
		if err := u.Publisher.Publish(ctx, event); err != nil {
			logger.Error().Err(err).Msg("failed to publish upload event")
			writeError(w, http.StatusBadGateway, "unable to publish upload event")
			return
		}
	}

	logger.Info().Int("size", len(body)).Msg("image uploaded")
	writeJSON(w, http.StatusAccepted, uploadResponse{ImageKey: key})
}

func (u *Uploads) maxUploadSize() int64 {
	if u.MaxUploadSize > 0 {
		return u.MaxUploadSize
	}
	return DefaultMaxUploadSize
}

func (u *Uploads) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now().UTC()
}

func mediaType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
