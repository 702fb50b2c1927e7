// Package udagramevents routes upload-completed notifications from the object
// store to the pipeline stages that consume them.
package udagramevents

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// UploadEvent is one completed write of an original image to storage.
type UploadEvent struct {
	ObjectKey string    `json:"objectKey"`
	Bucket    string    `json:"bucket,omitempty"`
	Size      int64     `json:"size,omitempty"`
	EventName string    `json:"eventName,omitempty"`
	EventTime time.Time `json:"eventTime,omitempty"`
}

// FromS3Record converts an S3 notification record into an UploadEvent. S3
// form-encodes object keys in notifications, so the key is decoded here.
func FromS3Record(record events.S3EventRecord) (UploadEvent, error) {
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return UploadEvent{}, fmt.Errorf("invalid object key %q: %w", record.S3.Object.Key, err)
	}
	if key == "" {
		return UploadEvent{}, fmt.Errorf("s3 record %v has no object key", record.EventName)
	}

	return UploadEvent{
		ObjectKey: key,
		Bucket:    record.S3.Bucket.Name,
		Size:      record.S3.Object.Size,
		EventName: record.EventName,
		EventTime: record.EventTime,
	}, nil
}

// IsObjectCreated reports whether the record describes a new object.
func IsObjectCreated(record events.S3EventRecord) bool {
	return strings.HasPrefix(record.EventName, "ObjectCreated:")
}
