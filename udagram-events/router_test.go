package udagramevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

type recorder struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (r *recorder) HandleUpload(_ context.Context, event UploadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, event.ObjectKey)
	return r.err
}

func newTestRouter(subs ...*recorder) *Router {
	router := NewRouter(udagramcli.Service{Name: "test"})
	router.Logger = zerolog.Nop()
	for i, sub := range subs {
		router.Subscribe(fmt.Sprintf("sub-%v", i), sub)
	}
	return router
}

func snsMessage(t *testing.T, s3Event events.S3Event) events.SNSEventRecord {
	data, err := json.Marshal(s3Event)
	assert.NoError(t, err)
	return events.SNSEventRecord{SNS: events.SNSEntity{MessageID: "m-1", Message: string(data)}}
}

func created(key string) events.S3EventRecord {
	return events.S3EventRecord{
		EventName: "ObjectCreated:Put",
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: "images"},
			Object: events.S3Object{Key: key, Size: 42},
		},
	}
}

func TestRouterPublish(t *testing.T) {
	t.Run("dispatches to every subscriber", func(t *testing.T) {
		a, b := &recorder{}, &recorder{}
		router := newTestRouter(a, b)

		err := router.Publish(context.Background(), UploadEvent{ObjectKey: "photo1.png"})
		assert.NoError(t, err)
		assert.Equal(t, []string{"photo1.png"}, a.keys)
		assert.Equal(t, []string{"photo1.png"}, b.keys)
	})

	t.Run("one failing subscriber does not stop the other", func(t *testing.T) {
		boom := errors.New("boom")
		a, b := &recorder{err: boom}, &recorder{}
		router := newTestRouter(a, b)

		err := router.Publish(context.Background(), UploadEvent{ObjectKey: "photo1.png"})
		assert.True(t, errors.Is(err, boom))
		assert.Equal(t, []string{"photo1.png"}, b.keys)
	})

	t.Run("subscriber func", func(t *testing.T) {
		var got string
		router := newTestRouter()
		router.Subscribe("fn", SubscriberFunc(func(_ context.Context, event UploadEvent) error {
			got = event.ObjectKey
			return nil
		}))
		assert.NoError(t, router.Publish(context.Background(), UploadEvent{ObjectKey: "x.gif"}))
		assert.Equal(t, "x.gif", got)
	})
}

func TestRouterHandleSNSEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes keys and skips non-create records", func(t *testing.T) {
		sub := &recorder{}
		router := newTestRouter(sub)

		removed := created("old.png")
		removed.EventName = "ObjectRemoved:Delete"

		err := router.HandleSNSEvent(ctx, events.SNSEvent{
			Records: []events.SNSEventRecord{
				snsMessage(t, events.S3Event{Records: []events.S3EventRecord{
					created("holiday+photo%281%29.png"),
					removed,
					created("photo1.png"),
				}}),
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"holiday photo(1).png", "photo1.png"}, sub.keys)
	})

	t.Run("test events are skipped", func(t *testing.T) {
		sub := &recorder{}
		router := newTestRouter(sub)

		err := router.HandleSNSEvent(ctx, events.SNSEvent{
			Records: []events.SNSEventRecord{
				{SNS: events.SNSEntity{Message: `{"Service":"Amazon S3","Event":"s3:TestEvent","Bucket":"images"}`}},
			},
		})
		assert.NoError(t, err)
		assert.Len(t, sub.keys, 0)
	})

	t.Run("malformed records fail without blocking the rest", func(t *testing.T) {
		sub := &recorder{}
		router := newTestRouter(sub)

		err := router.HandleSNSEvent(ctx, events.SNSEvent{
			Records: []events.SNSEventRecord{
				{SNS: events.SNSEntity{MessageID: "bad", Message: "not json"}},
				snsMessage(t, events.S3Event{Records: []events.S3EventRecord{created("a.png"), created("")}}),
				snsMessage(t, events.S3Event{Records: []events.S3EventRecord{created("b.png")}}),
			},
		})
		assert.Error(t, err)
		sort.Strings(sub.keys)
		assert.Equal(t, []string{"a.png", "b.png"}, sub.keys)
	})

	t.Run("subscriber errors are returned for redelivery", func(t *testing.T) {
		boom := errors.New("throttled")
		router := newTestRouter(&recorder{err: boom})

		err := router.HandleSNSEvent(ctx, events.SNSEvent{
			Records: []events.SNSEventRecord{snsMessage(t, events.S3Event{Records: []events.S3EventRecord{created("a.png")}})},
		})
		assert.True(t, errors.Is(err, boom))
	})
}

func TestFromS3Record(t *testing.T) {
	record := created("folder/cat%20pic.jpg")
	event, err := FromS3Record(record)
	assert.NoError(t, err)
	assert.Equal(t, "folder/cat pic.jpg", event.ObjectKey)
	assert.Equal(t, "images", event.Bucket)
	assert.EqualValues(t, 42, event.Size)

	_, err = FromS3Record(created("%zz"))
	assert.Error(t, err)
}
