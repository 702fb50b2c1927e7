package udagramevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Subscriber consumes upload events. Delivery is at-least-once, so
// implementations must be safe to run repeatedly for the same event.
type Subscriber interface {
	HandleUpload(ctx context.Context, event UploadEvent) error
}

// SubscriberFunc adapts a function to a Subscriber.
type SubscriberFunc func(ctx context.Context, event UploadEvent) error

func (fn SubscriberFunc) HandleUpload(ctx context.Context, event UploadEvent) error {
	return fn(ctx, event)
}

type namedSubscriber struct {
	name string
	sub  Subscriber
}

// Router dispatches upload events to every registered subscriber. Subscribers
// run independently; no ordering is guaranteed between them.
type Router struct {
	service udagramcli.Service
	Logger  zerolog.Logger

	subscribers []namedSubscriber
}

func NewRouter(service udagramcli.Service) *Router {
	return &Router{
		service: service,
		Logger:  udagramcli.Logger(service),
	}
}

// Subscribe registers sub under name, used in logs.
func (r *Router) Subscribe(name string, sub Subscriber) *Router {
	r.subscribers = append(r.subscribers, namedSubscriber{name: name, sub: sub})
	return r
}

// Publish runs event through all subscribers concurrently and returns their
// joined errors once all have finished.
func (r *Router) Publish(ctx context.Context, event UploadEvent) error {
	errs := make([]error, len(r.subscribers))

	var group errgroup.Group
	for i, s := range r.subscribers {
		i, s := i, s
		group.Go(func() error {
			begin := time.Now()
			if err := s.sub.HandleUpload(ctx, event); err != nil {
				r.Logger.Error().Err(err).
					Str("subscriber", s.name).
					Str("object_key", event.ObjectKey).
					Msg("subscriber failed")
				errs[i] = fmt.Errorf("%v: %w", s.name, err)
				return nil
			}
			r.Logger.Debug().
				Str("subscriber", s.name).
				Str("object_key", event.ObjectKey).
				Dur("elapsed", time.Since(begin)).
				Msg("subscriber done")
			return nil
		})
	}
	_ = group.Wait()

	return errors.Join(errs...)
}

// HandleSNSEvent unpacks S3 notifications delivered through SNS and publishes
// one UploadEvent per created object. Every record is processed; failures are
// joined and returned so the event is redelivered.
func (r *Router) HandleSNSEvent(ctx context.Context, event events.SNSEvent) error {
	var errs []error
	for _, record := range event.Records {
		if err := r.handleSNSRecord(ctx, record); err != nil {
			r.Logger.Error().Err(err).
				Str("message_id", record.SNS.MessageID).
				Msg("failed to process sns record")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Router) handleSNSRecord(ctx context.Context, record events.SNSEventRecord) error {
	var s3Event events.S3Event
	if err := json.Unmarshal([]byte(record.SNS.Message), &s3Event); err != nil {
		return fmt.Errorf("unmarshalling s3 event from sns message %v: %w", record.SNS.MessageID, err)
	}

	if len(s3Event.Records) == 0 {
		// s3:TestEvent and other bookkeeping messages carry no records
		r.Logger.Debug().Str("message_id", record.SNS.MessageID).Msg("sns message has no s3 records, skipping")
		return nil
	}

	var errs []error
	for _, s3Record := range s3Event.Records {
		if !IsObjectCreated(s3Record) {
			r.Logger.Debug().Str("event_name", s3Record.EventName).Msg("ignoring non-create s3 event")
			continue
		}

		upload, err := FromS3Record(s3Record)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		r.Logger.Info().
			Str("object_key", upload.ObjectKey).
			Str("bucket", upload.Bucket).
			Msg("processing upload")

		if err := r.Publish(ctx, upload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start runs the configured object keys through the router in console mode,
// otherwise hands HandleSNSEvent to the Lambda runtime.
func (r *Router) Start() error {
	switch {
	case udagramcli.CommonOpts.Console:
		ctx := r.Logger.WithContext(context.Background())
		var errs []error
		for _, key := range EventOpts.ObjectKeys.Value() {
			if err := r.Publish(ctx, UploadEvent{ObjectKey: key, EventTime: time.Now().UTC()}); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)

	default:
		lambda.Start(r.HandleSNSEvent)
	}
	return nil
}
