package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	udagramevents "github.com/AmbienceDigitals/udagram-go/udagram-events"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

// Publisher publishes upload notifications to the images SNS topic in the same
// shape S3 bucket notifications use, so subscribers handle both identically.
type Publisher struct {
	client   snsiface.SNSAPI
	topicArn string
}

// New creates a new Publisher.
func New(client snsiface.SNSAPI, topicArn string) *Publisher {
	return &Publisher{
		client:   client,
		topicArn: topicArn,
	}
}

// Publish sends event to the topic. It returns once SNS has accepted the
// message; subscriber delivery is SNS's responsibility.
func (p *Publisher) Publish(ctx context.Context, event udagramevents.UploadEvent) error {
	eventTime := event.EventTime
	if eventTime.IsZero() {
		eventTime = time.Now().UTC()
	}
	eventName := event.EventName
	if eventName == "" {
		eventName = "ObjectCreated:Put"
	}

	notification := events.S3Event{
		Records: []events.S3EventRecord{
			{
				EventVersion: "2.1",
				EventSource:  "aws:s3",
				EventTime:    eventTime,
				EventName:    eventName,
				S3: events.S3Entity{
					SchemaVersion: "1.0",
					Bucket:        events.S3Bucket{Name: event.Bucket},
					Object: events.S3Object{
						Key:  url.QueryEscape(event.ObjectKey),
						Size: event.Size,
					},
				},
			},
		},
	}

	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshalling s3 notification: %w", err)
	}

	_, err = p.client.PublishWithContext(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicArn),
		Subject:  aws.String("Amazon S3 Notification"),
		Message:  aws.String(string(data)),
	})
	if err != nil {
		return fmt.Errorf("publishing to sns topic %v: %w", p.topicArn, err)
	}

	return nil
}
