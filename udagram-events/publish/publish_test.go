package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	udagramevents "github.com/AmbienceDigitals/udagram-go/udagram-events"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/tj/assert"
)

type fakeSNS struct {
	snsiface.SNSAPI
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) PublishWithContext(_ aws.Context, input *sns.PublishInput, _ ...request.Option) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("id-1")}, nil
}

func TestPublisher(t *testing.T) {
	t.Run("publishes an s3 shaped notification", func(t *testing.T) {
		api := &fakeSNS{}
		publisher := New(api, "arn:aws:sns:us-east-1:123456789012:imagesTopic-dev")

		err := publisher.Publish(context.Background(), udagramevents.UploadEvent{ObjectKey: "holiday photo.png", Bucket: "images", Size: 7})
		assert.NoError(t, err)
		assert.Len(t, api.inputs, 1)
		assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:imagesTopic-dev", aws.StringValue(api.inputs[0].TopicArn))

		var s3Event events.S3Event
		assert.NoError(t, json.Unmarshal([]byte(aws.StringValue(api.inputs[0].Message)), &s3Event))
		assert.Len(t, s3Event.Records, 1)
		assert.True(t, udagramevents.IsObjectCreated(s3Event.Records[0]))

		// the router decodes what the publisher encodes
		event, err := udagramevents.FromS3Record(s3Event.Records[0])
		assert.NoError(t, err)
		assert.Equal(t, "holiday photo.png", event.ObjectKey)
		assert.Equal(t, "images", event.Bucket)
	})

	t.Run("errors are wrapped", func(t *testing.T) {
		api := &fakeSNS{err: fmt.Errorf("AuthorizationError")}
		err := New(api, "arn").Publish(context.Background(), udagramevents.UploadEvent{ObjectKey: "a.png"})
		assert.Error(t, err)
	})
}
