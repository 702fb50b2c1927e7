package udagramcli

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/rs/zerolog"
)

const metricsNamespace = "udagram-services"

// Recorder is the subset of Metrics the pipeline components depend on.
type Recorder interface {
	Count(ctx context.Context, name MetricName, value int, dimensions ...map[DimensionName]string)
	Timing(ctx context.Context, name MetricName, start time.Time, dimensions ...map[DimensionName]string)
}

type Metrics struct {
	service    Service
	cloudwatch cloudwatchiface.CloudWatchAPI
	logger     zerolog.Logger
}

func NewMetrics(service Service, cloudwatch cloudwatchiface.CloudWatchAPI) Metrics {
	return Metrics{
		service:    service,
		cloudwatch: cloudwatch,
		logger:     Logger(service),
	}
}

type MetricName string

const (
	NotificationSentMetric   MetricName = "NotificationSent"
	NotificationFailedMetric MetricName = "NotificationFailed"
	ConnectionPrunedMetric   MetricName = "ConnectionPruned"
	ThumbnailCreatedMetric   MetricName = "ThumbnailCreated"
	ThumbnailTimeMetric      MetricName = "ThumbnailTime"
)

type DimensionName string

const (
	ServiceNameDimension    DimensionName = "Service"
	ServiceVersionDimension DimensionName = "Version"
	OperationNameDimension  DimensionName = "OperationName"
)

func mapToDimensions(ms ...map[DimensionName]string) []*cloudwatch.Dimension {
	var dimensions []*cloudwatch.Dimension
	for _, ds := range ms {
		for k, v := range ds {
			if v == "" {
				continue
			}
			dimensions = append(dimensions, &cloudwatch.Dimension{
				Name:  aws.String(string(k)),
				Value: aws.String(v),
			})
		}
	}
	return dimensions
}

func (m Metrics) put(ctx context.Context, name MetricName, unit string, value float64, dimensions []map[DimensionName]string) {
	awsDimensions := mapToDimensions(append(dimensions, m.service.Dimensions())...)
	_, err := m.cloudwatch.PutMetricDataWithContext(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricsNamespace),
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(string(name)),
				Timestamp:  aws.Time(time.Now()),
				Unit:       aws.String(unit),
				Value:      aws.Float64(value),
				Dimensions: awsDimensions,
			},
		},
	})
	if err != nil {
		m.logger.Warn().Err(err).Str("metric", string(name)).Msg("couldn't publish metric")
	}
}

func (m Metrics) Count(ctx context.Context, name MetricName, value int, dimensions ...map[DimensionName]string) {
	m.put(ctx, name, cloudwatch.StandardUnitCount, float64(value), dimensions)
}

func (m Metrics) Timing(ctx context.Context, name MetricName, start time.Time, dimensions ...map[DimensionName]string) {
	m.put(ctx, name, cloudwatch.StandardUnitMilliseconds, float64(time.Since(start).Milliseconds()), dimensions)
}
