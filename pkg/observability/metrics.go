package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// Metrics publishes request metrics to CloudWatch. A nil receiver is a
// no-op, so callers never have to branch on whether metrics are enabled.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client
	logger    *zap.Logger
}

// NewMetrics creates a metrics instance
func NewMetrics(namespace string, client *cloudwatch.Client, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordRequest records the latency and count of a single HTTP request.
// Publishing is best-effort; a failed put is logged and dropped.
func (m *Metrics) RecordRequest(ctx context.Context, route, method string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}

	dimensions := []types.Dimension{
		{Name: aws.String("Route"), Value: aws.String(route)},
		{Name: aws.String("Method"), Value: aws.String(method)},
		{Name: aws.String("StatusClass"), Value: aws.String(statusClass(statusCode))},
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String("RequestCount"),
				Dimensions: dimensions,
				Value:      aws.Float64(1),
				Unit:       types.StandardUnitCount,
			},
			{
				MetricName: aws.String("RequestLatency"),
				Dimensions: dimensions,
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       types.StandardUnitMilliseconds,
			},
		},
	})
	if err != nil {
		m.logger.Warn("failed to publish request metrics",
			zap.String("route", route),
			zap.Error(err))
	}
}

func statusClass(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "5xx"
	case statusCode >= 400:
		return "4xx"
	case statusCode >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
