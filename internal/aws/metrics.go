package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics publishes counters and amounts to a CloudWatch namespace.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetrics returns a Metrics bound to a namespace.
func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		CloudWatch: cw,
		Namespace:  namespace,
		nowFunc:    time.Now,
	}
}

// Count records a single count datum.
func (m *Metrics) Count(ctx context.Context, name string, value float64) error {
	return m.put(ctx, name, value, cwtypes.StandardUnitCount)
}

// Amount records a monetary amount. CloudWatch has no currency unit, so it is sent unitless.
func (m *Metrics) Amount(ctx context.Context, name string, value float64) error {
	return m.put(ctx, name, value, cwtypes.StandardUnitNone)
}

func (m *Metrics) put(ctx context.Context, name string, value float64, unit cwtypes.StandardUnit) error {
	if m == nil || m.CloudWatch == nil {
		return nil
	}
	now := m.nowFunc()
	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(m.Namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String(name),
				Value:      sdkaws.Float64(value),
				Unit:       unit,
				Timestamp:  &now,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric %s: %w", name, err)
	}
	return nil
}
