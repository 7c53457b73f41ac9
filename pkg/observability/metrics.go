package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CloudWatchAPI is the subset of the CloudWatch client used by Metrics
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes counters and timers to CloudWatch.
// Datapoints are buffered and flushed in batches; a failed flush drops the
// batch rather than blocking callers.
type Metrics struct {
	namespace string
	client    CloudWatchAPI

	mu     sync.Mutex
	buffer []types.MetricDatum
}

const flushThreshold = 20 // CloudWatch PutMetricData caps at 1000, stay well under

// NewMetrics creates a new metrics publisher
func NewMetrics(namespace string, client CloudWatchAPI) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
	}
}

// Increment records a count of 1 for the metric with the given label
func (m *Metrics) Increment(metric, label string) {
	m.record(types.MetricDatum{
		MetricName: aws.String(metric),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: []types.Dimension{
			{Name: aws.String("Label"), Value: aws.String(label)},
		},
	})
}

// Timer measures a duration and records it on Stop
type Timer struct {
	metrics *Metrics
	metric  string
	label   string
	start   time.Time
}

// StartTimer begins timing an operation
func (m *Metrics) StartTimer(metric, label string) *Timer {
	return &Timer{
		metrics: m,
		metric:  metric,
		label:   label,
		start:   time.Now(),
	}
}

// Stop records the elapsed time in milliseconds
func (t *Timer) Stop() {
	elapsed := time.Since(t.start)
	t.metrics.record(types.MetricDatum{
		MetricName: aws.String(t.metric),
		Value:      aws.Float64(float64(elapsed.Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: []types.Dimension{
			{Name: aws.String("Label"), Value: aws.String(t.label)},
		},
	})
}

func (m *Metrics) record(datum types.MetricDatum) {
	m.mu.Lock()
	m.buffer = append(m.buffer, datum)
	shouldFlush := len(m.buffer) >= flushThreshold
	var batch []types.MetricDatum
	if shouldFlush {
		batch = m.buffer
		m.buffer = nil
	}
	m.mu.Unlock()

	if shouldFlush {
		go m.flush(batch)
	}
}

// Flush publishes any buffered datapoints immediately
func (m *Metrics) Flush() {
	m.mu.Lock()
	batch := m.buffer
	m.buffer = nil
	m.mu.Unlock()

	if len(batch) > 0 {
		m.flush(batch)
	}
}

func (m *Metrics) flush(batch []types.MetricDatum) {
	if m.client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Best effort: metrics are never worth failing a request over
	_, _ = m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: batch,
	})
}
