package processors

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStreamProcessor struct {
	supports  bool
	err       error
	processed int
}

func (s *stubStreamProcessor) DetermineRecordSupport(events.DynamoDBEventRecord) bool {
	return s.supports
}

func (s *stubStreamProcessor) ProcessRecord(context.Context, events.DynamoDBEventRecord) error {
	s.processed++
	return s.err
}

type stubSNSProcessor struct {
	supports  bool
	err       error
	processed int
}

func (s *stubSNSProcessor) DetermineRecordSupport(events.SNSEventRecord) bool {
	return s.supports
}

func (s *stubSNSProcessor) ProcessRecord(context.Context, events.SNSEventRecord) error {
	s.processed++
	return s.err
}

func TestStreamDispatcher_RoutesToEveryClaimingProcessor(t *testing.T) {
	claiming := &stubStreamProcessor{supports: true}
	alsoClaiming := &stubStreamProcessor{supports: true}
	declining := &stubStreamProcessor{supports: false}
	d := NewStreamDispatcher(zap.NewNop(), claiming, declining, alsoClaiming)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{
		insertRecord(nil),
		insertRecord(nil),
	}}

	require.NoError(t, d.HandleEvent(context.Background(), event))
	assert.Equal(t, 2, claiming.processed)
	assert.Equal(t, 2, alsoClaiming.processed)
	assert.Equal(t, 0, declining.processed)
}

func TestStreamDispatcher_UnclaimedRecordsSkipQuietly(t *testing.T) {
	d := NewStreamDispatcher(zap.NewNop(), &stubStreamProcessor{supports: false})

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{insertRecord(nil)}}

	require.NoError(t, d.HandleEvent(context.Background(), event))
}

func TestStreamDispatcher_StopsOnFirstError(t *testing.T) {
	failing := &stubStreamProcessor{supports: true, err: assert.AnError}
	after := &stubStreamProcessor{supports: true}
	d := NewStreamDispatcher(zap.NewNop(), failing, after)

	event := events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{insertRecord(nil)}}

	err := d.HandleEvent(context.Background(), event)

	require.Error(t, err)
	assert.Equal(t, 1, failing.processed)
	assert.Equal(t, 0, after.processed)
}

func TestSNSDispatcher_RoutesAndStopsOnError(t *testing.T) {
	claiming := &stubSNSProcessor{supports: true}
	d := NewSNSDispatcher(zap.NewNop(), &stubSNSProcessor{supports: false}, claiming)

	event := events.SNSEvent{Records: []events.SNSEventRecord{snsRecord(`{}`)}}
	require.NoError(t, d.HandleEvent(context.Background(), event))
	assert.Equal(t, 1, claiming.processed)

	failing := &stubSNSProcessor{supports: true, err: assert.AnError}
	d = NewSNSDispatcher(zap.NewNop(), failing)
	require.Error(t, d.HandleEvent(context.Background(), event))
}
