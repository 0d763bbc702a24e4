package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salespulse/internal/infrastructure"
	contract "salespulse/pkg/contracts/events"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, env contract.Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

func (m *MockPublisher) Name() string {
	return m.Called().String(0)
}

// fakeKafkaWriter implements kafkaMessageWriter for tests
type fakeKafkaWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	fail   bool
	closed bool
}

func (f *fakeKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	f.closed = true
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewEnvelope(t *testing.T) {
	ctx := infrastructure.WithTraceID(context.Background(), "trace-123")

	env := NewEnvelope(ctx, contract.EventUploadProcessed, contract.UploadProcessed{FileID: "1"})

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "trace-123", env.TraceID)
	assert.Equal(t, contract.EventUploadProcessed, env.Type)
	assert.WithinDuration(t, time.Now(), env.Timestamp, time.Minute)
}

func TestFanoutPublishesToAll(t *testing.T) {
	first := new(MockPublisher)
	second := new(MockPublisher)
	env := contract.Envelope{ID: "evt-1", Type: contract.EventUploadProcessed}

	first.On("Publish", mock.Anything, env).Return(nil).Once()
	first.On("Name").Return("first")
	second.On("Publish", mock.Anything, env).Return(nil).Once()
	second.On("Name").Return("second")

	f := NewFanout(time.Second, discardLogger(), first, second)
	require.NoError(t, f.Publish(context.Background(), env))

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestFanoutContinuesAfterFailure(t *testing.T) {
	failing := new(MockPublisher)
	working := new(MockPublisher)
	env := contract.Envelope{ID: "evt-2"}

	failing.On("Publish", mock.Anything, env).Return(errors.New("boom"))
	failing.On("Name").Return("failing")
	working.On("Publish", mock.Anything, env).Return(nil).Once()
	working.On("Name").Return("working")

	f := NewFanout(0, discardLogger(), failing, working)
	err := f.Publish(context.Background(), env)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: boom")
	working.AssertExpectations(t)
}

func TestFanoutAppliesTimeout(t *testing.T) {
	p := new(MockPublisher)
	p.On("Name").Return("slow")
	p.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(nil).Once()

	f := NewFanout(50*time.Millisecond, discardLogger(), p)
	require.NoError(t, f.Publish(context.Background(), contract.Envelope{}))
	p.AssertExpectations(t)
}

func TestKafkaPublisher(t *testing.T) {
	fk := &fakeKafkaWriter{}
	k := newKafkaPublisherWith(fk, "salespulse.uploads")
	env := contract.Envelope{
		ID:   "evt-3",
		Type: contract.EventUploadProcessed,
		Data: contract.UploadProcessed{FileID: "1700000000", RecordCount: 4},
	}

	require.NoError(t, k.Publish(context.Background(), env))
	require.Len(t, fk.msgs, 1)

	msg := fk.msgs[0]
	assert.Equal(t, []byte("evt-3"), msg.Key)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("upload.processed"), msg.Headers[0].Value)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "1700000000", decoded["data"].(map[string]interface{})["file_id"])

	require.NoError(t, k.Close())
	assert.True(t, fk.closed)
	assert.Equal(t, "kafka", k.Name())
}

func TestKafkaPublisherError(t *testing.T) {
	k := newKafkaPublisherWith(&fakeKafkaWriter{fail: true}, "salespulse.uploads")

	err := k.Publish(context.Background(), contract.Envelope{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write to salespulse.uploads")
}

func TestNewKafkaPublisherParsesBrokers(t *testing.T) {
	k := NewKafkaPublisher(" localhost:9092, ,broker:9093 ", "topic")

	w, ok := k.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "topic", w.Topic)
	assert.NotNil(t, w.Addr)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
}
