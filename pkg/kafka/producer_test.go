package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestProducer_PublishEncodesJSON(t *testing.T) {
	w := &captureWriter{}
	p := NewProducerWithWriter(w, "snappy")

	require.NoError(t, p.Publish(context.Background(), "actions", []byte("bot"), map[string]string{"action": "Breakout Confirmed"}))
	require.NoError(t, p.PublishMessage(context.Background(), "logs", "raw"))
	require.NoError(t, p.PublishBatch(context.Background(), "actions", nil))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "actions", w.msgs[0].Topic)
	assert.Equal(t, []byte("bot"), w.msgs[0].Key)
	assert.JSONEq(t, `{"action":"Breakout Confirmed"}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
}

func TestProducer_WrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := NewProducerWithWriter(&captureWriter{err: boom}, "snappy")
	err := p.Publish(context.Background(), "actions", nil, "x")
	assert.ErrorIs(t, err, boom)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}
