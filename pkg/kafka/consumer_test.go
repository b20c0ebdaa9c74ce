package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReader(values ...string) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(values))}
	for i, v := range values {
		r.msgs <- kafka.Message{Offset: int64(i), Value: []byte(v)}
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type recordingHandler struct {
	mu       sync.Mutex
	seen     []string
	failures map[string]int
	err      error
}

func (h *recordingHandler) Topic() string { return "risk" }

func (h *recordingHandler) Handle(_ context.Context, b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := string(b)
	if h.failures[v] > 0 {
		h.failures[v]--
		return fmt.Errorf("transient %s", v)
	}
	if h.err != nil && v == "bad" {
		return h.err
	}
	h.seen = append(h.seen, v)
	return nil
}

func (h *recordingHandler) values() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func TestConsumer_HandlesRetriesAndCommits(t *testing.T) {
	reader := newFakeReader("a", "flaky", "bad", "b")
	h := &recordingHandler{
		failures: map[string]int{"flaky": 2},
		err:      fmt.Errorf("decode: %w", ErrPermanent),
	}

	c := NewConsumerWithReaders(nil, func(string) Reader { return reader },
		WithConsumerWorkers(1),
		WithConsumerRetry(3, time.Millisecond, 2*time.Millisecond),
	)
	c.RegisterHandler(h)
	require.NoError(t, c.Start())

	require.Eventually(t, func() bool { return reader.commits() == 4 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))

	assert.Equal(t, []string{"a", "flaky", "b"}, h.values())
	assert.True(t, reader.closed)
}

func TestConsumer_StartWithoutHandlers(t *testing.T) {
	c := NewConsumerWithReaders(nil, func(string) Reader { return newFakeReader() })
	assert.Error(t, c.Start())
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
	assert.True(t, errors.Is(fmt.Errorf("x: %w", ErrPermanent), ErrPermanent))
}
