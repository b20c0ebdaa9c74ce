package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Omnitrade/internal/domain/models"
	domrepo "Omnitrade/internal/domain/repository"
)

var ErrBufferFull = errors.New("publish buffer full")

// BufferedPublisher sits between the governance cycle and the broker. Action
// batches that fail to publish are parked in a bounded buffer and retried in
// the background, so a broker outage never stalls a cycle. Governance frames
// are superseded every cycle and pass straight through.
type BufferedPublisher struct {
	next       domrepo.Publisher
	metrics    domrepo.Metrics
	bufSize    int
	bufCh      chan []models.ActionRecord
	stopCh     chan struct{}
	done       chan struct{}
	started    bool
	mu         sync.Mutex
	backoffMin time.Duration
	backoffMax time.Duration
}

type BufferOption func(*BufferedPublisher)

// WithBufferSize sets how many action batches may wait for the broker.
func WithBufferSize(n int) BufferOption {
	return func(p *BufferedPublisher) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithRetryBackoff bounds the delay between flush attempts.
func WithRetryBackoff(min, max time.Duration) BufferOption {
	return func(p *BufferedPublisher) {
		if min > 0 && max >= min {
			p.backoffMin, p.backoffMax = min, max
		}
	}
}

func NewBufferedPublisher(next domrepo.Publisher, metrics domrepo.Metrics, opts ...BufferOption) *BufferedPublisher {
	p := &BufferedPublisher{
		next:       next,
		metrics:    metrics,
		bufSize:    256,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
		backoffMin: 50 * time.Millisecond,
		backoffMax: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan []models.ActionRecord, p.bufSize)
	return p
}

// Start launches background flushing of buffered batches.
func (p *BufferedPublisher) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		backoff := p.backoffMin
		for {
			select {
			case <-p.stopCh:
				return
			case batch := <-p.bufCh:
				if err := p.next.PublishActions(ctx, batch); err != nil {
					p.metrics.RecordError("publish_buffer_flush")
					if backoff < p.backoffMax {
						backoff *= 2
						if backoff > p.backoffMax {
							backoff = p.backoffMax
						}
					}
					p.requeue(batch)
					select {
					case <-time.After(backoff):
					case <-p.stopCh:
						return
					}
					continue
				}
				backoff = p.backoffMin
			}
		}
	}()
}

// Stop ends background flushing. Batches still buffered are dropped.
func (p *BufferedPublisher) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.done
}

// PublishActions forwards the batch, buffering it when the broker rejects it.
// It only fails when the batch is invalid or the buffer is full.
func (p *BufferedPublisher) PublishActions(ctx context.Context, records []models.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			p.metrics.RecordError("publish_buffer_validate")
			return err
		}
	}
	err := p.next.PublishActions(ctx, records)
	if err == nil {
		return nil
	}
	p.metrics.RecordError("publish_actions")
	batch := append([]models.ActionRecord(nil), records...)
	if !p.requeue(batch) {
		return fmt.Errorf("%w: %v", ErrBufferFull, err)
	}
	return nil
}

func (p *BufferedPublisher) PublishGovernance(ctx context.Context, payload *models.Payload) error {
	return p.next.PublishGovernance(ctx, payload)
}

// Pending reports how many batches are waiting.
func (p *BufferedPublisher) Pending() int { return len(p.bufCh) }

func (p *BufferedPublisher) Close() error {
	p.Stop()
	return p.next.Close()
}

func (p *BufferedPublisher) requeue(batch []models.ActionRecord) bool {
	select {
	case p.bufCh <- batch:
		return true
	default:
		p.metrics.RecordError("publish_buffer_drop")
		return false
	}
}

var _ domrepo.Publisher = (*BufferedPublisher)(nil)
