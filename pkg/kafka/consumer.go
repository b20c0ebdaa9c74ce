package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	applogger "Omnitrade/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Reader is the part of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReaderFactory opens a reader for a topic.
type ReaderFactory func(topic string) Reader

// Consumer fetches from one reader per registered topic and fans messages out
// to a worker pool. Offsets are committed after the handler succeeds or
// exhausts its retries, so a poison message cannot stall a partition.
type Consumer struct {
	cfg       *ConsumerConfig
	newReader ReaderFactory
	log       *applogger.Logger

	handlers map[string]MessageHandler
	readers  map[string]Reader
	msgs     chan kafka.Message

	stop     chan struct{}
	fetchWG  sync.WaitGroup
	workWG   sync.WaitGroup
	stopOnce sync.Once
}

func defaultConsumerConfig(opts []ConsumerOption) *ConsumerConfig {
	cfg := &ConsumerConfig{
		GroupID:     "default",
		WorkerCount: 1,
		BufferSize:  16,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    1e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func NewConsumer(l *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := defaultConsumerConfig(opts)
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	factory := func(topic string) Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    topic,
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}
	return NewConsumerWithReaders(l, factory, opts...), nil
}

// NewConsumerWithReaders builds a consumer over caller-supplied readers.
func NewConsumerWithReaders(l *applogger.Logger, factory ReaderFactory, opts ...ConsumerOption) *Consumer {
	cfg := defaultConsumerConfig(opts)
	if l == nil {
		l = applogger.Nop()
	}
	initConsumerMetrics()
	return &Consumer{
		cfg:       cfg,
		newReader: factory,
		log:       l.With("kafka-consumer"),
		handlers:  make(map[string]MessageHandler),
		readers:   make(map[string]Reader),
		msgs:      make(chan kafka.Message, cfg.BufferSize),
		stop:      make(chan struct{}),
	}
}

// RegisterHandler must be called before Start. A second handler for the same
// topic is ignored.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, ok := c.handlers[h.Topic()]; ok {
		c.log.Warn("handler already registered", applogger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workWG.Add(1)
		go c.work()
	}
	for topic := range c.handlers {
		r := c.newReader(topic)
		c.readers[topic] = r
		c.fetchWG.Add(1)
		go c.fetch(topic, r)
	}
	c.log.Info("kafka consumer started",
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.Int("topics", len(c.readers)),
	)
	return nil
}

// Stop ends fetching, drains queued messages and closes the readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)
		done := make(chan struct{})
		go func() {
			c.fetchWG.Wait()
			close(c.msgs)
			c.workWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}
		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Warn("close reader", applogger.String("topic", topic), applogger.Error(cerr))
			}
		}
		c.log.Info("kafka consumer stopped")
	})
	return err
}

func (c *Consumer) fetch(topic string, r Reader) {
	defer c.fetchWG.Done()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-c.stop
		cancel()
	}()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			c.log.Warn("fetch failed", applogger.String("topic", topic), applogger.Error(err))
			select {
			case <-time.After(c.cfg.BackoffMin):
				continue
			case <-c.stop:
				return
			}
		}
		if m.Topic == "" {
			m.Topic = topic
		}
		select {
		case c.msgs <- m:
			consumerQueueDepth.Set(float64(len(c.msgs)))
		case <-c.stop:
			return
		}
	}
}

func (c *Consumer) work() {
	defer c.workWG.Done()
	for m := range c.msgs {
		c.handle(m)
	}
}

func (c *Consumer) handle(m kafka.Message) {
	h, ok := c.handlers[m.Topic]
	if !ok {
		return
	}
	start := time.Now()
	err := c.handleWithRetry(h, m.Value)
	result := "ok"
	if err != nil {
		result = "error"
		c.log.Error("message dropped after retries",
			applogger.String("topic", m.Topic),
			applogger.Int("partition", m.Partition),
			applogger.Int64("offset", m.Offset),
			applogger.Error(err),
		)
	}
	consumerHandled.WithLabelValues(m.Topic, result).Inc()
	consumerLatency.WithLabelValues(m.Topic).Observe(time.Since(start).Seconds())

	if r := c.readers[m.Topic]; r != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if cerr := r.CommitMessages(ctx, m); cerr != nil {
			c.log.Warn("commit failed", applogger.String("topic", m.Topic), applogger.Error(cerr))
		}
		cancel()
	}
}

func (c *Consumer) handleWithRetry(h MessageHandler, data []byte) (err error) {
	for attempt := 0; ; attempt++ {
		err = safeHandle(h, data)
		if err == nil || attempt >= c.cfg.RetryMax || errors.Is(err, ErrPermanent) {
			return err
		}
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt+1)):
		case <-c.stop:
			return err
		}
	}
}

// ErrPermanent marks handler errors that retrying cannot fix, such as a
// message that does not decode.
var ErrPermanent = errors.New("permanent")

func safeHandle(h MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler for %s: %v", h.Topic(), r)
		}
	}()
	return h.Handle(context.Background(), data)
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := min << uint(attempt-1)
	if exp > max || exp <= 0 {
		exp = max
	}
	half := int64(exp) / 2
	if half <= 0 {
		return exp
	}
	return exp - time.Duration(rand.Int63n(half))
}

var (
	consumerOnce       sync.Once
	consumerQueueDepth prometheus.Gauge
	consumerHandled    *prometheus.CounterVec
	consumerLatency    *prometheus.HistogramVec
)

func initConsumerMetrics() {
	consumerOnce.Do(func() {
		consumerQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "omnitrade_kafka_consumer_queue_depth",
			Help: "Messages waiting for a worker",
		})
		consumerHandled = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "omnitrade_kafka_consumer_messages_total",
			Help: "Messages handled by topic and result",
		}, []string{"topic", "result"})
		consumerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name: "omnitrade_kafka_consumer_handle_seconds",
			Help: "Handling time per message",
		}, []string{"topic"})
	})
}
