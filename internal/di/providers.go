package di

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/domain/repository"
	"Omnitrade/internal/domain/service"
	"Omnitrade/internal/handler/api"
	"Omnitrade/internal/handler/stream"
	mid "Omnitrade/internal/middleware"
	internalrepo "Omnitrade/internal/repository"
	"Omnitrade/internal/service/ratelimit"
	"Omnitrade/internal/services/bots"
	"Omnitrade/internal/services/scanners"
	"Omnitrade/internal/usecase"
	"Omnitrade/pkg/cache"
	pkgch "Omnitrade/pkg/clickhouse"
	"Omnitrade/pkg/config"
	xhttp "Omnitrade/pkg/http"
	pkgkafka "Omnitrade/pkg/kafka"
	applogger "Omnitrade/pkg/logger"
	"Omnitrade/pkg/metrics"
	"Omnitrade/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideLogCollector ships aggregated error logs to Kafka when both Kafka and
// a collector topic are configured.
func ProvideLogCollector(cfg *config.Config, l *applogger.Logger, producer *pkgkafka.Producer) *applogger.LogCollector {
	if producer == nil || cfg.Log.CollectorTopic == "" {
		return nil
	}
	c := applogger.NewLogCollector(applogger.CollectionConfig{
		FlushInterval: cfg.Log.FlushInterval,
		Topic:         cfg.Log.CollectorTopic,
		Publisher:     producer,
	})
	l.AttachCollector(c)
	return c
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideCache selects Redis when enabled and the in-process cache otherwise.
func ProvideCache(cfg *config.Config) (cache.ListService, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryCleanup(time.Minute)), nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

func ProvideActionLog(store cache.ListService, cfg *config.Config) repository.ActionLog {
	return internalrepo.NewActionLog(store, cfg.Governance.LogWindow)
}

// ProvideMetricsStore seeds the store with the configured initial metrics.
func ProvideMetricsStore(store cache.ListService, cfg *config.Config) repository.MetricsStore {
	seed := cfg.Governance.InitialMetrics
	return internalrepo.NewMetricsStore(store, models.RiskMetrics{
		Drawdown:          seed.Drawdown,
		CorrelationStress: seed.CorrelationStress,
		Exposure:          seed.Exposure,
	})
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher wraps the Kafka publisher in a retry buffer. Without Kafka
// the buffer fronts a no-op publisher.
func ProvidePublisher(producer *pkgkafka.Producer, m repository.Metrics, cfg *config.Config) *mid.BufferedPublisher {
	var next repository.Publisher = internalrepo.NopPublisher{}
	if producer != nil {
		next = internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ActionsTopic, cfg.Kafka.GovernanceTopic)
	}
	return mid.NewBufferedPublisher(next, m,
		mid.WithBufferSize(256),
		mid.WithRetryBackoff(cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
	)
}

// ProvideKafkaConsumer creates the risk metrics consumer, or nil when Kafka is
// disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideRiskMetricsHandler(store repository.MetricsStore, m repository.Metrics, cfg *config.Config) *usecase.RiskMetricsHandler {
	return usecase.NewRiskMetricsHandler(cfg.Kafka.RiskMetricsTopic, store, m)
}

// ProvideClickHouseClient connects and creates the tables, or returns nil
// when no component uses ClickHouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouseRequired() {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{scanners.MarketStateSchema, internalrepo.ActionArchiveSchema}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideActionArchive returns nil unless action archiving is enabled.
func ProvideActionArchive(ch *pkgch.Client, cfg *config.Config) repository.ActionArchive {
	if ch == nil || !cfg.ClickHouse.ArchiveActions {
		return nil
	}
	return internalrepo.NewClickHouseActionArchive(ch.DB(), cfg.ClickHouse.ArchiveTable)
}

// ProvideScannerSource builds the configured scanner source.
func ProvideScannerSource(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (service.ScannerSource, error) {
	var simOpts []scanners.MockOption
	if cfg.Scanner.Seed != 0 {
		simOpts = append(simOpts, scanners.WithSeed(cfg.Scanner.Seed))
	}
	sim := scanners.NewMockSource(simOpts...)

	switch cfg.Scanner.Source {
	case "sheets":
		client := xhttp.NewClient(
			xhttp.WithBaseURL(cfg.Sheets.BaseURL),
			xhttp.WithTimeout(cfg.Sheets.Timeout),
			xhttp.WithRetries(cfg.Sheets.Retries, 100*time.Millisecond),
		)
		return scanners.NewSheetsSource(client, cfg.Sheets.SpreadsheetID, cfg.Sheets.APIKey, sim, l), nil
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse scanner selected without a clickhouse client")
		}
		return scanners.NewClickHouseSource(ch.DB(), cfg.ClickHouse.Table, sim), nil
	default:
		return sim, nil
	}
}

func ProvideRegistry() *bots.Registry {
	return bots.NewDefaultRegistry()
}

// ProvideEvaluator seeds the mean-reversion draw when a scanner seed is set.
func ProvideEvaluator(cfg *config.Config) *bots.Evaluator {
	var rng bots.RandomSource
	if cfg.Scanner.Seed != 0 {
		rng = rand.New(rand.NewSource(cfg.Scanner.Seed + 1))
	}
	return bots.NewEvaluator(rng, bots.WithMeanReversionProbability(cfg.Governance.MeanReversionProbability))
}

func ProvideHub(l *applogger.Logger) *stream.Hub {
	return stream.NewHub(l, nil)
}

// ProvideGovernanceCycle builds the loop and points the hub's on-connect
// frame at it.
func ProvideGovernanceCycle(
	cfg *config.Config,
	l *applogger.Logger,
	source service.ScannerSource,
	registry *bots.Registry,
	evaluator *bots.Evaluator,
	actions repository.ActionLog,
	risk repository.MetricsStore,
	pub *mid.BufferedPublisher,
	archive repository.ActionArchive,
	m repository.Metrics,
	hub *stream.Hub,
) *usecase.GovernanceCycle {
	cycle := usecase.NewGovernanceCycle(source, registry, evaluator, actions, risk, pub,
		usecase.WithInterval(cfg.Governance.CycleInterval),
		usecase.WithCorrelationSpike(cfg.Governance.CorrelationSpikeThreshold),
		usecase.WithArchive(archive),
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
		usecase.WithBroadcaster(hub),
	)
	hub.SetLatest(cycle.Latest)
	return cycle
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.Rate, cfg.Server.RateLimit.Interval)
}

// ProvideHTTPHandler groups every route set the server exposes.
func ProvideHTTPHandler(
	l *applogger.Logger,
	registry *bots.Registry,
	m repository.Metrics,
	cycle *usecase.GovernanceCycle,
	risk repository.MetricsStore,
	hub *stream.Hub,
	limiter *ratelimit.Limiter,
) xhttp.Handler {
	return xhttp.Handlers{
		api.NewBotsEchoHandler(l, registry, m, limiter),
		api.NewGovernanceEchoHandler(l, cycle, risk, limiter),
		hub,
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	cycle *usecase.GovernanceCycle,
	hub *stream.Hub,
	handler xhttp.Handler,
	pub *mid.BufferedPublisher,
	consumer *pkgkafka.Consumer,
	riskHandler *usecase.RiskMetricsHandler,
	actions repository.ActionLog,
	ch *pkgch.Client,
	collector *applogger.LogCollector,
) *server.App {
	opts := []server.Option{server.WithPublisher(pub)}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer, riskHandler))
	}
	opts = append(opts, server.WithClosers(server.Closer{Name: "action log", Close: actions.Close}))
	if ch != nil {
		opts = append(opts, server.WithClosers(server.Closer{Name: "clickhouse", Close: ch.Close}))
	}
	if collector != nil {
		opts = append(opts, server.WithClosers(server.Closer{Name: "log collector", Close: func() error {
			l.DetachCollector()
			collector.Close()
			return nil
		}}))
	}
	return server.New(cfg, l, cycle, hub, handler, opts...)
}
