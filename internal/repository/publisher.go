package repository

import (
	"context"

	"Omnitrade/internal/domain/models"
	"Omnitrade/internal/domain/repository"
	pkgkafka "Omnitrade/pkg/kafka"
)

// KafkaPublisher fans actions and governance frames out to Kafka topics.
// Actions are keyed by bot name so one bot's actions stay ordered.
type KafkaPublisher struct {
	producer        *pkgkafka.Producer
	actionsTopic    string
	governanceTopic string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, actionsTopic, governanceTopic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, actionsTopic: actionsTopic, governanceTopic: governanceTopic}
}

func (p *KafkaPublisher) PublishActions(ctx context.Context, records []models.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(records))
	for i, r := range records {
		msgs[i] = pkgkafka.Message{Key: []byte(r.Bot), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.actionsTopic, msgs)
}

func (p *KafkaPublisher) PublishGovernance(ctx context.Context, payload *models.Payload) error {
	state := governanceEvent{
		Health:    payload.Health,
		Mode:      payload.Mode,
		AutoRules: payload.AutoRules,
		Metrics:   payload.Metrics,
		Timestamp: payload.Timestamp,
	}
	return p.producer.Publish(ctx, p.governanceTopic, []byte(payload.Mode), state)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// governanceEvent is the slim frame published per cycle; scanners and logs
// stay on the stream endpoint.
type governanceEvent struct {
	Health    int                   `json:"health"`
	Mode      models.Mode           `json:"mode"`
	AutoRules models.AutoRuleResult `json:"autoRules"`
	Metrics   models.RiskMetrics    `json:"metrics"`
	Timestamp string                `json:"timestamp"`
}

// NopPublisher is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishActions(context.Context, []models.ActionRecord) error { return nil }
func (NopPublisher) PublishGovernance(context.Context, *models.Payload) error    { return nil }
func (NopPublisher) Close() error                                                { return nil }
