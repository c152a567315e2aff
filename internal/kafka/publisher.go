package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"
	"github.com/startgg-sync/internal/config"
	"github.com/startgg-sync/internal/domain"
)

// Publisher emits sync run reports to a Kafka topic for downstream
// consumers. Delivery itself (notifications, dashboards) is outside this
// service; we only publish. Implements sync.Reporter.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewPublisher creates a Kafka sync report publisher
func NewPublisher(cfg *config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}

	return &Publisher{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
	}, nil
}

// Close closes the underlying producer
func (p *Publisher) Close() error {
	return p.producer.Close()
}

// Report publishes the report keyed by operation name. Publish failures
// are logged, never propagated into the sync path.
func (p *Publisher) Report(_ context.Context, report domain.SyncReport) {
	data, err := json.Marshal(report)
	if err != nil {
		p.logger.Error("failed to marshal sync report", "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(report.Operation),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Warn("failed to publish sync report",
			"operation", report.Operation,
			"error", err,
		)
		return
	}
	p.logger.Debug("published sync report",
		"operation", report.Operation,
		"partition", partition,
		"offset", offset,
	)
}
