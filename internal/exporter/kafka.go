package exporter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"github.com/seed4me/radclient/internal/logger"
)

// kafkaExporter publishes each event synchronously. The process emits
// a handful of events at most, so a local-leader ack and a short dial
// timeout matter more than throughput: an unreachable broker must not
// stall the CLI past its own authentication timeout.
type kafkaExporter struct {
	producer sarama.SyncProducer
	topic    string
	log      *logrus.Logger
}

func newKafkaExporter(cfg KafkaConfig) (*kafkaExporter, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("exporter: kafka needs brokers and a topic")
	}

	log := logger.GetLogger()

	sc := sarama.NewConfig()
	sc.ClientID = "radclient"
	sc.Net.DialTimeout = 3 * time.Second
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Timeout = 3 * time.Second
	sc.Producer.Retry.Max = 1
	sc.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("exporter: connecting to kafka %v: %w", cfg.Brokers, err)
	}

	log.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Debug("auth events go to kafka")

	return &kafkaExporter{
		producer: producer,
		topic:    cfg.Topic,
		log:      log,
	}, nil
}

func (e *kafkaExporter) SendAuthEvent(event *AuthEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("exporter: encoding event: %w", err)
	}

	// Keyed by username so retries of the same user land in order.
	_, _, err = e.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     e.topic,
		Key:       sarama.StringEncoder(event.UserName),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: time.Unix(event.Timestamp, 0),
	})
	if err != nil {
		return fmt.Errorf("exporter: publishing to kafka: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"user_name": event.UserName,
		"method":    event.Method,
		"success":   event.IsSuccess,
	}).Debug("auth event published")
	return nil
}

func (e *kafkaExporter) Close() error {
	if err := e.producer.Close(); err != nil {
		return fmt.Errorf("exporter: closing kafka producer: %w", err)
	}
	return nil
}
