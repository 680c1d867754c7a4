package exporter

import (
	"fmt"

	"github.com/seed4me/radclient/internal/logger"
)

// AuthEvent is one authentication attempt as seen from the client
// side: which server was asked, with which method, and what came back.
type AuthEvent struct {
	Timestamp     int64  `json:"timestamp"`
	UserName      string `json:"user_name"`
	Server        string `json:"server"`
	Method        string `json:"method"`
	IsSuccess     bool   `json:"success"`
	ErrorCode     int    `json:"error_code,omitempty"`
	FailureReason string `json:"reason,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
}

type EventExporter interface {
	SendAuthEvent(event *AuthEvent) error
	Close() error
}

// Config selects where authentication events go.
type Config struct {
	Type  string
	File  FileConfig
	Kafka KafkaConfig
	Nats  NatsConfig
}

type FileConfig struct {
	Path string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type NatsConfig struct {
	URL     string
	Subject string
}

// New builds the configured exporter. When a broker cannot be reached
// the local file sink takes over, so the event of a one-shot run is
// never lost to a flaky middleware.
func New(cfg Config) (EventExporter, error) {
	log := logger.GetLogger()

	switch cfg.Type {
	case "", "file":
		return newFileExporter(cfg.File.Path)

	case "kafka":
		e, err := newKafkaExporter(cfg.Kafka)
		if err != nil {
			log.WithError(err).Warn("Kafka unavailable, writing auth events to file")
			return newFileExporter(cfg.File.Path)
		}
		return e, nil

	case "nats":
		e, err := newNatsExporter(cfg.Nats)
		if err != nil {
			log.WithError(err).Warn("NATS unavailable, writing auth events to file")
			return newFileExporter(cfg.File.Path)
		}
		return e, nil

	default:
		return nil, fmt.Errorf("exporter: unknown type %q", cfg.Type)
	}
}
