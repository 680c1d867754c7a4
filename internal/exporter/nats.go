package exporter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/seed4me/radclient/internal/logger"
)

// natsExporter publishes each event and flushes immediately. NATS
// buffers publishes client-side; a short-lived process that skips the
// flush can exit with the event still sitting in the buffer.
type natsExporter struct {
	conn    *nats.Conn
	subject string
	log     *logrus.Logger
}

func newNatsExporter(cfg NatsConfig) (*natsExporter, error) {
	if cfg.URL == "" || cfg.Subject == "" {
		return nil, fmt.Errorf("exporter: nats needs a url and a subject")
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("radclient"),
		nats.Timeout(3*time.Second),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, fmt.Errorf("exporter: connecting to nats %s: %w", cfg.URL, err)
	}

	log := logger.GetLogger()
	log.WithFields(logrus.Fields{
		"url":     cfg.URL,
		"subject": cfg.Subject,
	}).Debug("auth events go to nats")

	return &natsExporter{
		conn:    conn,
		subject: cfg.Subject,
		log:     log,
	}, nil
}

func (e *natsExporter) SendAuthEvent(event *AuthEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("exporter: encoding event: %w", err)
	}

	if err := e.conn.Publish(e.subject, payload); err != nil {
		return fmt.Errorf("exporter: publishing to nats: %w", err)
	}
	if err := e.conn.FlushTimeout(2 * time.Second); err != nil {
		return fmt.Errorf("exporter: flushing nats publish: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"user_name": event.UserName,
		"method":    event.Method,
		"success":   event.IsSuccess,
	}).Debug("auth event published")
	return nil
}

func (e *natsExporter) Close() error {
	// Drain waits for buffered publishes instead of dropping them.
	if err := e.conn.Drain(); err != nil {
		e.conn.Close()
		return fmt.Errorf("exporter: draining nats connection: %w", err)
	}
	return nil
}
