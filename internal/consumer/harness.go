// Package consumer implements the Consumer Harness: subscribing to a topic
// under a stable group identity, decoding each delivered message,
// dispatching it to the router, and committing the offset only after
// dispatch returns — success or handled failure never blocks the commit,
// preserving an at-least-once delivery contract.
package consumer

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/google/uuid"
	kafka "github.com/segmentio/kafka-go"

	"github.com/naividh/member-profile-processor/internal/logging"
	"github.com/naividh/member-profile-processor/internal/metrics"
	"github.com/naividh/member-profile-processor/internal/router"
)

// Dispatcher routes a decoded envelope to its orchestrator action. Satisfied
// by *router.Router.
type Dispatcher interface {
	Dispatch(ctx context.Context, topic router.Topic, payload []byte)
}

// TLSConfig builds the client TLS configuration from the cert/key pair
// (KAFKA_CLIENT_CERT/KAFKA_CLIENT_CERT_KEY), for brokers that require
// mutual TLS. A nil return means the connection is unencrypted.
func TLSConfig(certPEM, keyPEM string) (*tls.Config, error) {
	if certPEM == "" && keyPEM == "" {
		return nil, nil
	}
	cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse kafka client certificate: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM([]byte(certPEM))
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool}, nil
}

// messageReader is the narrow slice of *kafka.Reader Harness needs, kept as
// an interface so Serve's loop is testable without a live broker.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Config() kafka.ReaderConfig
}

// Harness subscribes to one topic and dispatches every message it reads to
// a Dispatcher. It implements suture.Service, so the supervisor restarts it
// on panic or unexpected return.
type Harness struct {
	reader     messageReader
	topic      router.Topic
	dispatcher Dispatcher
}

// Config describes one topic subscription.
type Config struct {
	Brokers   []string
	GroupID   string
	Topic     string
	TLSConfig *tls.Config
}

// New creates a Harness for one topic/dispatch-target pair. routedTopic
// tells Dispatch which shape to decode this subscription's messages as.
func New(cfg Config, routedTopic router.Topic, dispatcher Dispatcher) *Harness {
	dialer := &kafka.Dialer{TLS: cfg.TLSConfig}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topic:   cfg.Topic,
		Dialer:  dialer,
	})
	return newHarness(reader, routedTopic, dispatcher)
}

func newHarness(reader messageReader, routedTopic router.Topic, dispatcher Dispatcher) *Harness {
	return &Harness{reader: reader, topic: routedTopic, dispatcher: dispatcher}
}

// Serve reads messages until ctx is canceled, dispatching each one and
// committing its offset unconditionally afterward.
func (h *Harness) Serve(ctx context.Context) error {
	defer func() {
		if err := h.reader.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close kafka reader")
		}
	}()

	for {
		msg, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch message from %s: %w", h.reader.Config().Topic, err)
		}

		msgCtx := logging.WithCorrelationID(ctx, uuid.NewString())
		metrics.MessagesReceivedTotal.WithLabelValues(h.reader.Config().Topic).Inc()
		logging.From(msgCtx).Debug().Str("topic", h.reader.Config().Topic).Int64("offset", msg.Offset).Msg("message received")

		h.dispatcher.Dispatch(msgCtx, h.topic, msg.Value)

		if err := h.reader.CommitMessages(ctx, msg); err != nil {
			logging.From(msgCtx).Warn().Err(err).Str("topic", h.reader.Config().Topic).Msg("failed to commit offset")
		}
	}
}
