package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/commentlink/internal/config"
	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
	"git.home.luguber.info/inful/commentlink/internal/logfields"
	"git.home.luguber.info/inful/commentlink/internal/metrics"
	"git.home.luguber.info/inful/commentlink/internal/retry"
)

// Publisher delivers unresolved link events.
type Publisher interface {
	Publish(ctx context.Context, event UnresolvedLinkEvent) error
	Close() error
}

// NoopPublisher discards events (default when events are disabled).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, UnresolvedLinkEvent) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// streamPublisher is the subset of jetstream.JetStream used for publishing.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSPublisher publishes events to a JetStream subject with retries.
// Each event carries its ID as the message ID, so retried publishes are deduplicated.
type NATSPublisher struct {
	conn     *nats.Conn
	js       streamPublisher
	subject  string
	policy   retry.Policy
	timeout  time.Duration
	recorder metrics.Recorder
}

// NewNATSPublisher connects to cfg.NATSURL and ensures a stream captures cfg.Subject.
func NewNATSPublisher(ctx context.Context, cfg config.EventsConfig, recorder metrics.Recorder) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, ferrors.ConfigError("event publishing is disabled").Build()
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("commentlink"))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", cfg.NATSURL).
			Retryable().
			Build()
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to create JetStream context").Build()
	}

	if cfg.Stream != "" {
		streamCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_, err := js.CreateOrUpdateStream(streamCtx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "Unresolved comment links",
			Subjects:    []string{cfg.Subject},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      30 * 24 * time.Hour,
			Duplicates:  2 * time.Minute,
		})
		if err != nil {
			conn.Close()
			return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to ensure JetStream stream").
				WithContext("stream", cfg.Stream).
				Build()
		}
	}

	slog.Info("NATS publisher initialized",
		slog.String("url", cfg.NATSURL),
		logfields.Subject(cfg.Subject),
		slog.String("stream", cfg.Stream))

	p := newNATSPublisher(js, cfg.Subject, retry.FromConfig(cfg.Retry), recorder)
	p.conn = conn
	return p, nil
}

func newNATSPublisher(js streamPublisher, subject string, policy retry.Policy, recorder metrics.Recorder) *NATSPublisher {
	return &NATSPublisher{
		js:       js,
		subject:  subject,
		policy:   policy,
		timeout:  5 * time.Second,
		recorder: metrics.OrNoop(recorder),
	}
}

// Publish sends event, retrying transient failures per the configured policy.
func (p *NATSPublisher) Publish(ctx context.Context, event UnresolvedLinkEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal event").Build()
	}

	err = p.policy.Do(ctx, func(ctx context.Context) error {
		pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		if _, err := p.js.Publish(pubCtx, p.subject, data, jetstream.WithMsgID(event.ID)); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to publish event").Retryable().Build()
		}
		return nil
	})
	p.recorder.IncEventPublished(err == nil)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.ID, err)
	}

	slog.Debug("Published unresolved link event",
		logfields.File(event.File),
		logfields.Status(event.Status),
		logfields.BatchID(event.BatchID))
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
