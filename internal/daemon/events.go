package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// BuildEvent is the JetStream payload published after each build.
type BuildEvent struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Skipped   bool      `json:"skipped"`
	Published int       `json:"published"`
	Failed    int       `json:"failed"`
	Duration  string    `json:"duration"`
}

// EventPublisher publishes build events to NATS JetStream.
type EventPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewEventPublisher connects to NATS and ensures the build-event stream exists.
func NewEventPublisher(cfg *config.NATSConfig) (*EventPublisher, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("nats configuration is required")
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "blogbuilder build events",
		Subjects:    []string{cfg.Subject + ".>"},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure stream %s: %w", cfg.Stream, err)
	}

	slog.Info("NATS event publisher initialized",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))
	return &EventPublisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// PublishBuild emits a build event on <subject>.completed, .failed, or .skipped.
func (p *EventPublisher) PublishBuild(ctx context.Context, result *build.Result) error {
	event := BuildEvent{
		RunID:     result.RunID,
		Timestamp: time.Now().UTC(),
		Skipped:   result.Skipped,
		Published: result.Published,
		Failed:    len(result.Failures),
		Duration:  result.Duration.String(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}

	subject := p.subject + ".completed"
	switch {
	case result.Skipped:
		subject = p.subject + ".skipped"
	case len(result.Failures) > 0:
		subject = p.subject + ".failed"
	}

	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}
	return nil
}

// Close drains the NATS connection.
func (p *EventPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
