package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"cxc-checkin/internal/config"
)

const checkedInSubject = "attendance.checked_in"

// CheckIn is broadcast after every successful check-in.
type CheckIn struct {
	EventID          int64     `json:"event_id"`
	ProfileID        string    `json:"profile_id"`
	CheckedInAt      time.Time `json:"checked_in_at"`
	AlreadyCheckedIn bool      `json:"already_checked_in"`
}

type Publisher interface {
	PublishCheckIn(ctx context.Context, msg CheckIn) error
	Close()
}

// Subject joins prefix and name with a dot, skipping an empty prefix.
func Subject(prefix, name string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// Connect dials the configured NATS server.
func Connect(cfg config.NATSConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("cxc-checkin"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "component", "broker", "error", err)
			}
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", cfg.URL, err)
	}
	return conn, nil
}

func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: Subject(prefix, checkedInSubject),
		logger:  slog.With("component", "broker"),
	}
}

// NewPublisher returns a NATS publisher when a server URL is configured and
// a no-op publisher otherwise.
func NewPublisher(cfg config.NATSConfig) (Publisher, error) {
	if cfg.URL == "" {
		return NoopPublisher{}, nil
	}
	conn, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return NewNATSPublisher(conn, cfg.SubjectPrefix), nil
}

func (p *NATSPublisher) PublishCheckIn(ctx context.Context, msg CheckIn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal check-in message: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	p.logger.Debug("Published check-in", "subject", p.subject, "event_id", msg.EventID)
	return nil
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("Failed to drain NATS connection", "error", err)
	}
}

// Watch delivers check-in messages until ctx is done.
func Watch(ctx context.Context, conn *nats.Conn, prefix string, fn func(CheckIn)) error {
	subject := Subject(prefix, checkedInSubject)
	sub, err := conn.Subscribe(subject, func(m *nats.Msg) {
		var msg CheckIn
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			slog.Warn("Dropping malformed check-in message", "component", "broker", "subject", subject, "error", err)
			return
		}
		fn(msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return nil
}

type NoopPublisher struct{}

func (NoopPublisher) PublishCheckIn(context.Context, CheckIn) error { return nil }
func (NoopPublisher) Close()                                        {}
