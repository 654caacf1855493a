package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSPublisher publishes events as JSON on subjects of the form
// <prefix>.<type>, for example "drazba.events.bid.accepted". With a
// JetStream context the publish waits for the server to persist the event.
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	prefix string
}

// NewNATSPublisher wraps an open connection. When durable is set, events go
// through JetStream and EnsureStream should be called before the first
// publish.
func NewNATSPublisher(conn *nats.Conn, prefix string, durable bool) (*NATSPublisher, error) {
	p := &NATSPublisher{conn: conn, prefix: prefix}
	if durable {
		js, err := jetstream.New(conn)
		if err != nil {
			return nil, fmt.Errorf("creating jetstream context: %w", err)
		}
		p.js = js
	}
	return p, nil
}

// EnsureStream creates or updates the JetStream stream that captures every
// subject under the publisher's prefix. It is a no-op without JetStream.
func (p *NATSPublisher) EnsureStream(ctx context.Context, name string) error {
	if p.js == nil {
		return nil
	}
	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     name,
		Subjects: []string{Subject(p.prefix, ">")},
	})
	if err != nil {
		return fmt.Errorf("ensuring stream %s: %w", name, err)
	}
	return nil
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	subject := Subject(p.prefix, e.Type)
	if p.js != nil {
		if _, err := p.js.Publish(ctx, subject, data); err != nil {
			return fmt.Errorf("publishing %s to jetstream: %w", subject, err)
		}
		return nil
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing %s: %w", subject, err)
	}
	return nil
}

// Subject returns the NATS subject an event type is published on.
func Subject(prefix string, t Type) string {
	if prefix == "" {
		return string(t)
	}
	return prefix + "." + string(t)
}
