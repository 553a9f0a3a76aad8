package mq

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewPublisher connects to NATS. Subjects are published as "<prefix>.<subject>"
// when prefix is non-empty.
func NewPublisher(url, prefix string) (Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("hero-server"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &natsPublisher{conn: conn, prefix: prefix}, nil
}

func (n *natsPublisher) Publish(_ context.Context, subject string, data []byte) error {
	if n.prefix != "" {
		subject = n.prefix + "." + subject
	}
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (n *natsPublisher) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
		n.conn.Close()
	}
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (noopPublisher) Close()                                        {}

type fanout []Publisher

// Fanout publishes every message to each publisher in order. One failing
// publisher does not stop delivery to the rest.
func Fanout(pubs ...Publisher) Publisher {
	out := make(fanout, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f fanout) Publish(ctx context.Context, subject string, data []byte) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, subject, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) Close() {
	for _, p := range f {
		p.Close()
	}
}
