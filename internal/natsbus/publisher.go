// Package natsbus publishes completion events to a NATS subject.
package natsbus

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	Scheme = "nats"

	flushTimeout = 10 * time.Second
)

// publisher is the subset of *nats.Conn used by Publisher.
type publisher interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// Publisher sends completion events to one subject.
type Publisher struct {
	conn        publisher
	subject     string
	destination string
}

// ParseDestination splits nats://host:port/subject into server URL and subject.
func ParseDestination(destination string) (server, subject string, err error) {
	u, err := url.Parse(destination)
	if err != nil {
		return "", "", fmt.Errorf("invalid NATS destination %q: %w", destination, err)
	}
	if u.Scheme != Scheme || u.Host == "" {
		return "", "", fmt.Errorf("invalid NATS destination %q: want nats://host:port/subject", destination)
	}
	subject = strings.Trim(u.Path, "/")
	if subject == "" || strings.Contains(subject, "/") {
		return "", "", fmt.Errorf("invalid NATS destination %q: missing or malformed subject", destination)
	}
	u.Path = ""
	return u.String(), subject, nil
}

// NewPublisher connects to the server named in destination.
func NewPublisher(destination string) (*Publisher, error) {
	server, subject, err := ParseDestination(destination)
	if err != nil {
		return nil, err
	}
	conn, err := nats.Connect(server, nats.Name("pdf-text-extractor"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", server, err)
	}
	return &Publisher{conn: conn, subject: subject, destination: destination}, nil
}

func (p *Publisher) Destination() string { return p.destination }

// Send publishes body and waits for the server to acknowledge the flush.
func (p *Publisher) Send(ctx context.Context, body string) error {
	if err := p.conn.Publish(p.subject, []byte(body)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}
	// Flushing needs a deadline; the runtime's context may not carry one.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush publish to %s: %w", p.subject, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.conn.Drain()
}
