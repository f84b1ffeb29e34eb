package revalidate

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	defaultConnectTimeout = 5 * time.Second
	Subject               = "biolink.revalidate"
)

// ConnectNATS opens a named NATS connection.
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Timeout(defaultConnectTimeout),
		nats.Name("biolink"),
	)
	if err != nil {
		return nil, fmt.Errorf("nats: connect: %w", err)
	}
	return conn, nil
}

// NATSPublisher broadcasts revalidation events on Subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: Subject}
}

func (p *NATSPublisher) Invalidate(_ context.Context, userID string) error {
	data, err := encodeEvent(userID)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("nats: publish revalidation for %s: %w", userID, err)
	}
	return nil
}
