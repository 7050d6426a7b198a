package mail

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoTransport      = errors.New("mail: no transport configured")
	ErrDeliveryFailed   = errors.New("mail: delivery failed")
	ErrInvalidRecipient = errors.New("mail: invalid recipient")
)

// Message is a rendered multipart message.
type Message struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	Text        string
	HTML        string
}

// Transport sends a message over one route.
type Transport interface {
	// Name is the human-readable route label, e.g. "SSL (port 465)".
	Name() string
	Send(ctx context.Context, msg Message) error
	// Probe connects and authenticates without sending.
	Probe(ctx context.Context) error
}

// Sender returns the formatted sender line.
func (m Message) Sender() string {
	if m.FromName == "" {
		return m.FromAddress
	}
	return fmt.Sprintf("%q <%s>", m.FromName, m.FromAddress)
}
