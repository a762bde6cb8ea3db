package notification

import (
	"context"
	"fmt"
)

type TransportErrorKind string

const (
	// KindUnregistered means the device token is permanently invalid.
	KindUnregistered TransportErrorKind = "unregistered"
	// KindTransient covers every other failure; the token stays usable until it fails too often.
	KindTransient TransportErrorKind = "transient"
)

type TransportError struct {
	Kind    TransportErrorKind
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("push transport %s: %s", e.Kind, e.Message)
}

type Message struct {
	To    string
	Title string
	Body  string
	Data  Data
}

// Ticket is the per-message outcome. Err is nil when the provider accepted the message.
type Ticket struct {
	ID  string
	Err *TransportError
}

// Transport sends one chunk of messages and returns one ticket per message in order.
// An error means the whole chunk failed and no tickets are available.
//
type Transport interface {
	Send(ctx context.Context, msgs []Message) ([]Ticket, error)
	BatchSize() int
}
