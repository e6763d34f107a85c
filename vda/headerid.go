package vda

import "github.com/google/uuid"

// NewHeaderID generates a correlation id for tracing one inbound message
// (an Order, an instant-action batch, a synchronized query fan-out) across
// logs and outward events, standing in for the VDA5050 wire message's
// headerId once a message has been decoded into this package's types.
func NewHeaderID() string {
	return uuid.NewString()
}
