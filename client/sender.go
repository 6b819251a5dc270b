package client

import (
	"context"
	"errors"
)

var (
	ErrNotSetup           = errors.New("client is not setup")
	ErrClientClosed       = errors.New("client is closed")
	ErrUnexpectedResponse = errors.New("unexpected response pdu")
)

// SenderClient submits messages to one SMSC.
type SenderClient interface {
	ID() string
	Setup() error
	Send(ctx context.Context, msg Message) MessageResponse
	Close() error
}

// ResponseClient receives delivery reports from one SMSC.
type ResponseClient interface {
	ID() string
	Setup(handler *ResponseSessionHandler) error
	Close() error
}
