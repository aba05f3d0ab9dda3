// Package queue is the task queue collaborator: at-least-once delivery with
// explicit acknowledgement. An unacknowledged message is delivered again.
package queue

import (
	"context"
	"errors"
)

var (
	ErrEmptyQueueURL = errors.New("queue url is empty")
)

// Message is one delivery of a queued body
type Message struct {
	ID            string
	Body          []byte
	ReceiptHandle string
	// ReceiveCount is how many times the message was delivered, 1 on first delivery
	ReceiveCount int
}

// Publisher sends JSON-encodable values to a queue
type Publisher interface {
	Publish(ctx context.Context, v any) error
}

// Receiver is the consuming side of a queue
type Receiver interface {
	Receive(ctx context.Context) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// AckFunc deletes the message from the queue. Not calling it leads to redelivery.
type AckFunc func(ctx context.Context) error

// Handler processes one message and decides whether to ack it
type Handler func(ctx context.Context, msg Message, ack AckFunc)
