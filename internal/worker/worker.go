package worker

import (
	"context"
	"errors"
)

// ErrTerminated indicates a post to a terminated worker.
var ErrTerminated = errors.New("worker terminated")

// Worker is an off-thread renderer reached only by messages.
type Worker interface {
	// Post sends a message. Messages are delivered in call order.
	Post(msg Message) error
	// Acks delivers acknowledgments. The channel is closed after Terminate.
	Acks() <-chan Ack
	// Terminate stops the worker. Further posts fail with ErrTerminated.
	Terminate() error
}

// Factory creates a worker for a new session.
type Factory func(ctx context.Context) (Worker, error)
