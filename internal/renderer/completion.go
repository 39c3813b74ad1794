package renderer

import (
	"context"

	"github.com/opencode-ai/illo/internal/worker"
)

// Completion is a pending play, pause or stop request. It resolves when the
// worker acknowledges the request.
type Completion struct {
	kind string
	id   uint64
	done chan struct{}
	ack  worker.Ack
}

func newCompletion(kind string, id uint64) *Completion {
	return &Completion{kind: kind, id: id, done: make(chan struct{})}
}

// ID returns the request id sent to the worker.
func (c *Completion) ID() uint64 {
	return c.id
}

// Kind returns the acknowledgment name the request waits for.
func (c *Completion) Kind() string {
	return c.kind
}

// Done is closed once the request is acknowledged. A request outstanding at
// detach never resolves.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the acknowledgment arrives or ctx is done.
func (c *Completion) Wait(ctx context.Context) (worker.Ack, error) {
	select {
	case <-c.done:
		return c.ack, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolve is called from the controller loop only.
func (c *Completion) resolve(ack worker.Ack) {
	c.ack = ack
	close(c.done)
}
