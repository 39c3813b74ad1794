package worker

import (
	"context"
	"sync"
	"time"

	"github.com/opencode-ai/illo/internal/logging"
)

const ackBuffer = 64

// Local runs a Player on its own goroutine. Posts never block.
type Local struct {
	mu      sync.Mutex
	inbox   []Message
	closed  bool
	player  *Player
	notify  chan struct{}
	done    chan struct{}
	exited  chan struct{}
	acks    chan Ack
	stopped sync.Once
}

// NewLocal starts an in-process worker.
func NewLocal() *Local {
	w := &Local{
		player: NewPlayer(logging.Component("worker")),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
		acks:   make(chan Ack, ackBuffer),
	}
	go w.run()
	return w
}

// LocalFactory creates in-process workers.
func LocalFactory(ctx context.Context) (Worker, error) {
	return NewLocal(), nil
}

// Post queues a message for the worker goroutine.
func (w *Local) Post(msg Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrTerminated
	}
	w.inbox = append(w.inbox, msg)
	select {
	case w.notify <- struct{}{}:
	default:
	}
	return nil
}

// Acks returns the acknowledgment channel.
func (w *Local) Acks() <-chan Ack {
	return w.acks
}

// Terminate stops the worker goroutine and closes Acks.
func (w *Local) Terminate() error {
	w.stopped.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.inbox = nil
		w.mu.Unlock()
		close(w.done)
	})
	<-w.exited
	return nil
}

// State returns the emulated playback state.
func (w *Local) State() PlayerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.player.State()
}

func (w *Local) run() {
	defer close(w.exited)
	defer close(w.acks)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	last := time.Now()

	for {
		w.mu.Lock()
		interval := w.player.FrameInterval()
		w.mu.Unlock()
		if interval > 0 {
			timer.Reset(interval)
		}

		select {
		case <-w.done:
			timer.Stop()
			return
		case <-w.notify:
			timer.Stop()
			for _, ack := range w.drain(time.Since(last)) {
				select {
				case w.acks <- ack:
				case <-w.done:
					return
				}
			}
		case now := <-timer.C:
			w.mu.Lock()
			w.player.Advance(now.Sub(last))
			w.mu.Unlock()
		}
		last = time.Now()
	}
}

func (w *Local) drain(elapsed time.Duration) []Ack {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.player.Advance(elapsed)
	var acks []Ack
	for _, msg := range w.inbox {
		acks = append(acks, w.player.Handle(msg)...)
	}
	w.inbox = nil
	return acks
}
