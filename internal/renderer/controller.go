// Package renderer drives an animation worker: it loads and recolors
// animations, sequences the worker lifecycle and relays playback controls.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-ai/illo/internal/logging"
	"github.com/opencode-ai/illo/internal/lottie"
	"github.com/opencode-ai/illo/internal/models"
	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/source"
	"github.com/opencode-ai/illo/internal/worker"
	"github.com/rs/zerolog"
)

var (
	// ErrClosed indicates the controller was closed.
	ErrClosed = errors.New("controller closed")
	// ErrNotConnecting indicates a surface was offered outside the
	// Connecting state.
	ErrNotConnecting = errors.New("controller is not waiting for a surface")
	// ErrMissingSurface indicates a nil surface.
	ErrMissingSurface = errors.New("surface is required")
)

// Controller owns one rendering worker per session. All state is owned by a
// single loop goroutine; public methods hand work to that loop, so they may
// be called from any goroutine.
type Controller struct {
	opts   Options
	logger zerolog.Logger

	ops       chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	requests  atomic.Uint64

	// Loop-owned.
	state       State
	session     *session
	sessions    uint64
	source      string
	doc         *lottie.Document
	index       *lottie.Index
	loads       uint64
	outstanding []*Completion
}

type session struct {
	seq    uint64
	id     string
	worker worker.Worker
	ctx    context.Context
	cancel context.CancelFunc

	surface     *worker.Surface
	transferred bool
	loaded      bool
	drawSize    worker.Size
	sizePending bool
	queued      []worker.Message
	reloadAfter uint64
	themeSub    *palette.Subscription
}

// Snapshot is a point-in-time view of the controller.
type Snapshot struct {
	State          State       `json:"state"`
	Session        string      `json:"session,omitempty"`
	Source         string      `json:"source,omitempty"`
	Transferred    bool        `json:"transferred"`
	Loaded         bool        `json:"loaded"`
	PendingSize    bool        `json:"pending_size"`
	QueuedControls int         `json:"queued_controls"`
	Outstanding    int         `json:"outstanding"`
	Tokens         int         `json:"tokens"`
	DrawSize       worker.Size `json:"draw_size"`
}

// New returns a controller in the Idle state.
func New(opts Options) *Controller {
	opts.applyDefaults()

	logger := logging.Component("renderer")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	c := &Controller{
		opts:   opts,
		logger: logger,
		ops:    make(chan func()),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		state:  StateIdle,
		source: opts.Source,
	}
	go c.run()
	return c
}

// Attach creates the worker for a new session and subscribes to scheme
// changes. It does nothing when a session is already live.
func (c *Controller) Attach(ctx context.Context) error {
	var err error
	if !c.call(func() { err = c.attach(ctx) }) {
		return ErrClosed
	}
	return err
}

// SurfaceReady hands over the drawing surface and starts loading the
// animation. bounds is the layout size, scaled by the pixel ratio.
func (c *Controller) SurfaceReady(surface *worker.Surface, bounds worker.Size) error {
	var err error
	if !c.call(func() { err = c.surfaceReady(surface, bounds) }) {
		return ErrClosed
	}
	return err
}

// Play requests playback.
func (c *Controller) Play() *Completion {
	return c.control(worker.AckPlaying, func(id uint64) worker.Message {
		return worker.PlayMessage(true, id)
	})
}

// Pause requests a pause.
func (c *Controller) Pause() *Completion {
	return c.control(worker.AckPaused, func(id uint64) worker.Message {
		return worker.PlayMessage(false, id)
	})
}

// Stop requests that playback stop and rewind to the first frame.
func (c *Controller) Stop() *Completion {
	return c.control(worker.AckStopped, worker.StopMessage)
}

// Resize records a new layout size.
func (c *Controller) Resize(bounds worker.Size) {
	c.post(func() { c.resize(bounds) })
}

// SetSource changes the animation asset. A loaded animation is stopped
// before the new one is loaded.
func (c *Controller) SetSource(src string) {
	c.post(func() { c.setSource(src) })
}

// Detach terminates the worker and ends the session. Outstanding completions
// never resolve.
func (c *Controller) Detach() {
	c.call(c.detach)
}

// Snapshot reports the controller state.
func (c *Controller) Snapshot() Snapshot {
	var snap Snapshot
	c.call(func() { snap = c.snapshot() })
	return snap
}

// Close detaches and stops the controller loop.
func (c *Controller) Close() error {
	c.call(c.detach)
	c.closeOnce.Do(func() { close(c.quit) })
	<-c.done
	return nil
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case fn := <-c.ops:
			fn()
		case <-c.quit:
			return
		}
	}
}

func (c *Controller) post(fn func()) bool {
	select {
	case c.ops <- fn:
		return true
	case <-c.quit:
		return false
	}
}

func (c *Controller) call(fn func()) bool {
	finished := make(chan struct{})
	if !c.post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	<-finished
	return true
}

func (c *Controller) attach(ctx context.Context) error {
	if c.session != nil {
		return nil
	}

	w, err := c.opts.WorkerFactory(ctx)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}

	c.sessions++
	sctx, cancel := context.WithCancel(context.Background())
	s := &session{
		seq:    c.sessions,
		id:     uuid.NewString(),
		worker: w,
		ctx:    sctx,
		cancel: cancel,
	}
	c.session = s
	c.doc, c.index = nil, nil
	c.outstanding = nil
	c.state = StateConnecting

	go c.pump(s.seq, w)

	if c.opts.Notifier != nil {
		seq := s.seq
		s.themeSub = c.opts.Notifier.Subscribe(func() {
			c.post(func() { c.themeChanged(seq) })
		})
	}

	c.logger.Debug().Str("session", s.id).Msg("worker attached")
	c.emit(models.EventTypeSessionStarted, models.SessionPayload{Source: c.source})
	return nil
}

// pump relays acknowledgments from one session's worker into the loop.
func (c *Controller) pump(seq uint64, w worker.Worker) {
	for ack := range w.Acks() {
		if !c.post(func() { c.handleAck(seq, ack) }) {
			return
		}
	}
}

func (c *Controller) surfaceReady(surface *worker.Surface, bounds worker.Size) error {
	s := c.session
	if s == nil || c.state != StateConnecting {
		return ErrNotConnecting
	}
	if surface == nil {
		return ErrMissingSurface
	}

	s.surface = surface
	s.drawSize = DrawSize(bounds, c.opts.PixelRatio)
	c.state = StateAwaitingLoad
	c.load()
	return nil
}

// load fetches the current source off the loop and finishes in loaded.
func (c *Controller) load() {
	s := c.session
	if s == nil {
		c.logger.Info().Msg("no live worker, skipping load")
		return
	}
	src := c.source
	if strings.TrimSpace(src) == "" {
		c.logger.Info().Msg("no animation source provided")
		return
	}

	c.loads++
	token := c.loads
	seq := s.seq
	ctx := s.ctx
	loader := c.opts.Loader

	go func() {
		asset, err := loader.Load(ctx, src)
		c.post(func() { c.loaded(seq, token, src, asset, err) })
	}()
}

func (c *Controller) loaded(seq, token uint64, src string, asset *source.Asset, err error) {
	s := c.session
	if s == nil || s.seq != seq || token != c.loads {
		c.logger.Debug().Str("source", src).Msg("discarding superseded load")
		return
	}
	if err != nil {
		c.loadFailed(src, err)
		return
	}

	doc, err := lottie.Parse(asset.Data)
	if err != nil {
		c.loadFailed(src, err)
		return
	}

	var idx *lottie.Index
	if c.opts.Dynamic {
		idx = lottie.BuildIndex(doc, c.opts.Tokens)
		if idx.Len() == 0 {
			c.logger.Warn().Str("source", src).Msg("no color tokens found; animation keeps its bundled colors")
		}
	}
	c.doc, c.index = doc, idx

	c.logger.Debug().Str("source", src).Str("digest", asset.Digest).Int("tokens", idx.Len()).Msg("animation loaded")
	c.recolor()
	c.sendAnimation()
}

func (c *Controller) loadFailed(src string, err error) {
	c.logger.Warn().Err(err).Str("source", src).Msg("unable to load animation")
	c.emit(models.EventTypeLoadFailed, models.LoadFailedPayload{Source: src, Error: err.Error()})
}

func (c *Controller) recolor() {
	if c.doc == nil || c.index == nil {
		return
	}
	stats, err := lottie.Recolor(c.doc, c.index, c.opts.Palette)
	if err != nil {
		c.logger.Warn().Err(err).Msg("unable to recolor animation")
		return
	}
	c.emit(models.EventTypeRecolored, models.RecoloredPayload(stats))
}

func (c *Controller) sendAnimation() {
	s := c.session
	if s == nil {
		c.logger.Info().Msg("no live worker, dropping animation")
		return
	}
	if c.doc == nil {
		return
	}

	data, err := c.doc.MarshalJSON()
	if err != nil {
		c.logger.Warn().Err(err).Msg("unable to encode animation")
		return
	}

	params := worker.Params{Loop: c.opts.Loop, Autoplay: c.opts.Autoplay}
	msg := worker.AnimationMessage(data, s.drawSize, params, nil)
	if !s.transferred {
		msg.Canvas = s.surface
	}
	if c.send(msg) && !s.transferred {
		s.transferred = true
		s.surface = nil
	}
}

func (c *Controller) send(msg worker.Message) bool {
	s := c.session
	if s == nil {
		c.logger.Info().Msg("no live worker, dropping message")
		return false
	}
	if err := s.worker.Post(msg); err != nil {
		c.logger.Warn().Err(err).Str("session", s.id).Msg("failed to post to worker")
		return false
	}
	return true
}

func (c *Controller) control(kind string, build func(id uint64) worker.Message) *Completion {
	comp := newCompletion(kind, c.requests.Add(1))
	if !c.post(func() { c.dispatch(comp, build(comp.id)) }) {
		c.logger.Info().Str("control", kind).Msg("controller closed, dropping control")
	}
	return comp
}

func (c *Controller) dispatch(comp *Completion, msg worker.Message) {
	s := c.session
	if s == nil {
		c.logger.Info().Str("control", comp.kind).Msg("no live worker, dropping control")
		return
	}
	c.outstanding = append(c.outstanding, comp)
	if c.state == StateReady {
		c.send(msg)
		return
	}
	s.queued = append(s.queued, msg)
}

func (c *Controller) resize(bounds worker.Size) {
	s := c.session
	if s == nil {
		c.logger.Info().Msg("no live worker, dropping resize")
		return
	}
	s.drawSize = DrawSize(bounds, c.opts.PixelRatio)
	if c.state == StateReady {
		c.send(worker.ResizeMessage(s.drawSize))
		return
	}
	s.sizePending = true
}

func (c *Controller) setSource(src string) {
	c.source = src
	s := c.session

	switch {
	case s == nil || c.state == StateConnecting:
		// Loaded once a surface is available.
	case strings.TrimSpace(src) == "":
		c.logger.Info().Msg("no animation source provided")
	case s.loaded:
		if s.reloadAfter != 0 {
			// The pending reload picks up the latest source.
			return
		}
		comp := newCompletion(worker.AckStopped, c.requests.Add(1))
		c.outstanding = append(c.outstanding, comp)
		s.reloadAfter = comp.id
		c.send(worker.StopMessage(comp.id))
	default:
		c.load()
	}
}

func (c *Controller) handleAck(seq uint64, ack worker.Ack) {
	s := c.session
	if s == nil || s.seq != seq {
		c.logger.Debug().Str("ack", ack.Name()).Msg("ignoring acknowledgment from ended session")
		return
	}

	switch a := ack.(type) {
	case worker.Initialized:
		c.emit(models.EventTypeInitialized, nil)
		if !s.loaded {
			s.loaded = true
			c.state = StateReady
			c.flush()
		}
	case worker.Playing:
		c.emit(models.EventTypePlaying, models.ControlPayload{RequestID: a.ID})
		c.resolve(a)
	case worker.Paused:
		c.emit(models.EventTypePaused, models.ControlPayload{RequestID: a.ID})
		c.resolve(a)
	case worker.Stopped:
		c.emit(models.EventTypeStopped, models.ControlPayload{RequestID: a.ID})
		comp := c.resolve(a)
		if comp != nil && s.reloadAfter == comp.id {
			s.reloadAfter = 0
			c.load()
		}
	case worker.Resized:
		c.emit(models.EventTypeResized, models.ResizedPayload{Width: a.Size.Width, Height: a.Size.Height})
	default:
		c.logger.Warn().Str("ack", ack.Name()).Msg("unknown worker message")
	}
}

// flush sends the updates that arrived before the worker finished loading:
// the latest size first, then controls in arrival order.
func (c *Controller) flush() {
	s := c.session
	if s.sizePending {
		s.sizePending = false
		c.send(worker.ResizeMessage(s.drawSize))
	}
	queued := s.queued
	s.queued = nil
	for _, msg := range queued {
		c.send(msg)
	}
}

// resolve completes the request an acknowledgment answers: the one with the
// echoed id, or the oldest of the same kind when no id is echoed.
func (c *Controller) resolve(ack worker.Ack) *Completion {
	kind := ack.Name()
	id := worker.RequestID(ack)
	for i, comp := range c.outstanding {
		if comp.kind != kind || (id != 0 && comp.id != id) {
			continue
		}
		c.outstanding = append(c.outstanding[:i], c.outstanding[i+1:]...)
		comp.resolve(ack)
		return comp
	}
	c.logger.Debug().Str("ack", kind).Uint64("id", id).Msg("acknowledgment matches no request")
	return nil
}

func (c *Controller) themeChanged(seq uint64) {
	s := c.session
	if s == nil || s.seq != seq || !c.opts.Dynamic {
		return
	}
	if c.opts.Refresh == nil {
		c.applyTheme()
		return
	}

	refresh := c.opts.Refresh
	ctx := s.ctx
	go func() {
		if err := refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn().Err(err).Msg("display refresh failed")
		}
		c.post(func() {
			if c.session != nil && c.session.seq == seq {
				c.applyTheme()
			}
		})
	}()
}

func (c *Controller) applyTheme() {
	if c.doc == nil {
		c.logger.Info().Msg("refresh animation colors failed: no animation data")
		return
	}
	c.recolor()
	c.sendAnimation()
}

func (c *Controller) detach() {
	if s := c.session; s != nil {
		s.cancel()
		s.themeSub.Unsubscribe()
		if err := s.worker.Terminate(); err != nil {
			c.logger.Warn().Err(err).Str("session", s.id).Msg("failed to terminate worker")
		}
		c.emit(models.EventTypeSessionEnded, models.SessionPayload{Source: c.source})
		c.logger.Debug().Str("session", s.id).Int("outstanding", len(c.outstanding)).Msg("worker detached")
	}

	c.session = nil
	c.doc, c.index = nil, nil
	c.outstanding = nil
	c.state = StateTerminated
}

func (c *Controller) emit(eventType models.EventType, data any) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	if c.session != nil {
		event.Session = c.session.id
	}
	if err := c.opts.EventSink.Emit(context.Background(), event); err != nil {
		c.logger.Debug().Err(err).Str("event", string(eventType)).Msg("failed to emit event")
	}
}

func (c *Controller) snapshot() Snapshot {
	snap := Snapshot{
		State:       c.state,
		Source:      c.source,
		Outstanding: len(c.outstanding),
		Tokens:      c.index.Len(),
	}
	if s := c.session; s != nil {
		snap.Session = s.id
		snap.Transferred = s.transferred
		snap.Loaded = s.loaded
		snap.PendingSize = s.sizePending
		snap.QueuedControls = len(s.queued)
		snap.DrawSize = s.drawSize
	}
	return snap
}
