package worker

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

var errSurfaceTransferred = errors.New("surface already transferred")

// PlayerState is a snapshot of the emulated playback.
type PlayerState struct {
	Loaded    bool
	Playing   bool
	Loop      bool
	Frame     float64
	InPoint   float64
	OutPoint  float64
	FrameRate float64
	DrawSize  Size
	Surface   *Surface
	Transfers int
}

// Player emulates the rendering black box. It is not safe for concurrent
// use; Local serializes access.
type Player struct {
	state  PlayerState
	logger zerolog.Logger
}

type animationHeader struct {
	InPoint   float64 `json:"ip"`
	OutPoint  float64 `json:"op"`
	FrameRate float64 `json:"fr"`
}

// NewPlayer returns an idle player.
func NewPlayer(logger zerolog.Logger) *Player {
	return &Player{logger: logger}
}

// State returns a copy of the current playback state.
func (p *Player) State() PlayerState {
	return p.state
}

// Handle applies a message and returns the acknowledgments it produces.
func (p *Player) Handle(msg Message) []Ack {
	if msg.Canvas != nil {
		if err := p.adopt(msg.Canvas); err != nil {
			p.logger.Error().Err(err).Str("surface", msg.Canvas.ID).Msg("rejecting surface")
		}
	}

	var acks []Ack
	switch {
	case msg.IsAnimation():
		if msg.DrawSize != nil {
			p.state.DrawSize = *msg.DrawSize
		}
		if err := p.load(msg.AnimationData, msg.Params); err != nil {
			p.logger.Warn().Err(err).Msg("failed to load animation")
			return nil
		}
		acks = append(acks, Initialized{})
	case msg.DrawSize != nil:
		p.state.DrawSize = *msg.DrawSize
		acks = append(acks, Resized{Size: *msg.DrawSize})
	}

	if msg.Control != nil {
		if ack := p.control(*msg.Control); ack != nil {
			acks = append(acks, ack)
		}
	}
	return acks
}

// Advance moves playback forward by elapsed wall time.
func (p *Player) Advance(elapsed time.Duration) {
	s := &p.state
	if !s.Loaded || !s.Playing || s.FrameRate <= 0 {
		return
	}
	s.Frame += elapsed.Seconds() * s.FrameRate
	if s.Frame < s.OutPoint {
		return
	}
	if s.Loop && s.OutPoint > s.InPoint {
		span := s.OutPoint - s.InPoint
		for s.Frame >= s.OutPoint {
			s.Frame -= span
		}
		return
	}
	s.Frame = s.OutPoint
	s.Playing = false
}

// FrameInterval is the wall time of one frame, or zero when nothing plays.
func (p *Player) FrameInterval() time.Duration {
	if !p.state.Loaded || !p.state.Playing || p.state.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / p.state.FrameRate)
}

func (p *Player) adopt(surface *Surface) error {
	if p.state.Surface != nil {
		return errSurfaceTransferred
	}
	p.state.Surface = surface
	p.state.Transfers++
	return nil
}

func (p *Player) load(data json.RawMessage, params *Params) error {
	var header animationHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return err
	}
	s := &p.state
	s.Loaded = true
	s.InPoint = header.InPoint
	s.OutPoint = header.OutPoint
	s.FrameRate = header.FrameRate
	s.Frame = header.InPoint
	s.Playing = false
	if params != nil {
		s.Loop = params.Loop
		s.Playing = params.Autoplay
	}
	return nil
}

func (p *Player) control(c Control) Ack {
	s := &p.state
	switch {
	case c.Stop:
		s.Playing = false
		s.Frame = s.InPoint
		return Stopped{ID: c.ID}
	case c.Play != nil && *c.Play:
		s.Playing = s.Loaded
		return Playing{ID: c.ID}
	case c.Play != nil:
		s.Playing = false
		return Paused{ID: c.ID}
	default:
		p.logger.Warn().Uint64("id", c.ID).Msg("empty control message")
		return nil
	}
}
