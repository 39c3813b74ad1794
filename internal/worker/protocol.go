// Package worker defines the rendering worker protocol and provides
// in-process and subprocess workers.
package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Ack names on the wire.
const (
	AckInitialized = "initialized"
	AckPlaying     = "playing"
	AckPaused      = "paused"
	AckStopped     = "stopped"
	AckResized     = "resized"
)

// ErrUnknownAck indicates an inbound message with an unrecognized name.
var ErrUnknownAck = errors.New("unknown worker message")

// Size is a draw buffer size in device pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Params are the playback parameters sent with an animation.
type Params struct {
	Loop     bool `json:"loop"`
	Autoplay bool `json:"autoplay"`
}

// Surface is the offscreen drawing surface handed to a worker. Ownership
// moves to the worker with the first animation message of a session.
type Surface struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewSurface returns a surface with a fresh id.
func NewSurface(width, height int) *Surface {
	return &Surface{ID: uuid.NewString(), Width: width, Height: height}
}

// Control is a playback command. Exactly one of Play or Stop is set. ID is
// the controller's request id and is echoed back by workers that support
// correlation.
type Control struct {
	Play *bool  `json:"play,omitempty"`
	Stop bool   `json:"stop,omitempty"`
	ID   uint64 `json:"id,omitempty"`
}

// Message is an outbound message to a worker. An animation message carries
// AnimationData, DrawSize and Params (and Canvas once per session); a resize
// carries only DrawSize; a control carries only Control.
type Message struct {
	AnimationData json.RawMessage `json:"animationData,omitempty"`
	DrawSize      *Size           `json:"drawSize,omitempty"`
	Params        *Params         `json:"params,omitempty"`
	Canvas        *Surface        `json:"canvas,omitempty"`
	Control       *Control        `json:"control,omitempty"`
}

// AnimationMessage builds an animation load message.
func AnimationMessage(data []byte, size Size, params Params, canvas *Surface) Message {
	return Message{
		AnimationData: data,
		DrawSize:      &size,
		Params:        &params,
		Canvas:        canvas,
	}
}

// ResizeMessage builds a resize-only message.
func ResizeMessage(size Size) Message {
	return Message{DrawSize: &size}
}

// PlayMessage builds a play (true) or pause (false) control.
func PlayMessage(play bool, id uint64) Message {
	return Message{Control: &Control{Play: &play, ID: id}}
}

// StopMessage builds a stop control.
func StopMessage(id uint64) Message {
	return Message{Control: &Control{Stop: true, ID: id}}
}

// IsAnimation reports whether m loads animation data.
func (m Message) IsAnimation() bool {
	return len(m.AnimationData) > 0
}

// Ack is an inbound acknowledgment from a worker. The set of
// implementations is closed: Initialized, Playing, Paused, Stopped and
// Resized.
type Ack interface {
	Name() string
	ack()
}

// Initialized acknowledges that an animation finished loading.
type Initialized struct{}

// Playing acknowledges a play control.
type Playing struct{ ID uint64 }

// Paused acknowledges a pause control.
type Paused struct{ ID uint64 }

// Stopped acknowledges a stop control.
type Stopped struct{ ID uint64 }

// Resized acknowledges a draw size change.
type Resized struct{ Size Size }

func (Initialized) Name() string { return AckInitialized }
func (Playing) Name() string     { return AckPlaying }
func (Paused) Name() string      { return AckPaused }
func (Stopped) Name() string     { return AckStopped }
func (Resized) Name() string     { return AckResized }

func (Initialized) ack() {}
func (Playing) ack()     {}
func (Paused) ack()      {}
func (Stopped) ack()     {}
func (Resized) ack()     {}

// RequestID returns the correlation id carried by a control ack, or zero.
func RequestID(a Ack) uint64 {
	switch v := a.(type) {
	case Playing:
		return v.ID
	case Paused:
		return v.ID
	case Stopped:
		return v.ID
	default:
		return 0
	}
}

type wireAck struct {
	Name string `json:"name"`
	Size *Size  `json:"size,omitempty"`
	ID   uint64 `json:"id,omitempty"`
}

// DecodeAck parses an inbound wire message.
func DecodeAck(data []byte) (Ack, error) {
	var w wireAck
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode worker message: %w", err)
	}
	switch w.Name {
	case AckInitialized:
		return Initialized{}, nil
	case AckPlaying:
		return Playing{ID: w.ID}, nil
	case AckPaused:
		return Paused{ID: w.ID}, nil
	case AckStopped:
		return Stopped{ID: w.ID}, nil
	case AckResized:
		if w.Size == nil {
			return Resized{}, nil
		}
		return Resized{Size: *w.Size}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAck, w.Name)
	}
}

// EncodeAck produces the wire form of an ack.
func EncodeAck(a Ack) ([]byte, error) {
	w := wireAck{Name: a.Name(), ID: RequestID(a)}
	if r, ok := a.(Resized); ok {
		size := r.Size
		w.Size = &size
	}
	return json.Marshal(w)
}
