// Package control exposes a running controller over gRPC so other processes
// can drive playback, switch schemes and follow events.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opencode-ai/illo/internal/palette"
	"github.com/opencode-ai/illo/internal/renderer"
	"github.com/opencode-ai/illo/internal/worker"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "illo.control.v1.Player"

// Full method names, as seen by interceptors.
const (
	MethodPlay         = "/" + ServiceName + "/Play"
	MethodPause        = "/" + ServiceName + "/Pause"
	MethodStop         = "/" + ServiceName + "/Stop"
	MethodResize       = "/" + ServiceName + "/Resize"
	MethodSetSource    = "/" + ServiceName + "/SetSource"
	MethodSetScheme    = "/" + ServiceName + "/SetScheme"
	MethodStatus       = "/" + ServiceName + "/Status"
	MethodPing         = "/" + ServiceName + "/Ping"
	MethodStreamEvents = "/" + ServiceName + "/StreamEvents"
)

// PlayerServer is the server API of the control service. Messages are
// protobuf well-known types so no generated code is needed.
type PlayerServer interface {
	Play(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Pause(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Stop(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Resize(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	SetSource(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	SetScheme(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Ping(context.Context, *emptypb.Empty) (*timestamppb.Timestamp, error)
	StreamEvents(*emptypb.Empty, grpc.ServerStream) error
}

// ServiceDesc describes the control service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlayerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Play", PlayerServer.Play),
		unary("Pause", PlayerServer.Pause),
		unary("Stop", PlayerServer.Stop),
		unary("Resize", PlayerServer.Resize),
		unary("SetSource", PlayerServer.SetSource),
		unary("SetScheme", PlayerServer.SetScheme),
		unary("Status", PlayerServer.Status),
		unary("Ping", PlayerServer.Ping),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamEvents",
			Handler:       streamEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "illo/control/v1/player.proto",
}

func unary[Req, Resp any](method string, call func(PlayerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PlayerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(PlayerServer), ctx, req.(*Req))
			})
		},
	}
}

func streamEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(PlayerServer).StreamEvents(in, stream)
}

// Player is the part of the renderer controller the service drives.
type Player interface {
	Play() *renderer.Completion
	Pause() *renderer.Completion
	Stop() *renderer.Completion
	Resize(bounds worker.Size)
	SetSource(src string)
	Snapshot() renderer.Snapshot
}

// Schemer switches the active color scheme.
type Schemer interface {
	Scheme() string
	SetScheme(name string) error
}

// Server implements PlayerServer over a controller.
type Server struct {
	player     Player
	theme      Schemer
	hub        *Hub
	logger     zerolog.Logger
	startedAt  time.Time
	version    string
	ackTimeout time.Duration

	done     chan struct{}
	doneOnce sync.Once
}

var _ PlayerServer = (*Server)(nil)

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithVersion sets the reported version.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// WithTheme enables SetScheme.
func WithTheme(theme Schemer) ServerOption {
	return func(s *Server) {
		s.theme = theme
	}
}

// WithHub enables StreamEvents. The hub must also be installed as an event
// sink on the controller.
func WithHub(hub *Hub) ServerOption {
	return func(s *Server) {
		s.hub = hub
	}
}

// WithAckTimeout bounds how long control calls wait for the worker when the
// caller sets no deadline.
func WithAckTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.ackTimeout = d
	}
}

// NewServer creates the control service for player.
func NewServer(player Player, logger zerolog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		player:     player,
		logger:     logger,
		startedAt:  time.Now(),
		version:    "dev",
		ackTimeout: 5 * time.Second,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Play requests playback and waits for the worker to acknowledge it.
func (s *Server) Play(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.await(ctx, s.player.Play())
}

// Pause requests a pause and waits for the acknowledgment.
func (s *Server) Pause(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.await(ctx, s.player.Pause())
}

// Stop requests a stop and waits for the acknowledgment.
func (s *Server) Stop(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.await(ctx, s.player.Stop())
}

func (s *Server) await(ctx context.Context, c *renderer.Completion) (*structpb.Struct, error) {
	if _, ok := ctx.Deadline(); !ok && s.ackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ackTimeout)
		defer cancel()
	}

	ack, err := c.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, status.Errorf(codes.DeadlineExceeded, "%s request %d not acknowledged", c.Kind(), c.ID())
		}
		return nil, status.FromContextError(err).Err()
	}
	return structpb.NewStruct(map[string]any{
		"ack": ack.Name(),
		"id":  float64(c.ID()),
	})
}

// Resize sets new surface bounds from {"width": w, "height": h}.
func (s *Server) Resize(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	fields := req.GetFields()
	width := fields["width"].GetNumberValue()
	height := fields["height"].GetNumberValue()
	if width <= 0 || height <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "width and height must be positive, got %vx%v", width, height)
	}
	s.player.Resize(worker.Size{Width: width, Height: height})
	return &emptypb.Empty{}, nil
}

// SetSource switches the animation asset.
func (s *Server) SetSource(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "source is required")
	}
	s.logger.Info().Str("source", req.GetValue()).Msg("source changed remotely")
	s.player.SetSource(req.GetValue())
	return &emptypb.Empty{}, nil
}

// SetScheme switches the active color scheme.
func (s *Server) SetScheme(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if s.theme == nil {
		return nil, status.Error(codes.Unimplemented, "scheme switching is not enabled")
	}
	if err := s.theme.SetScheme(req.GetValue()); err != nil {
		if errors.Is(err, palette.ErrUnknownScheme) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &emptypb.Empty{}, nil
}

// Status returns the controller snapshot plus service details.
func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	fields, err := toMap(s.player.Snapshot())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	fields["version"] = s.version
	fields["uptime_seconds"] = time.Since(s.startedAt).Seconds()
	if s.theme != nil {
		fields["scheme"] = s.theme.Scheme()
	}
	return structpb.NewStruct(fields)
}

// Ping returns the server time.
func (s *Server) Ping(ctx context.Context, _ *emptypb.Empty) (*timestamppb.Timestamp, error) {
	return timestamppb.Now(), nil
}

// Shutdown ends every open event stream. Unary calls are unaffected.
func (s *Server) Shutdown() {
	s.doneOnce.Do(func() { close(s.done) })
}

// StreamEvents sends controller events until the client goes away or the
// server shuts down.
func (s *Server) StreamEvents(_ *emptypb.Empty, stream grpc.ServerStream) error {
	if s.hub == nil {
		return status.Error(codes.Unimplemented, "event streaming is not enabled")
	}
	events, cancel := s.hub.Subscribe()
	defer cancel()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			msg, err := EventToStruct(event)
			if err != nil {
				s.logger.Warn().Err(err).Str("type", string(event.Type)).Msg("event not streamable")
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

// EventToStruct converts a controller event into its wire form.
func EventToStruct(event renderer.Event) (*structpb.Struct, error) {
	fields, err := toMap(event)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%T is not an object", v)
	}
	return out, nil
}
