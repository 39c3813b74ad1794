package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrMissingAddress indicates no control address was configured.
var ErrMissingAddress = errors.New("control address is required")

// Client calls the control service of a running player.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr ("unix:///path" or "host:port"). Extra dial options
// are appended after the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	target, err := clientTarget(addr)
	if err != nil {
		return nil, err
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func clientTarget(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	switch {
	case addr == "":
		return "", ErrMissingAddress
	case strings.HasPrefix(addr, "unix:"), strings.Contains(addr, "://"):
		return addr, nil
	default:
		return "passthrough:///" + addr, nil
	}
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Ack is the result of a play, pause or stop call.
type Ack struct {
	Name string `json:"ack"`
	ID   uint64 `json:"id"`
}

// Play requests playback and returns the worker acknowledgment.
func (c *Client) Play(ctx context.Context) (Ack, error) {
	return c.control(ctx, MethodPlay)
}

// Pause requests a pause.
func (c *Client) Pause(ctx context.Context) (Ack, error) {
	return c.control(ctx, MethodPause)
}

// Stop requests a stop.
func (c *Client) Stop(ctx context.Context) (Ack, error) {
	return c.control(ctx, MethodStop)
}

func (c *Client) control(ctx context.Context, method string) (Ack, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, &emptypb.Empty{}, out); err != nil {
		return Ack{}, err
	}
	fields := out.GetFields()
	return Ack{
		Name: fields["ack"].GetStringValue(),
		ID:   uint64(fields["id"].GetNumberValue()),
	}, nil
}

// Resize sets the surface bounds.
func (c *Client) Resize(ctx context.Context, width, height float64) error {
	in, err := structpb.NewStruct(map[string]any{"width": width, "height": height})
	if err != nil {
		return err
	}
	return c.conn.Invoke(ctx, MethodResize, in, new(emptypb.Empty))
}

// SetSource switches the animation asset.
func (c *Client) SetSource(ctx context.Context, src string) error {
	return c.conn.Invoke(ctx, MethodSetSource, wrapperspb.String(src), new(emptypb.Empty))
}

// SetScheme switches the color scheme.
func (c *Client) SetScheme(ctx context.Context, scheme string) error {
	return c.conn.Invoke(ctx, MethodSetScheme, wrapperspb.String(scheme), new(emptypb.Empty))
}

// Status returns the player snapshot as a JSON-compatible map.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodStatus, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// Ping returns the server clock.
func (c *Client) Ping(ctx context.Context) (time.Time, error) {
	out := new(timestamppb.Timestamp)
	if err := c.conn.Invoke(ctx, MethodPing, &emptypb.Empty{}, out); err != nil {
		return time.Time{}, err
	}
	return out.AsTime(), nil
}

// StreamEvents calls fn for every event until ctx is done, the server ends
// the stream or fn returns an error.
func (c *Client) StreamEvents(ctx context.Context, fn func(map[string]any) error) error {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], MethodStreamEvents)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := fn(msg.AsMap()); err != nil {
			return err
		}
	}
}
