package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
)

// Daemon serves the control service on a listener.
type Daemon struct {
	addr       string
	logger     zerolog.Logger
	server     *Server
	limiter    *RateLimiter
	grpcServer *grpc.Server
}

// NewDaemon prepares a gRPC server for server on addr ("unix:///path" or
// "host:port"). A nil limiter disables rate limiting.
func NewDaemon(addr string, server *Server, limiter *RateLimiter, logger zerolog.Logger) (*Daemon, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, ErrMissingAddress
	}
	if server == nil {
		return nil, errors.New("control server is required")
	}

	var opts []grpc.ServerOption
	if limiter != nil {
		opts = append(opts,
			grpc.UnaryInterceptor(limiter.UnaryServerInterceptor()),
			grpc.StreamInterceptor(limiter.StreamServerInterceptor()),
		)
	}
	grpcServer := grpc.NewServer(opts...)
	grpcServer.RegisterService(&ServiceDesc, server)

	return &Daemon{
		addr:       addr,
		logger:     logger,
		server:     server,
		limiter:    limiter,
		grpcServer: grpcServer,
	}, nil
}

// Run listens on the daemon address and serves until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	listener, err := listen(d.addr)
	if err != nil {
		return err
	}
	return d.Serve(ctx, listener)
}

// Serve serves on an existing listener until ctx is canceled.
func (d *Daemon) Serve(ctx context.Context, listener net.Listener) error {
	d.logger.Info().Str("addr", d.addr).Msg("control server starting")

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.grpcServer.Serve(listener)
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		d.server.Shutdown()
		d.grpcServer.GracefulStop()
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("control server: %w", err)
		}
	}

	d.logger.Info().Msg("control server stopped")
	return nil
}

// listen opens a unix socket for "unix:" addresses, removing a stale socket
// file first, and a TCP listener otherwise.
func listen(addr string) (net.Listener, error) {
	if path, ok := unixPath(addr); ok {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
		listener, err := net.Listen("unix", path)
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %w", path, err)
		}
		return listener, nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return listener, nil
}

func unixPath(addr string) (string, bool) {
	switch {
	case strings.HasPrefix(addr, "unix://"):
		return strings.TrimPrefix(addr, "unix://"), true
	case strings.HasPrefix(addr, "unix:"):
		return strings.TrimPrefix(addr, "unix:"), true
	default:
		return "", false
	}
}
