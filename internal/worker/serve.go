package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/opencode-ai/illo/internal/logging"
)

// Serve runs the worker side of the JSON-lines protocol: messages are read
// from r and acknowledgments are written to w. It returns when r is
// exhausted or ctx is done.
func Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	logger := logging.Component("worker-serve")
	player := NewPlayer(logger)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	out := bufio.NewWriter(w)
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read messages: %w", err)
					}
				default:
				}
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			var msg Message
			if err := json.Unmarshal([]byte(line), &msg); err != nil {
				logger.Warn().Err(err).Msg("ignoring malformed message")
				continue
			}

			now := time.Now()
			player.Advance(now.Sub(last))
			last = now

			for _, ack := range player.Handle(msg) {
				data, err := EncodeAck(ack)
				if err != nil {
					return err
				}
				if _, err := out.Write(append(data, '\n')); err != nil {
					return fmt.Errorf("write ack: %w", err)
				}
			}
			if err := out.Flush(); err != nil {
				return fmt.Errorf("write ack: %w", err)
			}
		}
	}
}
