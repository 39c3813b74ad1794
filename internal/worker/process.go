package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/opencode-ai/illo/internal/logging"
	"github.com/rs/zerolog"
)

// ErrMissingCommand indicates no worker command was configured.
var ErrMissingCommand = errors.New("worker command is required")

const (
	defaultStderrLines = 50
	terminateGrace     = 2 * time.Second
)

// Process is a worker running as a child process. Messages are written to
// its stdin as JSON lines and acknowledgments are read from its stdout.
type Process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	encoder *json.Encoder
	acks    chan Ack
	stderr  *LineRing
	logger  zerolog.Logger

	mu     sync.Mutex
	closed bool
	stop   chan struct{}
	exited chan struct{}
	err    error
}

// ProcessFactory returns a Factory that spawns command for every session.
func ProcessFactory(command []string) Factory {
	return func(ctx context.Context) (Worker, error) {
		return StartProcess(ctx, command)
	}
}

// StartProcess launches command as a worker.
func StartProcess(ctx context.Context, command []string) (*Process, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, ErrMissingCommand
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Env = os.Environ()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}

	p := &Process{
		cmd:     cmd,
		stdin:   stdin,
		encoder: json.NewEncoder(stdin),
		acks:    make(chan Ack, ackBuffer),
		stderr:  NewLineRing(defaultStderrLines),
		logger:  logging.Component("worker").With().Int("pid", cmd.Process.Pid).Logger(),
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		p.readAcks(stdout)
	}()
	go func() {
		defer readers.Done()
		p.readStderr(stderr)
	}()
	go func() {
		readers.Wait()
		p.err = cmd.Wait()
		close(p.acks)
		close(p.exited)
	}()

	return p, nil
}

// Post writes a message to the worker's stdin.
func (p *Process) Post(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrTerminated
	}
	if err := p.encoder.Encode(msg); err != nil {
		return fmt.Errorf("post to worker: %w", err)
	}
	return nil
}

// Acks returns the acknowledgment channel. It closes when the process exits.
func (p *Process) Acks() <-chan Ack {
	return p.acks
}

// Terminate closes stdin and waits for the process, killing it if it does
// not exit promptly.
func (p *Process) Terminate() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.exited
		return nil
	}
	p.closed = true
	close(p.stop)
	_ = p.stdin.Close()
	p.mu.Unlock()

	select {
	case <-p.exited:
	case <-time.After(terminateGrace):
		p.logger.Warn().Msg("worker did not exit, killing")
		_ = p.cmd.Process.Kill()
		<-p.exited
	}

	if p.err != nil {
		var exitErr *exec.ExitError
		if errors.As(p.err, &exitErr) && !exitErr.Exited() {
			// Killed by signal after terminate.
			return nil
		}
		return fmt.Errorf("worker exit: %w", p.err)
	}
	return nil
}

// StderrTail returns the last lines the worker wrote to stderr.
func (p *Process) StderrTail() []string {
	return p.stderr.Snapshot()
}

func (p *Process) readAcks(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ack, err := DecodeAck([]byte(line))
		if err != nil {
			p.logger.Warn().Err(err).Msg("ignoring worker message")
			continue
		}
		select {
		case p.acks <- ack:
		case <-p.stop:
		}
	}

	if err := scanner.Err(); err != nil {
		p.logger.Warn().Err(err).Msg("worker output reader error")
	}
}

func (p *Process) readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		p.stderr.Add(line)
		p.logger.Debug().Str("line", line).Msg("worker stderr")
	}
}
