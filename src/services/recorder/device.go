package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"talk2trade/src/config"
	"talk2trade/src/models"

	"go.uber.org/zap"
)

// ChunkSink receives captured audio in arrival order. It is called from the
// device's reader goroutine.
type ChunkSink func(chunk []byte)

// CaptureDevice opens the microphone.
type CaptureDevice interface {
	// Open starts capturing into sink. On error nothing is left running.
	Open(ctx context.Context, sink ChunkSink) (Stream, error)
}

// Stream is an open capture.
type Stream interface {
	// Close stops the capture and returns once sink will not be called again.
	// Calling Close more than once is a no-op.
	Close() error
}

// ExecDevice captures audio from an external recorder process that writes WAV
// to stdout, e.g. `arecord -q -f cd -t wav -` or `sox -d -t wav -`.
type ExecDevice struct {
	Command    string
	Args       []string
	StartGrace time.Duration
	StopGrace  time.Duration
	ChunkSize  int
	Logger     *zap.Logger
}

// NewExecDevice builds a device from the audio configuration.
func NewExecDevice(cfg config.AudioConfig, logger *zap.Logger) *ExecDevice {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecDevice{
		Command:    cfg.Command,
		Args:       cfg.Args,
		StartGrace: cfg.StartGrace,
		StopGrace:  cfg.StopGrace,
		ChunkSize:  cfg.ChunkSize,
		Logger:     logger.Named("capture"),
	}
}

// Open spawns the recorder process. A missing binary or a process that exits
// within StartGrace is reported as ErrCaptureDenied.
func (d *ExecDevice) Open(ctx context.Context, sink ChunkSink) (Stream, error) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	path, err := exec.LookPath(d.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrCaptureDenied, err)
	}

	cmd := exec.Command(path, d.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	s := &execStream{
		cmd:       cmd,
		stopGrace: d.StopGrace,
		exited:    make(chan struct{}),
		logger:    logger,
	}
	cmd.Stderr = &s.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", models.ErrCaptureDenied, d.Command, err)
	}
	logger.Debug("capture process started", zap.String("command", d.Command), zap.Int("pid", cmd.Process.Pid))

	chunkSize := d.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	go s.collect(stdout, chunkSize, sink)

	select {
	case <-s.exited:
		return nil, fmt.Errorf("%w: %s exited: %s", models.ErrCaptureDenied, d.Command, s.stderrTail())
	case <-ctx.Done():
		_ = s.Close()
		return nil, ctx.Err()
	case <-time.After(d.StartGrace):
		return s, nil
	}
}

type execStream struct {
	cmd       *exec.Cmd
	stopGrace time.Duration
	stderr    bytes.Buffer // written by exec until Wait returns
	exited    chan struct{}
	waitErr   error
	once      sync.Once
	logger    *zap.Logger
}

// collect reads stdout until EOF, then reaps the process.
func (s *execStream) collect(stdout io.Reader, chunkSize int, sink ChunkSink) {
	buf := make([]byte, chunkSize)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			sink(chunk)
		}
		if err != nil {
			break
		}
	}
	s.waitErr = s.cmd.Wait()
	close(s.exited)
}

// Close interrupts the process, then kills it if it has not exited after the
// stop grace period.
func (s *execStream) Close() error {
	s.once.Do(func() {
		select {
		case <-s.exited:
			return
		default:
		}

		if err := s.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("interrupt capture process", zap.Error(err))
		}
		select {
		case <-s.exited:
		case <-time.After(s.stopGrace):
			s.logger.Warn("capture process ignored interrupt, killing", zap.Duration("grace", s.stopGrace))
			_ = s.cmd.Process.Kill()
			<-s.exited
		}
		s.logger.Debug("capture process stopped", zap.NamedError("wait", s.waitErr))
	})
	return nil
}

func (s *execStream) stderrTail() string {
	out := strings.TrimSpace(s.stderr.String())
	if len(out) > 200 {
		out = out[len(out)-200:]
	}
	if out == "" {
		return "no output"
	}
	return out
}
