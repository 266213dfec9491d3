// Package recorder implements the microphone state machine: Idle and
// Recording, toggled by a single control.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"talk2trade/src/models"

	"go.uber.org/zap"
)

// State is the recorder state.
type State int32

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// ErrNotRecording is returned by Stop in the Idle state.
var ErrNotRecording = errors.New("recorder is not recording")

// ErrAlreadyRecording is returned by Start in the Recording state.
var ErrAlreadyRecording = errors.New("recorder is already recording")

// Transition describes what Toggle did. Blob is set when recording stopped.
type Transition struct {
	From State
	To   State
	Blob models.AudioBlob
}

// Recorder owns at most one capture session.
type Recorder struct {
	mu     sync.Mutex // serializes transitions
	state  atomic.Int32
	device CaptureDevice
	stream Stream
	logger *zap.Logger

	chunkMu sync.Mutex
	chunks  [][]byte

	startedAt time.Time
	now       func() time.Time
}

// New creates an idle recorder around device.
func New(device CaptureDevice, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		device: device,
		logger: logger.Named("recorder"),
		now:    time.Now,
	}
}

// State is safe to call from any goroutine, including while Start is waiting
// on the device.
func (r *Recorder) State() State {
	return State(r.state.Load())
}

// StartedAt is when the current recording began; zero when idle.
func (r *Recorder) StartedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startedAt
}

// Start opens the capture device. On failure the recorder stays Idle and the
// error is a *models.CaptureError wrapping models.ErrCaptureDenied.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(ctx)
}

func (r *Recorder) startLocked(ctx context.Context) error {
	if r.State() == Recording {
		return ErrAlreadyRecording
	}

	r.chunkMu.Lock()
	r.chunks = nil
	r.chunkMu.Unlock()

	stream, err := r.device.Open(ctx, r.collect)
	if err != nil {
		if !errors.Is(err, models.ErrCaptureDenied) {
			err = fmt.Errorf("%w: %w", models.ErrCaptureDenied, err)
		}
		r.chunkMu.Lock()
		r.chunks = nil
		r.chunkMu.Unlock()
		r.logger.Warn("microphone unavailable", zap.Error(err))
		return &models.CaptureError{Op: "start", Err: err}
	}

	r.stream = stream
	r.startedAt = r.now()
	r.state.Store(int32(Recording))
	r.logger.Info("recording started")
	return nil
}

// Stop closes the capture stream and returns every captured chunk as one blob.
func (r *Recorder) Stop() (models.AudioBlob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

func (r *Recorder) stopLocked() (models.AudioBlob, error) {
	if r.State() != Recording {
		return models.AudioBlob{}, ErrNotRecording
	}

	stream := r.stream
	r.stream = nil
	r.state.Store(int32(Idle))
	duration := r.now().Sub(r.startedAt)
	r.startedAt = time.Time{}

	if err := stream.Close(); err != nil {
		r.logger.Warn("close capture stream", zap.Error(err))
	}

	r.chunkMu.Lock()
	blob := models.NewAudioBlob(r.chunks)
	r.chunks = nil
	r.chunkMu.Unlock()

	r.logger.Info("recording stopped", zap.Int("bytes", len(blob.Data)), zap.Duration("duration", duration))
	return blob, nil
}

// Toggle starts recording when Idle and stops it when Recording.
func (r *Recorder) Toggle(ctx context.Context) (Transition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State() == Recording {
		blob, err := r.stopLocked()
		return Transition{From: Recording, To: Idle, Blob: blob}, err
	}
	if err := r.startLocked(ctx); err != nil {
		return Transition{From: Idle, To: Idle}, err
	}
	return Transition{From: Idle, To: Recording}, nil
}

// Shutdown releases the device without producing a blob.
func (r *Recorder) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State() != Recording {
		return
	}
	if _, err := r.stopLocked(); err == nil {
		r.logger.Info("recording discarded on shutdown")
	}
}

func (r *Recorder) collect(chunk []byte) {
	r.chunkMu.Lock()
	r.chunks = append(r.chunks, chunk)
	r.chunkMu.Unlock()
}
