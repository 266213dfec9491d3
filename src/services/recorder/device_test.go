package recorder

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"talk2trade/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shDevice(t *testing.T, script string) *ExecDevice {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return &ExecDevice{
		Command:    "sh",
		Args:       []string{"-c", script},
		StartGrace: 200 * time.Millisecond,
		StopGrace:  time.Second,
		ChunkSize:  16,
	}
}

type sinkBuffer struct {
	mu   sync.Mutex
	data []byte
}

func (b *sinkBuffer) sink(chunk []byte) {
	b.mu.Lock()
	b.data = append(b.data, chunk...)
	b.mu.Unlock()
}

func (b *sinkBuffer) bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data...)
}

func TestExecDeviceMissingBinary(t *testing.T) {
	d := &ExecDevice{Command: "talk2trade-no-such-recorder", StartGrace: 10 * time.Millisecond}

	_, err := d.Open(context.Background(), func([]byte) {})
	assert.ErrorIs(t, err, models.ErrCaptureDenied)
}

func TestExecDeviceExitsDuringGrace(t *testing.T) {
	d := shDevice(t, "echo 'device busy' >&2; exit 1")

	_, err := d.Open(context.Background(), func([]byte) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrCaptureDenied)
	assert.Contains(t, err.Error(), "device busy")
}

func TestExecDeviceCapturesUntilClosed(t *testing.T) {
	d := shDevice(t, "printf 'RIFF0123456789abcdefWAVE'; exec sleep 30")
	buf := &sinkBuffer{}

	stream, err := d.Open(context.Background(), buf.sink)
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	assert.Equal(t, []byte("RIFF0123456789abcdefWAVE"), buf.bytes())
}

func TestExecDeviceCancelledDuringGrace(t *testing.T) {
	d := shDevice(t, "exec sleep 30")
	d.StartGrace = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := d.Open(ctx, func([]byte) {})
	assert.ErrorIs(t, err, context.Canceled)
}
