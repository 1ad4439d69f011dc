package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/muurk/pantti/internal/logging"
)

// Device is a capture device as reported by enumeration.
type Device struct {
	ID    string
	Label string
}

// Callback receives every decode attempt. err is ErrNotFound for noise
// frames; any other error ends the session.
type Callback func(Result, error)

// Session is a continuous-decode handle over capture devices.
type Session interface {
	ListCaptureDevices(ctx context.Context) ([]Device, error)
	// DecodeContinuously starts decoding from deviceID and returns once the
	// device is open. target names the UI element the capture is shown in.
	DecodeContinuously(ctx context.Context, deviceID, target string, cb Callback) error
	Stop()
	// Reset releases the session. It is safe to call when idle.
	Reset()
}

// MediaDevices is the platform media layer.
type MediaDevices interface {
	// RequestAccess checks whether capture devices can be used at all.
	RequestAccess(ctx context.Context) error
	EnumerateCaptureDevices(ctx context.Context) ([]Device, error)
}

// PortOpener lists and opens line-oriented capture devices.
type PortOpener interface {
	Ports(ctx context.Context) ([]Device, error)
	Open(deviceID string) (io.ReadCloser, error)
}

// ErrNilCallback is returned by DecodeContinuously without a callback.
var ErrNilCallback = errors.New("decode callback is nil")

// maxFrameSize bounds a single line read from a device.
const maxFrameSize = 64 * 1024

// LineSession decodes one barcode per line read from a PortOpener device.
// At most one device is read at a time.
type LineSession struct {
	opener PortOpener

	mu     sync.Mutex
	active *decodeRun
}

// NewLineSession creates a session over opener.
func NewLineSession(opener PortOpener) *LineSession {
	return &LineSession{opener: opener}
}

// ListCaptureDevices returns the devices the opener can see.
func (s *LineSession) ListCaptureDevices(ctx context.Context) ([]Device, error) {
	return s.opener.Ports(ctx)
}

// DecodeContinuously opens deviceID and calls cb for every frame from a
// background goroutine until the session is stopped, ctx is done or the
// device fails. A run already in progress is stopped first.
func (s *LineSession) DecodeContinuously(ctx context.Context, deviceID, target string, cb Callback) error {
	if cb == nil {
		return ErrNilCallback
	}

	s.Stop()

	port, err := s.opener.Open(deviceID)
	if err != nil {
		return fmt.Errorf("open capture device %s: %w", deviceID, err)
	}

	run := &decodeRun{
		deviceID: deviceID,
		port:     port,
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	prev := s.active
	s.active = run
	s.mu.Unlock()

	if prev != nil {
		prev.stop()
	}

	logging.Info("Started continuous decode",
		zap.String("device_id", deviceID),
		zap.String("target", target),
	)

	go run.watch(ctx)
	go run.read(cb)
	return nil
}

// Stop ends the current run, if any. No callback fires for frames read
// after Stop returns.
func (s *LineSession) Stop() {
	s.mu.Lock()
	run := s.active
	s.active = nil
	s.mu.Unlock()

	if run != nil {
		run.stop()
		logging.Debug("Stopped continuous decode", zap.String("device_id", run.deviceID))
	}
}

// Reset releases the session. LineSession keeps no decoder state besides
// the open device, so this is Stop.
func (s *LineSession) Reset() {
	s.Stop()
}

// Active reports whether a device is being read.
func (s *LineSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

type decodeRun struct {
	deviceID string
	port     io.ReadCloser
	done     chan struct{}

	stopped  atomic.Bool
	stopOnce sync.Once
}

func (r *decodeRun) stop() {
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		if err := r.port.Close(); err != nil {
			logging.Debug("Closing capture device failed",
				zap.String("device_id", r.deviceID),
				zap.Error(err),
			)
		}
	})
}

func (r *decodeRun) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		r.stop()
	case <-r.done:
	}
}

func (r *decodeRun) read(cb Callback) {
	defer close(r.done)

	sc := bufio.NewScanner(r.port)
	sc.Buffer(make([]byte, 4096), maxFrameSize)

	for sc.Scan() {
		if r.stopped.Load() {
			return
		}
		result, err := Decode(sc.Text())
		if err == nil {
			result.DeviceID = r.deviceID
		}
		cb(result, err)
	}

	if r.stopped.Load() {
		return
	}

	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	cb(Result{}, fmt.Errorf("read capture device %s: %w", r.deviceID, err))
}
