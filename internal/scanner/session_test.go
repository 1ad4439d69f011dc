package scanner

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeOpener struct {
	mu      sync.Mutex
	devices []Device
	listErr error
	openErr error
	ports   map[string]io.ReadCloser
	opened  []string
}

func (f *fakeOpener) Ports(ctx context.Context) ([]Device, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.devices, nil
}

func (f *fakeOpener) Open(id string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, id)
	if f.openErr != nil {
		return nil, f.openErr
	}
	port, ok := f.ports[id]
	if !ok {
		return nil, errors.New("no such device")
	}
	return port, nil
}

type event struct {
	result Result
	err    error
}

func collect(buffer int) (Callback, <-chan event) {
	ch := make(chan event, buffer)
	return func(r Result, err error) { ch <- event{r, err} }, ch
}

func next(t *testing.T, ch <-chan event) event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		return event{}
	}
}

func TestLineSession_DecodesFrames(t *testing.T) {
	opener := &fakeOpener{ports: map[string]io.ReadCloser{
		"/dev/ttyACM0": io.NopCloser(strings.NewReader("noise\n4006381333931\n")),
	}}
	s := NewLineSession(opener)
	cb, events := collect(8)

	if err := s.DecodeContinuously(context.Background(), "/dev/ttyACM0", "video", cb); err != nil {
		t.Fatalf("DecodeContinuously() error = %v", err)
	}

	ev := next(t, events)
	if !errors.Is(ev.err, ErrNotFound) {
		t.Fatalf("first frame error = %v, want ErrNotFound", ev.err)
	}

	ev = next(t, events)
	if ev.err != nil {
		t.Fatalf("second frame error = %v", ev.err)
	}
	if ev.result.Text != "4006381333931" || ev.result.DeviceID != "/dev/ttyACM0" {
		t.Errorf("result = %+v", ev.result)
	}

	ev = next(t, events)
	if ev.err == nil || errors.Is(ev.err, ErrNotFound) {
		t.Fatalf("end of input error = %v, want fatal error", ev.err)
	}
	if !errors.Is(ev.err, io.EOF) {
		t.Errorf("end of input error = %v, want wrapped io.EOF", ev.err)
	}
}

func TestLineSession_OpenFailure(t *testing.T) {
	opener := &fakeOpener{openErr: errors.New("device busy")}
	s := NewLineSession(opener)

	err := s.DecodeContinuously(context.Background(), "/dev/ttyUSB0", "video", func(Result, error) {})
	if err == nil {
		t.Fatal("DecodeContinuously() expected error")
	}
	if !strings.Contains(err.Error(), "device busy") {
		t.Errorf("error = %v, want it to wrap the open failure", err)
	}
	if s.Active() {
		t.Error("session should not be active after failed open")
	}
}

func TestLineSession_NilCallback(t *testing.T) {
	s := NewLineSession(&fakeOpener{})
	if err := s.DecodeContinuously(context.Background(), "x", "video", nil); !errors.Is(err, ErrNilCallback) {
		t.Errorf("error = %v, want ErrNilCallback", err)
	}
}

func TestLineSession_StopSilencesCallbacks(t *testing.T) {
	pr, pw := io.Pipe()
	opener := &fakeOpener{ports: map[string]io.ReadCloser{"dev": pr}}
	s := NewLineSession(opener)
	cb, events := collect(8)

	if err := s.DecodeContinuously(context.Background(), "dev", "video", cb); err != nil {
		t.Fatalf("DecodeContinuously() error = %v", err)
	}
	if !s.Active() {
		t.Fatal("session should be active")
	}

	if _, err := pw.Write([]byte("96385074\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ev := next(t, events); ev.err != nil || ev.result.Text != "96385074" {
		t.Fatalf("event = %+v", ev)
	}

	s.Stop()
	if s.Active() {
		t.Error("session should be idle after Stop()")
	}

	// The pipe is closed by Stop, so the reader ends without a callback.
	if _, err := pw.Write([]byte("4006381333931\n")); err == nil {
		t.Error("write after Stop() should fail on the closed pipe")
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected callback after Stop(): %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLineSession_ResetIsIdempotent(t *testing.T) {
	s := NewLineSession(&fakeOpener{})
	s.Reset()
	s.Reset()
	s.Stop()
	if s.Active() {
		t.Error("idle session reported active")
	}
}

func TestLineSession_ContextCancelStops(t *testing.T) {
	pr, _ := io.Pipe()
	opener := &fakeOpener{ports: map[string]io.ReadCloser{"dev": pr}}
	s := NewLineSession(opener)
	cb, events := collect(1)

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.DecodeContinuously(ctx, "dev", "video", cb); err != nil {
		t.Fatalf("DecodeContinuously() error = %v", err)
	}
	cancel()

	select {
	case ev := <-events:
		t.Errorf("unexpected callback after cancel: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLineSession_ListCaptureDevices(t *testing.T) {
	want := []Device{{ID: "stdin", Label: "Standard input"}, {ID: "/dev/ttyACM0", Label: "Scanner"}}
	s := NewLineSession(&fakeOpener{devices: want})

	got, err := s.ListCaptureDevices(context.Background())
	if err != nil {
		t.Fatalf("ListCaptureDevices() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d devices, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("device[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPortMedia(t *testing.T) {
	denied := &fakeOpener{listErr: errors.New("permission denied")}
	if err := NewPortMedia(denied).RequestAccess(context.Background()); err == nil {
		t.Error("RequestAccess() expected error when ports cannot be listed")
	}

	ok := &fakeOpener{devices: []Device{{ID: "a", Label: "A"}}}
	m := NewPortMedia(ok)
	if err := m.RequestAccess(context.Background()); err != nil {
		t.Errorf("RequestAccess() error = %v", err)
	}
	devices, err := m.EnumerateCaptureDevices(context.Background())
	if err != nil || len(devices) != 1 {
		t.Errorf("EnumerateCaptureDevices() = %v, %v", devices, err)
	}
}
