package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/muurk/pantti/internal/loop"
	"github.com/muurk/pantti/internal/palpa"
	"github.com/muurk/pantti/internal/scanner"
	"github.com/muurk/pantti/internal/state"
	"github.com/muurk/pantti/internal/view"
)

type fakeMedia struct {
	accessErr error
}

func (f *fakeMedia) RequestAccess(ctx context.Context) error { return f.accessErr }

func (f *fakeMedia) EnumerateCaptureDevices(ctx context.Context) ([]scanner.Device, error) {
	return nil, nil
}

type fakeSession struct {
	mu       sync.Mutex
	devices  []scanner.Device
	listErr  error
	startErr error
	listed   int
	started  []string
	targets  []string
	resets   int
	cb       scanner.Callback
	active   bool

	// openGate, when set, blocks DecodeContinuously until closed.
	openGate chan struct{}
}

func (f *fakeSession) ListCaptureDevices(ctx context.Context) ([]scanner.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	return f.devices, f.listErr
}

func (f *fakeSession) DecodeContinuously(ctx context.Context, deviceID, target string, cb scanner.Callback) error {
	f.mu.Lock()
	f.started = append(f.started, deviceID)
	f.targets = append(f.targets, target)
	gate := f.openGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.cb = cb
	f.active = true
	return nil
}

func (f *fakeSession) Stop() { f.Reset() }

func (f *fakeSession) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.active = false
}

func (f *fakeSession) isActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeSession) emit(result scanner.Result, err error) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	cb(result, err)
}

func (f *fakeSession) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

func (f *fakeSession) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

type fakeLookup struct {
	mu        sync.Mutex
	responses map[string]palpa.Response
	err       error
	gate      chan struct{}
	calls     []string
}

func (f *fakeLookup) Lookup(ctx context.Context, barcode string) (palpa.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, barcode)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return palpa.Response{}, f.err
	}
	return f.responses[barcode], nil
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNotifier struct {
	found chan string
}

func (f *fakeNotifier) DepositFound(barcode string, response palpa.Response) error {
	f.found <- barcode
	return nil
}

type harness struct {
	t        *testing.T
	loop     *loop.Loop
	store    *state.Store
	modes    []state.Mode
	session  *fakeSession
	media    *fakeMedia
	lookup   *fakeLookup
	notifier *fakeNotifier
	ctrl     *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		t:        t,
		loop:     loop.New(0),
		session:  &fakeSession{devices: []scanner.Device{{ID: "cam1", Label: "Front"}, {ID: "cam2", Label: "Back"}}},
		media:    &fakeMedia{},
		lookup:   &fakeLookup{responses: map[string]palpa.Response{}},
		notifier: &fakeNotifier{found: make(chan string, 4)},
	}
	h.store = state.New(func(s state.ApplicationState) {
		h.modes = append(h.modes, s.Mode)
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = h.loop.Run(ctx) }()

	h.ctrl = New(Options{
		Store:    h.store,
		Loop:     h.loop,
		Session:  h.session,
		Media:    h.media,
		Lookup:   h.lookup,
		Notifier: h.notifier,
		Context:  ctx,
	})
	return h
}

// do runs fn on the loop and waits for it.
func (h *harness) do(fn func()) {
	h.t.Helper()
	if err := h.loop.Call(context.Background(), fn); err != nil {
		h.t.Fatalf("loop call failed: %v", err)
	}
}

func (h *harness) state() state.ApplicationState {
	var s state.ApplicationState
	h.do(func() { s = h.store.State() })
	return s
}

func (h *harness) resultCount() int {
	n := 0
	h.do(func() {
		for _, m := range h.modes {
			if m == state.ResultReady {
				n++
			}
		}
	})
	return n
}

func (h *harness) waitFor(what string, cond func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	h.t.Fatalf("timed out waiting for %s", what)
}

func (h *harness) waitMode(want state.Mode) {
	h.t.Helper()
	h.waitFor("mode "+want.String(), func() bool { return h.state().Mode == want })
}

func (h *harness) ready() {
	h.t.Helper()
	h.ctrl.Initialize(context.Background())
	h.waitMode(state.ReadyToScan)
}

func (h *harness) scanning() {
	h.t.Helper()
	h.ready()
	h.do(h.ctrl.StartScan)
	h.waitFor("decode start", func() bool { return h.session.startCount() == 1 })
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		accessErr  error
		devices    []scanner.Device
		listErr    error
		wantMode   state.Mode
		wantListed int
	}{
		{
			name:       "devices found",
			devices:    []scanner.Device{{ID: "cam1", Label: "Front"}},
			wantMode:   state.ReadyToScan,
			wantListed: 1,
		},
		{
			name:       "access denied",
			accessErr:  errors.New("permission denied"),
			devices:    []scanner.Device{{ID: "cam1", Label: "Front"}},
			wantMode:   state.NoDevices,
			wantListed: 0,
		},
		{
			name:       "no devices",
			devices:    []scanner.Device{},
			wantMode:   state.NoDevices,
			wantListed: 1,
		},
		{
			name:       "listing fails",
			listErr:    errors.New("enumeration not supported"),
			wantMode:   state.NoDevices,
			wantListed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.media.accessErr = tt.accessErr
			h.session.devices = tt.devices
			h.session.listErr = tt.listErr

			h.ctrl.Initialize(context.Background())
			h.waitMode(tt.wantMode)

			h.session.mu.Lock()
			listed := h.session.listed
			h.session.mu.Unlock()
			if listed != tt.wantListed {
				t.Errorf("ListCaptureDevices called %d times, want %d", listed, tt.wantListed)
			}
		})
	}
}

func TestInitialize_SelectsFirstDevice(t *testing.T) {
	h := newHarness(t)
	h.ready()

	s := h.state()
	if s.SelectedDevice != "cam1" {
		t.Errorf("SelectedDevice = %q, want cam1", s.SelectedDevice)
	}
	if len(s.Devices) != 2 || s.Devices[1] != (state.DeviceInfo{ID: "cam2", Label: "Back"}) {
		t.Errorf("Devices = %+v", s.Devices)
	}
}

func TestStartScan_RequiresSelectedDevice(t *testing.T) {
	h := newHarness(t)

	h.do(h.ctrl.StartScan)

	if got := h.state().Mode; got != state.Initial {
		t.Errorf("Mode = %v, want Initial", got)
	}
	time.Sleep(10 * time.Millisecond)
	if n := h.session.startCount(); n != 0 {
		t.Errorf("DecodeContinuously called %d times, want 0", n)
	}
}

func TestStartScan(t *testing.T) {
	h := newHarness(t)
	h.ready()
	h.do(func() { h.ctrl.SelectDevice("cam2") })

	h.do(h.ctrl.StartScan)
	if got := h.state().Mode; got != state.Scanning {
		t.Fatalf("Mode = %v, want Scanning", got)
	}

	h.waitFor("decode start", func() bool { return h.session.startCount() == 1 })
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	if h.session.started[0] != "cam2" {
		t.Errorf("decode started on %q, want cam2", h.session.started[0])
	}
	if h.session.targets[0] != view.VideoID {
		t.Errorf("decode target = %q, want %q", h.session.targets[0], view.VideoID)
	}
}

func TestStartScan_StartFailureStopsScan(t *testing.T) {
	h := newHarness(t)
	h.session.startErr = errors.New("device busy")
	h.ready()

	h.do(h.ctrl.StartScan)
	h.waitFor("stop after failed start", func() bool { return h.session.resetCount() >= 1 })
	h.waitMode(state.ReadyToScan)
}

func TestDecode_NoiseIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.scanning()

	for i := 0; i < 5; i++ {
		h.session.emit(scanner.Result{}, scanner.ErrNotFound)
	}
	h.do(func() {})

	if got := h.state().Mode; got != state.Scanning {
		t.Errorf("Mode = %v, want Scanning", got)
	}
	if n := h.session.resetCount(); n != 0 {
		t.Errorf("Reset called %d times, want 0", n)
	}
}

func TestDecode_FatalErrorStopsScan(t *testing.T) {
	h := newHarness(t)
	h.scanning()

	h.session.emit(scanner.Result{}, errors.New("device unplugged"))
	h.waitMode(state.ReadyToScan)

	if n := h.session.resetCount(); n != 1 {
		t.Errorf("Reset called %d times, want 1", n)
	}
}

func TestDecode_LookupStoresResult(t *testing.T) {
	tests := []struct {
		name       string
		response   palpa.Response
		wantNotify bool
	}{
		{
			name: "deposit",
			response: palpa.Response{
				Status:      2,
				ProductName: palpa.StringPtr("Lager 44cl"),
				Deposit:     palpa.StringPtr("0,15 €"),
			},
			wantNotify: true,
		},
		{
			name:     "no deposit",
			response: palpa.Response{Status: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.lookup.responses["4006381333931"] = tt.response
			h.scanning()

			h.session.emit(scanner.Result{Text: "4006381333931", Format: scanner.FormatEAN13}, nil)
			h.waitMode(state.ResultReady)

			s := h.state()
			if s.Result == nil {
				t.Fatal("Result is nil")
			}
			if s.Result.Barcode != "4006381333931" {
				t.Errorf("Barcode = %q", s.Result.Barcode)
			}
			if s.Result.Response.Status != tt.response.Status {
				t.Errorf("Status = %d, want %d", s.Result.Response.Status, tt.response.Status)
			}
			if n := h.session.resetCount(); n != 1 {
				t.Errorf("Reset called %d times, want 1", n)
			}

			select {
			case barcode := <-h.notifier.found:
				if !tt.wantNotify {
					t.Errorf("unexpected notification for %s", barcode)
				}
			case <-time.After(50 * time.Millisecond):
				if tt.wantNotify {
					t.Error("expected a deposit notification")
				}
			}
		})
	}
}

func TestDecode_LookupFailureStopsScan(t *testing.T) {
	h := newHarness(t)
	h.lookup.err = palpa.NewHTTPError(503, "service unavailable")
	h.scanning()

	h.session.emit(scanner.Result{Text: "96385074", Format: scanner.FormatEAN8}, nil)
	h.waitFor("lookup", func() bool { return h.lookup.callCount() == 1 })
	h.waitFor("stop after failed lookup", func() bool { return h.session.resetCount() == 2 })

	s := h.state()
	if s.Mode != state.ReadyToScan {
		t.Errorf("Mode = %v, want ReadyToScan", s.Mode)
	}
	if s.Result != nil {
		t.Errorf("Result = %+v, want nil", s.Result)
	}
}

func TestStopScan(t *testing.T) {
	h := newHarness(t)
	h.scanning()

	h.do(h.ctrl.StopScan)

	if got := h.state().Mode; got != state.ReadyToScan {
		t.Errorf("Mode = %v, want ReadyToScan", got)
	}
	if n := h.session.resetCount(); n != 1 {
		t.Errorf("Reset called %d times, want 1", n)
	}
}

func TestStopScan_WhileDeviceOpening(t *testing.T) {
	h := newHarness(t)
	gate := make(chan struct{})
	h.session.openGate = gate
	h.lookup.responses["4006381333931"] = palpa.Response{Status: 2}
	h.ready()

	h.do(h.ctrl.StartScan)
	h.waitFor("open begun", func() bool { return h.session.startCount() == 1 })

	h.do(h.ctrl.StopScan)
	close(gate)

	h.waitFor("session released after open", func() bool {
		return h.session.resetCount() == 2 && !h.session.isActive()
	})

	// A frame still delivered by the released run must not produce a result.
	h.session.emit(scanner.Result{Text: "4006381333931", Format: scanner.FormatEAN13}, nil)
	h.do(func() {})

	if got := h.state().Mode; got != state.ReadyToScan {
		t.Errorf("Mode = %v, want ReadyToScan", got)
	}
	if n := h.lookup.callCount(); n != 0 {
		t.Errorf("Lookup called %d times, want 0", n)
	}
}

func TestStopScan_BeforeOpenSkipsDevice(t *testing.T) {
	h := newHarness(t)
	h.ready()

	// Hold the start lock so the open cannot begin before the stop.
	h.ctrl.startMu.Lock()
	h.do(h.ctrl.StartScan)
	h.do(h.ctrl.StopScan)
	h.ctrl.startMu.Unlock()

	time.Sleep(10 * time.Millisecond)
	if n := h.session.startCount(); n != 0 {
		t.Errorf("DecodeContinuously called %d times, want 0", n)
	}
}

func TestInitialize_WhileScanningReleasesSession(t *testing.T) {
	h := newHarness(t)
	h.lookup.responses["4006381333931"] = palpa.Response{Status: 2}
	h.scanning()

	h.ctrl.Initialize(context.Background())
	h.waitMode(state.ReadyToScan)

	if n := h.session.resetCount(); n != 1 {
		t.Errorf("Reset called %d times, want 1", n)
	}
	if h.session.isActive() {
		t.Error("session still active after rediscovery")
	}

	h.session.emit(scanner.Result{Text: "4006381333931", Format: scanner.FormatEAN13}, nil)
	h.do(func() {})

	if got := h.state().Mode; got != state.ReadyToScan {
		t.Errorf("Mode = %v, want ReadyToScan", got)
	}
	if n := h.lookup.callCount(); n != 0 {
		t.Errorf("Lookup called %d times, want 0", n)
	}
}

func TestInitialize_NoDevicesWhileScanningReleasesSession(t *testing.T) {
	h := newHarness(t)
	h.scanning()

	h.session.mu.Lock()
	h.session.devices = nil
	h.session.mu.Unlock()

	h.ctrl.Initialize(context.Background())
	h.waitMode(state.NoDevices)

	if n := h.session.resetCount(); n != 1 {
		t.Errorf("Reset called %d times, want 1", n)
	}
}

func TestSelectDevice(t *testing.T) {
	h := newHarness(t)
	h.ready()

	h.do(func() { h.ctrl.SelectDevice("cam2") })

	s := h.state()
	if s.SelectedDevice != "cam2" || s.Mode != state.ReadyToScan {
		t.Errorf("state = %+v", s)
	}
}

func TestCallbacks(t *testing.T) {
	h := newHarness(t)
	h.ready()
	cb := h.ctrl.Callbacks()

	h.do(func() { cb.OnSelectDevice("cam2") })
	if got := h.state().SelectedDevice; got != "cam2" {
		t.Errorf("SelectedDevice = %q after OnSelectDevice", got)
	}

	h.do(cb.OnStart)
	if got := h.state().Mode; got != state.Scanning {
		t.Errorf("Mode = %v after OnStart", got)
	}

	h.do(cb.OnStop)
	if got := h.state().Mode; got != state.ReadyToScan {
		t.Errorf("Mode = %v after OnStop", got)
	}
}

// A lookup still in flight when the user stops scanning is not cancelled:
// its response arrives later and replaces the newer state.
func TestHazard_StaleLookupOverwritesLaterState(t *testing.T) {
	h := newHarness(t)
	gate := make(chan struct{})
	h.lookup.gate = gate
	h.lookup.responses["4006381333931"] = palpa.Response{Status: 1}
	h.scanning()

	h.session.emit(scanner.Result{Text: "4006381333931"}, nil)
	h.waitFor("lookup in flight", func() bool { return h.lookup.callCount() == 1 })

	h.do(h.ctrl.StopScan)
	if got := h.state().Mode; got != state.ReadyToScan {
		t.Fatalf("Mode = %v after stop, want ReadyToScan", got)
	}

	close(gate)
	h.waitMode(state.ResultReady)

	if s := h.state(); s.Result == nil || s.Result.Barcode != "4006381333931" {
		t.Errorf("stale result not applied: %+v", s.Result)
	}
}

// Two decodes delivered before the session is reset both trigger a lookup
// and both results are stored.
func TestHazard_SecondDecodeBeforeResetAlsoLooksUp(t *testing.T) {
	h := newHarness(t)
	h.lookup.responses["4006381333931"] = palpa.Response{Status: 1}
	h.lookup.responses["96385074"] = palpa.Response{Status: 2}
	h.scanning()

	h.session.emit(scanner.Result{Text: "4006381333931"}, nil)
	h.session.emit(scanner.Result{Text: "96385074"}, nil)

	h.waitFor("two lookups", func() bool { return h.lookup.callCount() == 2 })
	h.waitFor("two results", func() bool { return h.resultCount() == 2 })

	if n := h.session.resetCount(); n != 2 {
		t.Errorf("Reset called %d times, want 2", n)
	}
}
