package state

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/pantti/internal/logging"
)

// ErrNoDevices is returned by SetDevices for an empty device list.
var ErrNoDevices = errors.New("device list is empty")

// Subscriber receives every new snapshot.
type Subscriber func(ApplicationState)

// Store owns the current ApplicationState.
//
// Mutations are synchronous: the snapshot is replaced and the subscriber
// has returned before the mutation returns. The Store is meant to be used
// from the event loop only; the mutex just keeps State() honest for
// readers on other goroutines.
type Store struct {
	mu        sync.RWMutex
	state     ApplicationState
	subscribe Subscriber
}

// New creates a Store in the Initial mode.
func New(subscriber Subscriber) *Store {
	return &Store{
		state:     ApplicationState{Mode: Initial, Devices: []DeviceInfo{}},
		subscribe: subscriber,
	}
}

// State returns a copy of the current snapshot.
func (s *Store) State() ApplicationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// SetMode overrides only the mode. Keeping Devices, SelectedDevice and
// Result consistent with the new mode is the caller's job.
func (s *Store) SetMode(mode Mode) {
	s.replace("setMode", func(next *ApplicationState) {
		next.Mode = mode
	})
}

// SetDevices stores the device list, selects its first device and moves to
// ReadyToScan. An empty list is rejected without touching the state.
func (s *Store) SetDevices(devices []DeviceInfo) error {
	if len(devices) == 0 {
		logging.Warn("Refusing to set an empty device list")
		return ErrNoDevices
	}

	owned := append([]DeviceInfo(nil), devices...)
	s.replace("setDevices", func(next *ApplicationState) {
		next.Devices = owned
		next.SelectedDevice = owned[0].ID
		next.Mode = ReadyToScan
	}, zap.Int("devices", len(owned)))
	return nil
}

// SetSelectedDevice selects a device and moves to ReadyToScan.
func (s *Store) SetSelectedDevice(id string) {
	s.replace("setSelectedDevice", func(next *ApplicationState) {
		next.SelectedDevice = id
		next.Mode = ReadyToScan
	}, zap.String("device_id", id))
}

// SetResult stores a scan result and moves to ResultReady.
func (s *Store) SetResult(result ScanResult) {
	s.replace("setResult", func(next *ApplicationState) {
		next.Result = &result
		next.Mode = ResultReady
	}, zap.String("barcode", result.Barcode), zap.Int("status", result.Response.Status))
}

func (s *Store) replace(op string, override func(*ApplicationState), fields ...zap.Field) {
	s.mu.Lock()
	next := s.state.clone()
	override(&next)
	s.state = next
	snapshot := next.clone()
	s.mu.Unlock()

	logging.LogStateChange(op, snapshot.Mode.String(), fields...)

	if s.subscribe != nil {
		s.subscribe(snapshot)
	}
}
