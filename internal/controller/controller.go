// Package controller drives the scan flow: device discovery, continuous
// decoding, lookups and the store mutations that follow them.
//
// StartScan, StopScan and SelectDevice must run on the event loop; they
// are what the views bind to. Everything that waits runs on its own
// goroutine and posts its continuation back to the loop.
package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/muurk/pantti/internal/logging"
	"github.com/muurk/pantti/internal/notify"
	"github.com/muurk/pantti/internal/palpa"
	"github.com/muurk/pantti/internal/scanner"
	"github.com/muurk/pantti/internal/state"
	"github.com/muurk/pantti/internal/view"
)

// LookupService resolves a barcode to its deposit status.
type LookupService interface {
	Lookup(ctx context.Context, barcode string) (palpa.Response, error)
}

// Poster queues work on the event loop.
type Poster interface {
	Post(fn func()) bool
}

// Options are the controller's collaborators.
type Options struct {
	Store   *state.Store
	Loop    Poster
	Session scanner.Session
	Media   scanner.MediaDevices
	Lookup  LookupService

	// Notifier is told about found deposits. Nil disables notifications.
	Notifier notify.Notifier

	// Context bounds decode runs and lookups. Defaults to Background.
	Context context.Context
}

// Controller owns the scanner session.
type Controller struct {
	store    *state.Store
	loop     Poster
	session  scanner.Session
	media    scanner.MediaDevices
	lookup   LookupService
	notifier notify.Notifier
	ctx      context.Context

	// scan counts started and released scans. Decode callbacks and device
	// opens belonging to an older value are stale.
	scan atomic.Uint64

	// startMu serializes device opens so a stale open is released before
	// the next one begins.
	startMu sync.Mutex
}

// New creates a controller.
func New(opts Options) *Controller {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Controller{
		store:    opts.Store,
		loop:     opts.Loop,
		session:  opts.Session,
		media:    opts.Media,
		lookup:   opts.Lookup,
		notifier: opts.Notifier,
		ctx:      ctx,
	}
}

// Callbacks returns the handles views bind to.
func (c *Controller) Callbacks() view.Callbacks {
	return view.Callbacks{
		OnStart:        c.StartScan,
		OnStop:         c.StopScan,
		OnSelectDevice: c.SelectDevice,
	}
}

// Initialize checks capture device access and enumerates devices in the
// background. It may be called from any goroutine, and again later to
// re-run discovery.
func (c *Controller) Initialize(ctx context.Context) {
	go c.initialize(ctx)
}

func (c *Controller) initialize(ctx context.Context) {
	if err := c.media.RequestAccess(ctx); err != nil {
		logging.Warn("Capture device access failed", zap.Error(err))
		c.post(c.noDevices)
		return
	}

	devices, err := c.session.ListCaptureDevices(ctx)
	if err != nil {
		logging.Warn("Listing capture devices failed", zap.Error(err))
		c.post(c.noDevices)
		return
	}

	infos := make([]state.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, state.DeviceInfo{ID: d.ID, Label: d.Label})
	}

	c.post(func() {
		if c.store.State().Mode == state.Scanning {
			c.release()
		}
		if err := c.store.SetDevices(infos); errors.Is(err, state.ErrNoDevices) {
			c.store.SetMode(state.NoDevices)
		}
	})
}

// StartScan starts continuous decoding from the selected device. It does
// nothing while no device is selected.
func (c *Controller) StartScan() {
	current := c.store.State()
	if !current.HasSelectedDevice() {
		logging.Debug("Start scan ignored, no device selected")
		return
	}

	deviceID := current.SelectedDevice
	scan := c.scan.Add(1)
	c.store.SetMode(state.Scanning)

	go c.start(scan, deviceID)

	logging.Info("Started continuous decode", zap.String("device_id", deviceID))
}

// start opens the device for scan. A scan released while the device was
// opening gets its session reset once the open returns.
func (c *Controller) start(scan uint64, deviceID string) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.scan.Load() != scan {
		return
	}

	cb := func(result scanner.Result, err error) { c.onDecode(scan, result, err) }
	if err := c.session.DecodeContinuously(c.ctx, deviceID, view.VideoID, cb); err != nil {
		logging.Error("Starting capture failed",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		c.post(func() {
			if c.scan.Load() == scan {
				c.StopScan()
			}
		})
		return
	}

	if c.scan.Load() != scan {
		logging.Debug("Scan released while opening device", zap.String("device_id", deviceID))
		c.session.Reset()
	}
}

// StopScan releases the session and returns to ReadyToScan.
func (c *Controller) StopScan() {
	c.release()
	c.store.SetMode(state.ReadyToScan)
}

// release ends the current scan and resets the session.
func (c *Controller) release() {
	c.scan.Add(1)
	c.session.Reset()
}

func (c *Controller) noDevices() {
	if c.store.State().Mode == state.Scanning {
		c.release()
	}
	c.store.SetMode(state.NoDevices)
}

// SelectDevice selects the device future scans read from.
func (c *Controller) SelectDevice(id string) {
	c.store.SetSelectedDevice(id)
}

// Close releases the session.
func (c *Controller) Close() {
	c.release()
}

// onDecode runs on the session's goroutine. Noise frames are dropped here
// so they never reach the loop.
func (c *Controller) onDecode(scan uint64, result scanner.Result, err error) {
	if errors.Is(err, scanner.ErrNotFound) {
		return
	}
	c.post(func() { c.handleDecode(scan, result, err) })
}

func (c *Controller) handleDecode(scan uint64, result scanner.Result, err error) {
	if c.scan.Load() != scan {
		logging.Debug("Dropping frame from a released scan")
		return
	}

	if err != nil {
		logging.Error("Decoding failed", zap.Error(err))
		c.StopScan()
		return
	}

	logging.Info("Barcode decoded",
		zap.String("barcode", result.Text),
		zap.String("format", result.Format.String()),
	)
	c.query(result.Text)
}

// query stops the session and looks the barcode up. The lookup is not
// cancelled by a later StopScan or StartScan; its result is stored when it
// arrives.
func (c *Controller) query(barcode string) {
	c.session.Reset()

	go func() {
		response, err := c.lookup.Lookup(c.ctx, barcode)
		c.post(func() {
			if err != nil {
				logging.Error("Deposit lookup failed",
					zap.String("barcode", barcode),
					zap.Error(err),
				)
				c.StopScan()
				return
			}

			c.store.SetResult(state.ScanResult{Barcode: barcode, Response: response})

			if response.DepositFound() && c.notifier != nil {
				go func() {
					if err := c.notifier.DepositFound(barcode, response); err != nil {
						logging.Warn("Notification failed", zap.Error(err))
					}
				}()
			}
		})
	}()
}

func (c *Controller) post(fn func()) {
	if !c.loop.Post(fn) {
		logging.Debug("Event loop stopped, dropping task")
	}
}
