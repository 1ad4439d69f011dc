// Package app wires the event loop, store, renderer and controller into
// one running application that hosts can present.
package app

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/muurk/pantti/internal/controller"
	"github.com/muurk/pantti/internal/dom"
	"github.com/muurk/pantti/internal/element"
	"github.com/muurk/pantti/internal/logging"
	"github.com/muurk/pantti/internal/loop"
	"github.com/muurk/pantti/internal/notify"
	"github.com/muurk/pantti/internal/render"
	"github.com/muurk/pantti/internal/scanner"
	"github.com/muurk/pantti/internal/state"
	"github.com/muurk/pantti/internal/view"
)

// Options configure an App.
type Options struct {
	// MountID is the id of the element views are drawn into.
	MountID string

	Session  scanner.Session
	Media    scanner.MediaDevices
	Lookup   controller.LookupService
	Notifier notify.Notifier

	// QueueSize of the event loop. Zero uses the loop default.
	QueueSize int
}

// RenderHook receives the mount point after every render. It runs on the
// loop goroutine and must not keep the node.
type RenderHook func(mount *html.Node)

// App is one running application instance.
type App struct {
	Loop       *loop.Loop
	Document   *dom.Document
	Renderer   *render.Renderer
	Store      *state.Store
	Controller *controller.Controller

	opts   Options
	hooks  []RenderHook
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds an App. Nothing runs until Run is called.
func New(opts Options) *App {
	if opts.MountID == "" {
		opts.MountID = dom.DefaultMountID
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		Loop:     loop.New(opts.QueueSize),
		Document: dom.NewDocument(opts.MountID),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}

	a.Renderer = render.New(a.Document, opts.MountID)
	a.Renderer.OnRender = a.publish
	a.Store = state.New(a.render)
	a.Controller = controller.New(controller.Options{
		Store:    a.Store,
		Loop:     a.Loop,
		Session:  opts.Session,
		Media:    opts.Media,
		Lookup:   opts.Lookup,
		Notifier: opts.Notifier,
		Context:  ctx,
	})
	return a
}

// OnRender registers a hook. Hooks must be registered before Run.
func (a *App) OnRender(hook RenderHook) {
	a.hooks = append(a.hooks, hook)
}

// Run draws the initial view, starts device discovery and processes
// events until ctx is done.
func (a *App) Run(ctx context.Context) error {
	defer a.cancel()

	a.Loop.Post(func() { a.render(a.Store.State()) })
	a.Controller.Initialize(ctx)

	err := a.Loop.Run(ctx)
	a.Controller.Close()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop ends Run.
func (a *App) Stop() {
	a.Loop.Stop()
}

// Dispatch queues ev for the element with targetID. It reports whether the
// event was queued, not whether a listener ran.
func (a *App) Dispatch(targetID string, ev element.Event) bool {
	return a.Loop.Post(func() {
		if !a.Document.Dispatch(targetID, ev) {
			logging.Debug("No listener for event",
				zap.String("target", targetID),
				zap.String("event", ev.Type),
			)
		}
	})
}

// Rescan re-runs device discovery.
func (a *App) Rescan() {
	a.Controller.Initialize(a.ctx)
}

// Snapshot returns the current mount point markup.
func (a *App) Snapshot(ctx context.Context) (string, error) {
	var (
		markup string
		err    error
	)
	callErr := a.Loop.Call(ctx, func() {
		mount := a.Document.ElementByID(a.opts.MountID)
		if mount == nil {
			return
		}
		markup, err = dom.InnerHTML(mount)
	})
	if callErr != nil {
		return "", callErr
	}
	return markup, err
}

// render is the store subscriber.
func (a *App) render(s state.ApplicationState) {
	a.Renderer.Render(view.Build(s, a.Controller.Callbacks())...)
}

func (a *App) publish(mount *html.Node) {
	for _, hook := range a.hooks {
		hook(mount)
	}
}
