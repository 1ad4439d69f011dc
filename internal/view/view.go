// Package view maps state snapshots to element descriptions.
//
// Every builder is a pure function of the snapshot and the callbacks it is
// given. Builders never modify the snapshot and keep no references to it
// once they return; the only things captured by event handlers are the
// callbacks themselves and plain values copied out of the snapshot.
package view

import (
	"github.com/muurk/pantti/internal/element"
	"github.com/muurk/pantti/internal/state"
)

// Element ids the hosts and tests rely on.
const (
	StartButtonID  = "start-button"
	StopButtonID   = "stop-button"
	SourceSelectID = "source-select"
	VideoID        = "video"
)

// Messages shown by the builders.
const (
	DepositFoundText  = "Pantti get!"
	NoDepositText     = "No deposit"
	RetryHintText     = "Check if the barcode was correct and scan again if it was not."
	NoDevicesText     = "Could not initialize video devices :("
	NoDevicesHintText = "Try again with a device that actually has a camera."
	BarcodePrefix     = "Barcode: "
)

// SadCatImagePath is where hosts serve the no-deposit illustration.
const SadCatImagePath = "/static/sad-cat-thumb.png"

// Callbacks are the handles views bind to controls.
type Callbacks struct {
	OnStart        func()
	OnStop         func()
	OnSelectDevice func(id string)
}

// Build returns the description for the snapshot's mode.
func Build(s state.ApplicationState, cb Callbacks) []element.Node {
	switch s.Mode {
	case state.Initial:
		return []element.Node{}
	case state.NoDevices:
		return NoDevices()
	case state.ReadyToScan:
		return ReadyToScan(s, cb)
	case state.Scanning:
		return Scanning(cb)
	case state.ResultReady:
		return ResultReady(s, cb)
	default:
		return []element.Node{}
	}
}

// NoDevices is the static message shown when no capture device works.
func NoDevices() []element.Node {
	return []element.Node{
		element.New("p", element.Text(NoDevicesText)),
		element.New("br"),
		element.New("p", element.Text(NoDevicesHintText)),
	}
}

// ReadyToScan shows the scan button and the device picker.
func ReadyToScan(s state.ApplicationState, cb Callbacks) []element.Node {
	return []element.Node{
		startButton(cb.OnStart),
		deviceSelect(s, cb.OnSelectDevice),
	}
}

// Scanning shows the video preview placeholder and the stop button.
func Scanning(cb Callbacks) []element.Node {
	return []element.Node{
		element.New("video").WithAttrs(element.Attrs{"id": element.String(VideoID)}),
		button(StopButtonID, "stop", cb.OnStop),
	}
}

// ResultReady shows the scanned barcode, the raw response and the verdict.
// It renders nothing when the snapshot carries no result.
func ResultReady(s state.ApplicationState, cb Callbacks) []element.Node {
	if s.Result == nil {
		return []element.Node{}
	}

	barcode := s.Result.Barcode
	response := s.Result.Response

	nodes := []element.Node{
		element.New("p", element.Text(BarcodePrefix+barcode)),
		element.New("pre", element.Text(response.Pretty())),
	}

	if response.DepositFound() {
		nodes = append(nodes, depositFound()...)
	} else {
		nodes = append(nodes, noDeposit()...)
	}

	return append(nodes, startButton(cb.OnStart))
}

func depositFound() []element.Node {
	return []element.Node{
		element.New("p", element.Text(DepositFoundText)),
	}
}

func noDeposit() []element.Node {
	return []element.Node{
		element.New("p",
			element.Text(NoDepositText),
			element.New("img").WithAttrs(element.Attrs{
				"class":  element.String("inline"),
				"height": element.String("20rem"),
				"src":    element.String(SadCatImagePath),
			}),
		),
		element.New("br"),
		element.New("p", element.Text(RetryHintText)),
		element.New("br"),
	}
}

func startButton(onClick func()) element.Element {
	return button(StartButtonID, "scan", onClick)
}

func button(id, label string, onClick func()) element.Element {
	return element.New("button", element.New("b", element.Text(label))).
		WithAttrs(element.Attrs{
			"id":    element.String(id),
			"class": element.String("button"),
		}).
		WithHandlers(element.Handlers{
			"click": func(element.Event) {
				if onClick != nil {
					onClick()
				}
			},
		})
}

func deviceSelect(s state.ApplicationState, onChange func(string)) element.Element {
	options := make([]element.Node, 0, len(s.Devices))
	for _, d := range s.Devices {
		options = append(options, element.New("option", element.Text(d.Label)).WithAttrs(element.Attrs{
			"value":    element.String(d.ID),
			"selected": element.Bool(d.ID == s.SelectedDevice),
		}))
	}

	sel := element.New("select", options...).
		WithAttrs(element.Attrs{"id": element.String(SourceSelectID)}).
		WithHandlers(element.Handlers{
			"change": func(ev element.Event) {
				if onChange != nil {
					onChange(ev.Value)
				}
			},
		})

	return element.New("div",
		element.New("label", element.Text("Select device: ")).
			WithAttrs(element.Attrs{"for": element.String(SourceSelectID)}),
		sel,
	)
}
