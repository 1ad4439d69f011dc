// Package state holds the application's single state snapshot.
//
// The Store replaces its snapshot wholesale on every mutation and calls one
// subscriber, fixed at construction, with the new value. Snapshots are plain
// values; the device slice is copied on the way in and on the way out so no
// caller can alias the held state.
package state

import (
	"github.com/muurk/pantti/internal/palpa"
)

// Mode is the application's current screen.
type Mode int

const (
	Initial Mode = iota
	NoDevices
	ReadyToScan
	Scanning
	ResultReady
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Initial:
		return "Initial"
	case NoDevices:
		return "NoDevices"
	case ReadyToScan:
		return "ReadyToScan"
	case Scanning:
		return "Scanning"
	case ResultReady:
		return "ResultReady"
	default:
		return "Unknown"
	}
}

// DeviceInfo identifies one capture device.
type DeviceInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ScanResult pairs a decoded barcode with its lookup response.
type ScanResult struct {
	Barcode  string         `json:"barcode"`
	Response palpa.Response `json:"response"`
}

// ApplicationState is one snapshot of the application.
type ApplicationState struct {
	Mode           Mode
	Devices        []DeviceInfo
	SelectedDevice string // empty when unset
	Result         *ScanResult
}

// HasSelectedDevice reports whether a device is selected.
func (s ApplicationState) HasSelectedDevice() bool {
	return s.SelectedDevice != ""
}

// clone returns a copy that shares nothing mutable with s.
func (s ApplicationState) clone() ApplicationState {
	out := s
	if s.Devices != nil {
		out.Devices = append([]DeviceInfo(nil), s.Devices...)
	}
	if s.Result != nil {
		r := *s.Result
		out.Result = &r
	}
	return out
}
