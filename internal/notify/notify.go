// Package notify tells the user about found deposits outside the UI.
package notify

import (
	"errors"
	"fmt"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/muurk/pantti/internal/logging"
	"github.com/muurk/pantti/internal/palpa"
)

// AppName is shown as the notification source.
const AppName = "pantti"

const (
	beepFrequency = 880
	beepDuration  = 150
)

// Notifier is told about every lookup that found a deposit.
type Notifier interface {
	DepositFound(barcode string, response palpa.Response) error
}

// Desktop raises a desktop notification and, optionally, beeps.
type Desktop struct {
	Beep bool

	notify func(title, message string, icon any) error
	beep   func(freq float64, duration int) error
}

// NewDesktop creates a notifier backed by beeep.
func NewDesktop(beep bool) *Desktop {
	beeep.AppName = AppName
	return &Desktop{
		Beep:   beep,
		notify: beeep.Notify,
		beep:   beeep.Beep,
	}
}

// DepositFound notifies about a deposit. Notification and beep failures are
// both returned.
func (d *Desktop) DepositFound(barcode string, response palpa.Response) error {
	var errs []error

	if err := d.notify("Pantti get!", Message(barcode, response), ""); err != nil {
		errs = append(errs, fmt.Errorf("desktop notification: %w", err))
	}
	if d.Beep {
		if err := d.beep(beepFrequency, beepDuration); err != nil {
			errs = append(errs, fmt.Errorf("beep: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		logging.Warn("Notification failed", zap.String("barcode", barcode), zap.Error(err))
	}
	return err
}

// Message is the notification body for a found deposit.
func Message(barcode string, response palpa.Response) string {
	name := barcode
	if response.ProductName != nil && *response.ProductName != "" {
		name = *response.ProductName
	}
	if response.Deposit != nil && *response.Deposit != "" {
		return fmt.Sprintf("%s: %s", name, *response.Deposit)
	}
	return name
}

// Nop ignores every notification.
type Nop struct{}

// DepositFound does nothing.
func (Nop) DepositFound(string, palpa.Response) error { return nil }

var (
	_ Notifier = (*Desktop)(nil)
	_ Notifier = Nop{}
)
