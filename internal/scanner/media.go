package scanner

import (
	"context"
	"fmt"
)

// PortMedia is the media layer over a PortOpener.
type PortMedia struct {
	opener PortOpener
}

// NewPortMedia creates a media layer over opener.
func NewPortMedia(opener PortOpener) *PortMedia {
	return &PortMedia{opener: opener}
}

// RequestAccess checks that the device list can be read. Nothing is kept
// open.
func (m *PortMedia) RequestAccess(ctx context.Context) error {
	if _, err := m.opener.Ports(ctx); err != nil {
		return fmt.Errorf("capture device access: %w", err)
	}
	return nil
}

// EnumerateCaptureDevices lists the opener's devices.
func (m *PortMedia) EnumerateCaptureDevices(ctx context.Context) ([]Device, error) {
	return m.opener.Ports(ctx)
}

var (
	_ MediaDevices = (*PortMedia)(nil)
	_ Session      = (*LineSession)(nil)
)
