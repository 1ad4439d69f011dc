package discovery

import (
	"fmt"
	"net"
	"time"
)

// Host is a pantti web host found on the network.
type Host struct {
	// Instance is the advertised service instance name (e.g. "kitchen").
	Instance string

	// Hostname is the mDNS hostname (e.g. "raspberrypi.local.").
	Hostname string

	// IP is the preferred address, IPv4 when available.
	IP string

	// Port is the HTTP port of the scanner page.
	Port int

	// Metadata holds the TXT record, e.g. "version=1.2.0", "path=/",
	// "scheme=https".
	Metadata map[string]string

	// DiscoveredAt is when the host answered.
	DiscoveredAt time.Time
}

// String returns a human-readable description of the host.
func (h *Host) String() string {
	return fmt.Sprintf("pantti %q (%s) at %s:%d", h.Instance, h.Hostname, h.IP, h.Port)
}

// BaseURL returns the URL of the scanner page. Hosts that do not advertise
// a scheme are assumed to serve plain HTTP.
func (h *Host) BaseURL() string {
	path := h.GetMetadata("path")
	if path == "" {
		path = "/"
	}
	return h.Scheme() + "://" + net.JoinHostPort(h.IP, fmt.Sprint(h.Port)) + path
}

// Scheme returns the advertised URL scheme, "http" or "https".
func (h *Host) Scheme() string {
	if h.GetMetadata("scheme") == "https" {
		return "https"
	}
	return "http"
}

// Version returns the advertised application version, if any.
func (h *Host) Version() string {
	return h.GetMetadata("version")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (h *Host) GetMetadata(key string) string {
	if h.Metadata == nil {
		return ""
	}
	return h.Metadata[key]
}
