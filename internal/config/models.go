package config

import (
	"fmt"
	"time"

	"github.com/muurk/pantti/internal/discovery"
	"github.com/muurk/pantti/internal/dom"
	"github.com/muurk/pantti/internal/palpa"
	"github.com/muurk/pantti/internal/scanner"
)

// CurrentVersion is the only file version this package reads.
const CurrentVersion = 1

// Default values for every section. Values owned by another package are
// taken from it.
const (
	DefaultLookupBaseURL   = palpa.DefaultBaseURL
	DefaultLookupTimeout   = int(palpa.DefaultTimeout / time.Second)
	DefaultBaudRate        = scanner.DefaultBaudRate
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = discovery.DefaultPort
	DefaultServiceName     = "pantti"
	DefaultMountID         = dom.DefaultMountID
	DefaultDiscoverTimeout = int(discovery.DefaultScanTimeout / time.Second)
)

// Config represents the entire user configuration file.
type Config struct {
	Version int            `yaml:"version"`
	Lookup  *LookupConfig  `yaml:"lookup,omitempty"`
	Scanner *ScannerConfig `yaml:"scanner,omitempty"`
	Server  *ServerConfig  `yaml:"server,omitempty"`
	UI      *UIConfig      `yaml:"ui,omitempty"`
}

// LookupConfig configures the deposit lookup client.
type LookupConfig struct {
	BaseURL        string `yaml:"base_url"`        // Prefix the barcode is appended to
	TimeoutSeconds int    `yaml:"timeout_seconds"` // Per request timeout
}

// ScannerConfig configures capture devices.
type ScannerConfig struct {
	BaudRate   int    `yaml:"baud_rate"`             // Serial line speed
	Stdin      bool   `yaml:"stdin"`                 // Offer standard input as a device
	PortFilter string `yaml:"port_filter,omitempty"` // Keep only matching serial ports
	Beep       bool   `yaml:"beep"`                  // Beep when a deposit is found
}

// ServerConfig configures the web host.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	CertPath        string `yaml:"cert_path,omitempty"`
	KeyPath         string `yaml:"key_path,omitempty"`
	Advertise       bool   `yaml:"advertise"`        // Announce over mDNS
	ServiceName     string `yaml:"service_name"`     // mDNS instance name
	DiscoverTimeout int    `yaml:"discover_timeout"` // mDNS browse timeout in seconds
}

// UIConfig holds presentation preferences.
type UIConfig struct {
	MountID string `yaml:"mount_id"` // Id of the element views render into
	Notify  bool   `yaml:"notify"`   // Desktop notification on deposit found
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	c := &Config{Version: CurrentVersion}
	c.applyDefaults()
	return c
}

// applyDefaults fills missing sections and zero values.
func (c *Config) applyDefaults() {
	if c.Lookup == nil {
		c.Lookup = &LookupConfig{}
	}
	if c.Lookup.BaseURL == "" {
		c.Lookup.BaseURL = DefaultLookupBaseURL
	}
	if c.Lookup.TimeoutSeconds == 0 {
		c.Lookup.TimeoutSeconds = DefaultLookupTimeout
	}

	if c.Scanner == nil {
		c.Scanner = &ScannerConfig{Stdin: true}
	}
	if c.Scanner.BaudRate == 0 {
		c.Scanner.BaudRate = DefaultBaudRate
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ServiceName == "" {
		c.Server.ServiceName = DefaultServiceName
	}
	if c.Server.DiscoverTimeout == 0 {
		c.Server.DiscoverTimeout = DefaultDiscoverTimeout
	}

	if c.UI == nil {
		c.UI = &UIConfig{Notify: true}
	}
	if c.UI.MountID == "" {
		c.UI.MountID = DefaultMountID
	}
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Lookup.TimeoutSeconds < 0 {
		return fmt.Errorf("lookup.timeout_seconds must not be negative: %d", c.Lookup.TimeoutSeconds)
	}
	if c.Scanner.BaudRate < 0 {
		return fmt.Errorf("scanner.baud_rate must not be negative: %d", c.Scanner.BaudRate)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if (c.Server.CertPath == "") != (c.Server.KeyPath == "") {
		return fmt.Errorf("server.cert_path and server.key_path must be set together")
	}
	return nil
}

// LookupTimeout returns the lookup timeout as a duration.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lookup.TimeoutSeconds) * time.Second
}

// DiscoverTimeout returns the mDNS browse timeout as a duration.
func (c *Config) DiscoverTimeout() time.Duration {
	return time.Duration(c.Server.DiscoverTimeout) * time.Second
}
