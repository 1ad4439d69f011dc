package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/pantti/internal/logging"
)

const (
	// ServiceType is the mDNS service type pantti web hosts register
	ServiceType = "_pantti._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default time spent browsing
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used for entries that advertise no port
	DefaultPort = 8080
)

// Browser finds pantti web hosts.
type Browser struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewBrowser creates a browser with default settings
func NewBrowser() *Browser {
	return &Browser{
		Timeout: DefaultScanTimeout,
	}
}

// Browse collects every host that answers before the timeout.
func (b *Browser) Browse(ctx context.Context) ([]*Host, error) {
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	hosts := make([]*Host, 0)
	collected := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// The resolver closes entries once browsing ends.
	go func() {
		defer close(collected)
		seen := make(map[string]bool)
		for entry := range entries {
			host := parseServiceEntry(entry)
			if host == nil || seen[host.Instance] {
				continue
			}
			seen[host.Instance] = true
			hosts = append(hosts, host)
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-collected

	logging.Debug("mDNS browse finished", zap.Int("hosts", len(hosts)))
	return hosts, nil
}

// WaitForHost browses until the named instance answers.
func (b *Browser) WaitForHost(ctx context.Context, instance string) (*Host, error) {
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Host, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			host := parseServiceEntry(entry)
			if host != nil && host.Instance == instance {
				select {
				case found <- host:
				default:
				}
				cancel()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case host := <-found:
		return host, nil
	case <-ctx.Done():
		select {
		case host := <-found:
			return host, nil
		default:
		}
		return nil, fmt.Errorf("pantti host %q not found within timeout", instance)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Host.
// Returns nil for entries that cannot be reached.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Host {
	if entry == nil || entry.HostName == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Host{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     parseText(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// parseText turns "key=value" TXT records into a map. A key without a
// value maps to the empty string.
func parseText(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

// DefaultText is the TXT record a web host advertises. scheme is "https"
// when the host serves TLS and "http" otherwise.
func DefaultText(version, scheme string) []string {
	return []string{"path=/", "version=" + version, "scheme=" + scheme}
}

// Advertisement is a registered mDNS service.
type Advertisement struct {
	server   *zeroconf.Server
	instance string
	port     int
}

// Advertise registers a web host under instance on every multicast
// interface until Shutdown is called.
func Advertise(instance string, port int, text []string) (*Advertisement, error) {
	if instance == "" {
		return nil, fmt.Errorf("mDNS instance name is empty")
	}
	if port <= 0 {
		return nil, fmt.Errorf("invalid port %d for mDNS advertisement", port)
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, text, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)

	return &Advertisement{server: server, instance: instance, port: port}, nil
}

// Shutdown withdraws the advertisement.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Info("Stopped mDNS advertisement", zap.String("instance", a.instance))
}

// Browse is a convenience function to browse with a custom timeout
func Browse(ctx context.Context, timeout time.Duration) ([]*Host, error) {
	browser := NewBrowser()
	browser.Timeout = timeout
	return browser.Browse(ctx)
}
