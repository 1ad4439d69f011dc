package discovery

import (
	"testing"
	"time"
)

func TestHost_String(t *testing.T) {
	host := &Host{
		Instance: "kitchen",
		Hostname: "raspberrypi.local.",
		IP:       "192.168.4.16",
		Port:     8080,
	}

	expected := `pantti "kitchen" (raspberrypi.local.) at 192.168.4.16:8080`
	if host.String() != expected {
		t.Errorf("Host.String() = %v, want %v", host.String(), expected)
	}
}

func TestHost_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		host     *Host
		expected string
	}{
		{
			name:     "no path advertised",
			host:     &Host{IP: "192.168.4.16", Port: 8080},
			expected: "http://192.168.4.16:8080/",
		},
		{
			name:     "advertised path",
			host:     &Host{IP: "10.0.0.5", Port: 80, Metadata: map[string]string{"path": "/scan"}},
			expected: "http://10.0.0.5:80/scan",
		},
		{
			name:     "ipv6",
			host:     &Host{IP: "fe80::1", Port: 8080},
			expected: "http://[fe80::1]:8080/",
		},
		{
			name:     "https advertised",
			host:     &Host{IP: "10.0.0.5", Port: 8443, Metadata: map[string]string{"scheme": "https"}},
			expected: "https://10.0.0.5:8443/",
		},
		{
			name:     "unknown scheme falls back to http",
			host:     &Host{IP: "10.0.0.5", Port: 8080, Metadata: map[string]string{"scheme": "gopher"}},
			expected: "http://10.0.0.5:8080/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.host.BaseURL(); got != tt.expected {
				t.Errorf("Host.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHost_GetMetadata(t *testing.T) {
	host := &Host{
		Metadata: map[string]string{
			"path":    "/",
			"version": "1.2.0",
		},
	}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{name: "existing key", key: "path", expected: "/"},
		{name: "another existing key", key: "version", expected: "1.2.0"},
		{name: "non-existent key", key: "missing", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := host.GetMetadata(tt.key); got != tt.expected {
				t.Errorf("Host.GetMetadata(%v) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}

	if got := host.Version(); got != "1.2.0" {
		t.Errorf("Host.Version() = %v, want 1.2.0", got)
	}
}

func TestHost_GetMetadata_NilMap(t *testing.T) {
	host := &Host{Metadata: nil}

	if got := host.GetMetadata("anything"); got != "" {
		t.Errorf("Host.GetMetadata() with nil map = %v, want empty string", got)
	}
}

func TestHost_DiscoveredAt(t *testing.T) {
	now := time.Now()
	host := &Host{Instance: "kitchen", DiscoveredAt: now}

	if host.DiscoveredAt != now {
		t.Errorf("Host.DiscoveredAt = %v, want %v", host.DiscoveredAt, now)
	}
}
