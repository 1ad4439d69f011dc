package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entry(instance, hostname string, port int, v4, v6 []net.IP, text []string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = hostname
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = text
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
	}{
		{
			name:         "host with IPv4",
			entry:        entry("kitchen", "raspberrypi.local.", 8080, []net.IP{net.ParseIP("192.168.4.16")}, nil, []string{"path=/", "version=1.2.0"}),
			wantInstance: "kitchen",
			wantIP:       "192.168.4.16",
			wantPort:     8080,
		},
		{
			name:         "custom port",
			entry:        entry("garage", "garage.local", 9000, []net.IP{net.ParseIP("10.0.0.5")}, nil, nil),
			wantInstance: "garage",
			wantIP:       "10.0.0.5",
			wantPort:     9000,
		},
		{
			name:         "no port specified (should default)",
			entry:        entry("hall", "hall.local", 0, []net.IP{net.ParseIP("172.16.0.1")}, nil, nil),
			wantInstance: "hall",
			wantIP:       "172.16.0.1",
			wantPort:     DefaultPort,
		},
		{
			name:    "empty hostname",
			entry:   entry("kitchen", "", 8080, []net.IP{net.ParseIP("192.168.1.1")}, nil, nil),
			wantNil: true,
		},
		{
			name:    "no IP address",
			entry:   entry("kitchen", "raspberrypi.local", 8080, []net.IP{}, []net.IP{}, nil),
			wantNil: true,
		},
		{
			name:         "IPv6 only host",
			entry:        entry("attic", "attic.local", 8080, nil, []net.IP{net.ParseIP("fe80::1")}, nil),
			wantInstance: "attic",
			wantIP:       "fe80::1",
			wantPort:     8080,
		},
		{
			name:         "both IPv4 and IPv6 (should prefer IPv4)",
			entry:        entry("office", "office.local", 8080, []net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}, nil),
			wantInstance: "office",
			wantIP:       "192.168.1.50",
			wantPort:     8080,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if host != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", host)
				}
				return
			}

			if host == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil host")
			}
			if host.Instance != tt.wantInstance {
				t.Errorf("host.Instance = %v, want %v", host.Instance, tt.wantInstance)
			}
			if host.IP != tt.wantIP {
				t.Errorf("host.IP = %v, want %v", host.IP, tt.wantIP)
			}
			if host.Port != tt.wantPort {
				t.Errorf("host.Port = %v, want %v", host.Port, tt.wantPort)
			}
			if host.Hostname != tt.entry.HostName {
				t.Errorf("host.Hostname = %v, want %v", host.Hostname, tt.entry.HostName)
			}
			if time.Since(host.DiscoveredAt) > time.Second {
				t.Errorf("host.DiscoveredAt is not recent: %v", host.DiscoveredAt)
			}
		})
	}
}

func TestParseText(t *testing.T) {
	got := parseText([]string{"path=/", "version=1.2.0", "flag", "url=http://x/?a=b"})

	expected := map[string]string{
		"path":    "/",
		"version": "1.2.0",
		"flag":    "",
		"url":     "http://x/?a=b",
	}

	if len(got) != len(expected) {
		t.Errorf("parseText() has %d entries, want %d", len(got), len(expected))
	}
	for key, want := range expected {
		if actual, ok := got[key]; !ok {
			t.Errorf("metadata missing key %q", key)
		} else if actual != want {
			t.Errorf("metadata[%q] = %q, want %q", key, actual, want)
		}
	}
}

func TestNewBrowser(t *testing.T) {
	browser := NewBrowser()

	if browser == nil {
		t.Fatal("NewBrowser() = nil, want browser")
	}
	if browser.Timeout != DefaultScanTimeout {
		t.Errorf("browser.Timeout = %v, want %v", browser.Timeout, DefaultScanTimeout)
	}
}

func TestDefaultText(t *testing.T) {
	tests := []struct {
		scheme string
		want   string
	}{
		{"http", "http://192.168.4.16:8080/"},
		{"https", "https://192.168.4.16:8080/"},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			got := DefaultText("1.2.0", tt.scheme)
			if len(got) != 3 || got[0] != "path=/" || got[1] != "version=1.2.0" || got[2] != "scheme="+tt.scheme {
				t.Fatalf("DefaultText() = %v", got)
			}

			host := &Host{IP: "192.168.4.16", Port: 8080, Metadata: parseText(got)}
			if url := host.BaseURL(); url != tt.want {
				t.Errorf("BaseURL() from advertised text = %q, want %q", url, tt.want)
			}
		})
	}
}

func TestAdvertise_Validation(t *testing.T) {
	if _, err := Advertise("", 8080, nil); err == nil {
		t.Error("Advertise() with empty instance should fail")
	}
	if _, err := Advertise("kitchen", 0, nil); err == nil {
		t.Error("Advertise() with port 0 should fail")
	}
}

func TestAdvertisement_ShutdownNil(t *testing.T) {
	var ad *Advertisement
	ad.Shutdown()
}

// Note: live mDNS browse and advertise need multicast networking and are
// exercised manually with `pantti serve --advertise` and `pantti discover`.
