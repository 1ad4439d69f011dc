// Package discovery advertises and finds pantti web hosts over mDNS.
//
// A web host started with advertising enabled registers itself as a
// "_pantti._tcp" service in the "local." domain. Other machines on the
// same network segment can then browse for it and open the scanner page
// without knowing its address.
//
// # Advertising
//
//	ad, err := discovery.Advertise("kitchen", 8080, discovery.DefaultText("1.2.0", "http"))
//	if err != nil {
//	    return err
//	}
//	defer ad.Shutdown()
//
// # Browsing
//
//	hosts, err := discovery.NewBrowser().Browse(ctx)
//	for _, h := range hosts {
//	    fmt.Println(h.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Hosts must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
