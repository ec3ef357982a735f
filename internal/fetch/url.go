package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

var errBlockedAddress = errors.New("private or local address")

// Ranges not covered by the netip.Addr predicates.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
}

func blockedAddr(a netip.Addr) bool {
	a = a.Unmap()
	if !a.IsValid() || a.IsUnspecified() || a.IsLoopback() || a.IsPrivate() ||
		a.IsLinkLocalUnicast() || a.IsLinkLocalMulticast() || a.IsMulticast() {
		return true
	}
	for _, p := range blockedPrefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// checkURL parses rawURL and rejects anything but an http(s) URL with a
// host. Unless allowPrivate is set, local hostnames and literal private
// addresses are rejected too. Names are not resolved here: the preview
// transport checks every address it actually dials.
func checkURL(rawURL string, allowPrivate bool) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("empty url")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return nil, errors.New("missing host")
	}
	if allowPrivate {
		return u, nil
	}

	if host == "localhost" {
		return nil, errBlockedAddress
	}
	for _, suffix := range []string{".localhost", ".local", ".internal"} {
		if strings.HasSuffix(host, suffix) {
			return nil, errBlockedAddress
		}
	}
	if a, err := netip.ParseAddr(host); err == nil && blockedAddr(a) {
		return nil, errBlockedAddress
	}
	return u, nil
}

// dialControl runs after name resolution, so a host that resolves to a
// private address is caught even when its DNS answer changes between
// requests.
func dialControl(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	if blockedAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", errBlockedAddress, ap.Addr())
	}
	return nil
}

// newTransport returns the preview transport. When guarded, connections
// to blocked addresses fail at dial time and proxies are bypassed so the
// check sees the real destination.
func newTransport(guarded bool) *http.Transport {
	d := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if guarded {
		d.Control = dialControl
		tr.Proxy = nil
	}
	tr.DialContext = d.DialContext
	return tr
}
