// Package probe runs the functional checks of site mode: HTTPS scheme, negotiated
// TLS version and the country the site's address geolocates to.
package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
)

// Unknown is reported when a value could not be determined.
const Unknown = "Unknown"

// ErrNoLocator is returned when no GeoIP database is available.
var ErrNoLocator = errors.New("geoip database not available")

// Locator maps an IP address to an ISO country code.
type Locator interface {
	Country(ip net.IP) (string, error)
}

// GeoIP is a Locator backed by a MaxMind GeoLite2/GeoIP2 country database.
type GeoIP struct {
	reader *geoip2.Reader
}

// OpenGeoIP opens the mmdb file at path.
func OpenGeoIP(path string) (*GeoIP, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database %s: %w", path, err)
	}
	return &GeoIP{reader: r}, nil
}

func (g *GeoIP) Country(ip net.IP) (string, error) {
	rec, err := g.reader.Country(ip)
	if err != nil {
		return "", fmt.Errorf("geoip lookup failed: %w", err)
	}
	if rec.Country.IsoCode == "" {
		return "", fmt.Errorf("no country for %s", ip)
	}
	return rec.Country.IsoCode, nil
}

func (g *GeoIP) Close() error {
	return g.reader.Close()
}

// Result holds the outcome of all probes for one URL.
type Result struct {
	Host       string
	IP         string
	TLSVersion string
	Region     string
	HTTPSOK    bool
	TLSOK      bool
	RegionOK   bool
	Errors     []string
}

// Passed reports whether every probe succeeded.
func (r *Result) Passed() bool {
	return r.HTTPSOK && r.TLSOK && r.RegionOK
}

// Prober runs the checks. The zero value is usable but never passes the region check.
type Prober struct {
	Timeout        time.Duration
	ExpectedRegion string
	Locator        Locator
	// Port is dialed for the TLS check; empty means the URL's port or 443.
	Port     string
	RootCAs  *x509.CertPool
	Resolver *net.Resolver
}

// Check runs every probe against rawURL. Probe failures are reported in the result, never as errors.
func (p *Prober) Check(ctx context.Context, rawURL string) *Result {
	res := &Result{IP: "N/A", TLSVersion: Unknown, Region: Unknown}
	res.HTTPSOK = HTTPS(rawURL)

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid url %q", rawURL))
		return res
	}
	res.Host = u.Hostname()

	version, err := p.TLSVersion(ctx, res.Host, p.port(u))
	if err != nil {
		res.TLSVersion = err.Error()
		res.Errors = append(res.Errors, "tls: "+err.Error())
	} else {
		res.TLSVersion = version
		res.TLSOK = AcceptableTLS(version)
	}

	ip, err := p.resolve(ctx, res.Host)
	if err != nil {
		res.Errors = append(res.Errors, "dns: "+err.Error())
		return res
	}
	res.IP = ip.String()

	if p.Locator == nil {
		res.Errors = append(res.Errors, "region: "+ErrNoLocator.Error())
		return res
	}
	country, err := p.Locator.Country(ip)
	if err != nil {
		res.Errors = append(res.Errors, "region: "+err.Error())
		return res
	}
	res.Region = country
	res.RegionOK = strings.EqualFold(country, p.expected())
	return res
}

// HTTPS reports whether rawURL uses the https scheme.
func HTTPS(rawURL string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(rawURL)), "https://")
}

// AcceptableTLS is true for TLS 1.2 and 1.3.
func AcceptableTLS(version string) bool {
	return version == "TLSv1.2" || version == "TLSv1.3"
}

// TLSVersion completes a handshake with host and returns the negotiated version as "TLSv1.x".
func (p *Prober) TLSVersion(ctx context.Context, host, port string) (string, error) {
	if port == "" {
		port = "443"
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	d := &tls.Dialer{Config: &tls.Config{ServerName: host, RootCAs: p.RootCAs}}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return versionName(conn.(*tls.Conn).ConnectionState().Version), nil
}

func (p *Prober) resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	r := p.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses for %s", host)
	}
	return addrs[0].IP, nil
}

func (p *Prober) port(u *url.URL) string {
	if p.Port != "" {
		return p.Port
	}
	return u.Port()
}

func (p *Prober) timeout() time.Duration {
	if p.Timeout <= 0 {
		return 5 * time.Second
	}
	return p.Timeout
}

func (p *Prober) expected() string {
	if p.ExpectedRegion == "" {
		return "US"
	}
	return p.ExpectedRegion
}

func versionName(v uint16) string {
	switch v {
	case tls.VersionTLS10:
		return "TLSv1"
	case tls.VersionTLS11:
		return "TLSv1.1"
	case tls.VersionTLS12:
		return "TLSv1.2"
	case tls.VersionTLS13:
		return "TLSv1.3"
	}
	return fmt.Sprintf("0x%04x", v)
}
