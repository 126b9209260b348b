package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLocator struct {
	country string
	err     error
}

func (s staticLocator) Country(net.IP) (string, error) { return s.country, s.err }

func newTLSServer(t *testing.T) (*httptest.Server, *Prober) {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	pool := srv.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs
	return srv, &Prober{Timeout: 2 * time.Second, Port: u.Port(), RootCAs: pool}
}

func TestCheckAllPass(t *testing.T) {
	srv, p := newTLSServer(t)
	p.Locator = staticLocator{country: "US"}

	res := p.Check(context.Background(), srv.URL)
	assert.True(t, res.HTTPSOK)
	assert.True(t, res.TLSOK, res.Errors)
	assert.Contains(t, []string{"TLSv1.2", "TLSv1.3"}, res.TLSVersion)
	assert.Equal(t, "127.0.0.1", res.IP)
	assert.Equal(t, "US", res.Region)
	assert.True(t, res.RegionOK)
	assert.True(t, res.Passed())
	assert.Empty(t, res.Errors)
}

func TestCheckWrongRegion(t *testing.T) {
	srv, p := newTLSServer(t)
	p.Locator = staticLocator{country: "DE"}
	p.ExpectedRegion = "us"

	res := p.Check(context.Background(), srv.URL)
	assert.Equal(t, "DE", res.Region)
	assert.False(t, res.RegionOK)
	assert.False(t, res.Passed())
}

func TestCheckLocatorFailures(t *testing.T) {
	srv, p := newTLSServer(t)

	res := p.Check(context.Background(), srv.URL)
	assert.Equal(t, Unknown, res.Region)
	assert.False(t, res.RegionOK)
	assert.NotEmpty(t, res.Errors)

	p.Locator = staticLocator{err: errors.New("address not found")}
	res = p.Check(context.Background(), srv.URL)
	assert.Equal(t, Unknown, res.Region)
	assert.False(t, res.RegionOK)
}

func TestCheckPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	u, _ := url.Parse(srv.URL)

	p := &Prober{Timeout: time.Second, Port: u.Port(), Locator: staticLocator{country: "US"}}
	res := p.Check(context.Background(), srv.URL)
	assert.False(t, res.HTTPSOK)
	assert.False(t, res.TLSOK, "handshake against a plain listener must fail")
	assert.True(t, res.RegionOK)
	assert.False(t, res.Passed())
}

func TestCheckInvalidURL(t *testing.T) {
	p := &Prober{}
	res := p.Check(context.Background(), "::not a url")
	assert.False(t, res.Passed())
	assert.Equal(t, "N/A", res.IP)
	assert.NotEmpty(t, res.Errors)
}

func TestHTTPSAndTLSVersions(t *testing.T) {
	assert.True(t, HTTPS("HTTPS://bank.example"))
	assert.False(t, HTTPS("http://bank.example"))
	assert.True(t, AcceptableTLS("TLSv1.2"))
	assert.True(t, AcceptableTLS("TLSv1.3"))
	assert.False(t, AcceptableTLS("TLSv1.1"))
	assert.False(t, AcceptableTLS(Unknown))
}

func TestOpenGeoIPMissingFile(t *testing.T) {
	_, err := OpenGeoIP("/nonexistent/GeoLite2-Country.mmdb")
	assert.Error(t, err)
}
