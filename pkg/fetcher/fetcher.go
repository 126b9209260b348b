package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrStatus is returned when a server answers with a non-200 status.
var ErrStatus = errors.New("unexpected HTTP status")

// DefaultTimeout applies when the caller does not configure one.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 16 << 20

// Response carries the body of a fetched source plus the HTTP metadata we log and persist.
type Response struct {
	Body        []byte
	StatusCode  int
	FinalURL    string
	ContentType string
	Local       bool
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsRemote reports whether source should be fetched over HTTP rather than read from disk.
func IsRemote(source string) bool {
	s := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch retrieves source, which is either an http(s) URL or a local file path.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Response, error) {
	if !IsRemote(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read local source: %w", err)
		}
		return &Response{Body: data, StatusCode: http.StatusOK, FinalURL: source, Local: true}, nil
	}
	return f.get(ctx, source)
}

func (f *Fetcher) GetHtml(ctx context.Context, url string) (*goquery.Document, error) {
	bodyBytes, err := f.GetHtmlBytes(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(bodyBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func (f *Fetcher) GetHtmlBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Response{StatusCode: resp.StatusCode, FinalURL: resp.Request.URL.String()},
			fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{
		Body:        bodyBytes,
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
