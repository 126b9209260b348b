package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRemote(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<p>hello world</p>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewFetcher(WithUserAgent("Mozilla/5.0"), WithTimeout(2*time.Second))

	t.Run("200 returns body and metadata", func(t *testing.T) {
		resp, err := f.Fetch(context.Background(), srv.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, "<p>hello world</p>", string(resp.Body))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/html", resp.ContentType)
		assert.False(t, resp.Local)
		assert.Equal(t, "Mozilla/5.0", gotUA)
	})

	t.Run("non-200 wraps ErrStatus", func(t *testing.T) {
		resp, err := f.Fetch(context.Background(), srv.URL+"/missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrStatus))
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.Fetch(ctx, srv.URL+"/ok")
		assert.Error(t, err)
	})
}

func TestFetchLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0644))

	f := NewFetcher()
	resp, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, resp.Local)
	assert.Equal(t, "line one\nline two\n", string(resp.Body))

	_, err = f.Fetch(context.Background(), filepath.Join(dir, "nope.txt"))
	assert.Error(t, err)
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"https://www.sec.gov/privacy", true},
		{"HTTP://example.com", true},
		{"  https://example.com ", true},
		{"docs/policy.txt", false},
		{"/abs/path.html", false},
		{"ftp://example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRemote(tt.source))
		})
	}
}
