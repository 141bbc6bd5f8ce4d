package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"3.0.0", "3.0.1", true},
		{"3.0.0", "3.1.0", true},
		{"3.0.0", "4.0.0", true},
		{"3.0.0", "3.0.0", false},
		{"3.1.0", "3.0.9", false},
		{"3.0.0", "v3.0.1", true},
		{"3.0", "3.0.1", true},
		{"3.0.1", "3.0", false},
		{"3.0.0", "unknown", false},
		{"3.0.0", "3.0.0.9", false},
		{"2.9.9", "3.x.0", true},
		{"3.0.10", "3.0.9", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsNewer(tt.current, tt.latest), "%s -> %s", tt.current, tt.latest)
	}
}

func newChecker(url, goos string) *Checker {
	c := New("3.0.0", nil)
	c.URL = url
	c.GOOS = goos
	return c
}

const releaseJSON = `{
  "tag_name": "v3.2.0",
  "body": "Bug fixes",
  "published_at": "2026-01-02T03:04:05Z",
  "html_url": "https://example.invalid/release",
  "assets": [
    {"name": "Alfred-3.2.0-Windows-x64.msi", "browser_download_url": "https://dl.invalid/win.msi"},
    {"name": "Alfred-3.2.0-darwin-arm64.dmg", "browser_download_url": "https://dl.invalid/mac.dmg"},
    {"name": "alfred_3.2.0_linux_amd64.AppImage", "browser_download_url": "https://dl.invalid/linux.AppImage"}
  ]
}`

func TestCheckAvailable(t *testing.T) {
	gotUA := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(releaseJSON))
	}))
	defer srv.Close()

	info, err := newChecker(srv.URL, "windows").Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, userAgent, <-gotUA)
	assert.True(t, info.Available)
	assert.Equal(t, "3.0.0", info.CurrentVersion)
	assert.Equal(t, "3.2.0", info.LatestVersion)
	assert.Equal(t, "https://dl.invalid/win.msi", info.DownloadURL)
	assert.Equal(t, "Bug fixes", info.ReleaseNotes)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.PublishedAt)
}

func TestCheckPlatformAssets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(releaseJSON))
	}))
	defer srv.Close()

	for goos, want := range map[string]string{
		"darwin":  "https://dl.invalid/mac.dmg",
		"linux":   "https://dl.invalid/linux.AppImage",
		"freebsd": "https://dl.invalid/linux.AppImage",
	} {
		info, err := newChecker(srv.URL, goos).Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, info.DownloadURL, goos)
	}
}

func TestCheckNon2xxIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	info, err := newChecker(srv.URL, "linux").Check(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Available)
	assert.Equal(t, "unknown", info.LatestVersion)
	assert.Empty(t, info.DownloadURL)
}

func TestCheckMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newChecker(srv.URL, "linux").Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse release info")
}

func TestCheckUnreachable(t *testing.T) {
	_, err := newChecker("http://127.0.0.1:1", "linux").Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check for updates")
}
