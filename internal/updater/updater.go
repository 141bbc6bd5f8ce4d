// Package updater checks the release feed for a newer build.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultReleasesURL = "https://api.github.com/repos/archon/alfred-v3/releases/latest"
	userAgent          = "Alfred-Desktop/3.0.0"
)

type UpdateInfo struct {
	Available      bool   `json:"available"`
	CurrentVersion string `json:"current_version"`
	LatestVersion  string `json:"latest_version"`
	DownloadURL    string `json:"download_url,omitempty"`
	ReleaseNotes   string `json:"release_notes,omitempty"`
	PublishedAt    string `json:"published_at,omitempty"`
}

type release struct {
	TagName     string  `json:"tag_name"`
	Body        string  `json:"body"`
	PublishedAt string  `json:"published_at"`
	HTMLURL     string  `json:"html_url"`
	Assets      []asset `json:"assets"`
}

type asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type Checker struct {
	URL     string
	Current string
	GOOS    string
	Client  *http.Client
	Logger  *slog.Logger
}

// New returns a Checker for the default feed and the running platform.
func New(current string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		URL:     DefaultReleasesURL,
		Current: current,
		GOOS:    runtime.GOOS,
		Client:  &http.Client{Timeout: 15 * time.Second},
		Logger:  logger,
	}
}

// Check fetches the latest release. A non-2xx answer is not an error: it
// yields Available=false with LatestVersion "unknown".
func (c *Checker) Check(ctx context.Context) (UpdateInfo, error) {
	info := UpdateInfo{CurrentVersion: c.Current, LatestVersion: "unknown"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return info, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return info, fmt.Errorf("failed to check for updates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.Logger.Debug("release feed unavailable", "status", resp.StatusCode)
		return info, nil
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return info, fmt.Errorf("failed to parse release info: %w", err)
	}

	info.LatestVersion = strings.TrimPrefix(rel.TagName, "v")
	info.Available = IsNewer(c.Current, info.LatestVersion)
	info.DownloadURL = platformAsset(rel.Assets, c.GOOS)
	info.ReleaseNotes = rel.Body
	info.PublishedAt = rel.PublishedAt
	return info, nil
}

// IsNewer reports whether latest is greater than current, comparing the first
// three numeric dot-separated parts. Missing parts count as 0 and
// non-numeric parts are skipped.
func IsNewer(current, latest string) bool {
	c, l := parseParts(current), parseParts(latest)
	for i := 0; i < 3; i++ {
		cv, lv := partAt(c, i), partAt(l, i)
		if lv > cv {
			return true
		}
		if lv < cv {
			return false
		}
	}
	return false
}

func parseParts(v string) []uint64 {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	var out []uint64
	for _, p := range strings.Split(v, ".") {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func partAt(parts []uint64, i int) uint64 {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

func platformAsset(assets []asset, goos string) string {
	target := "linux"
	switch goos {
	case "windows":
		target = "windows"
	case "darwin":
		target = "darwin"
	}
	for _, a := range assets {
		if strings.Contains(strings.ToLower(a.Name), target) {
			return a.BrowserDownloadURL
		}
	}
	return ""
}
