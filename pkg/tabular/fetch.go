package tabular

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	fetchTimeout = 30 * time.Second
	userAgent    = "Mozilla/5.0"
)

// Fetcher downloads remote CSV files into a local directory.
type Fetcher struct {
	client  *http.Client
	destDir string
}

// NewFetcher creates a fetcher that stores downloads under destDir.
func NewFetcher(destDir string) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: fetchTimeout},
		destDir: destDir,
	}
}

// FetchFromURL performs a single GET for the URL and stores the body
// under a generated filename. The URL must be http or https; validation
// happens before any network I/O. No retry on failure.
func (f *Fetcher) FetchFromURL(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("url cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", fmt.Errorf("url must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("download csv: unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(f.destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	name := fmt.Sprintf("remote_%s.csv", uuid.NewString())
	path := filepath.Join(f.destDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write csv: %w", err)
	}

	log.Info().
		Str("url", rawURL).
		Str("file", name).
		Msg("Remote CSV downloaded")

	return path, nil
}
