package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"filing_tables/pkg/core/table"
)

// UserAgent is sent with remote fetches. SEC EDGAR rejects requests without
// a descriptive User-Agent.
const UserAgent = "FilingTables/1.0 (contact@example.com)"

// SourceClient opens a filing from a local path or an http(s) URL.
type SourceClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewSourceClient creates a client with a 30 second fetch timeout.
func NewSourceClient() *SourceClient {
	return &SourceClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  UserAgent,
	}
}

// Open returns the raw document bytes. Failures wrap ErrSourceUnreadable.
func (c *SourceClient) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return c.fetch(ctx, location)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	return f, nil
}

func (c *SourceClient) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrSourceUnreadable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrSourceUnreadable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d", ErrSourceUnreadable, url, resp.StatusCode)
	}
	return resp.Body, nil
}

// ReadHTML opens location and parses its tables.
func (c *SourceClient) ReadHTML(ctx context.Context, location, encoding string) ([]*table.Table, error) {
	rc, err := c.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return NewHTMLReader(encoding).Read(rc)
}

// ReadStaging loads column dumps instead of HTML. location is either a single
// json<N>.json file or a directory of them; tables are ordered by N.
func ReadStaging(location string) ([]*table.Table, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	var files []string
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(location, "json*.json"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}
	} else {
		files = []string{location}
	}

	type staged struct {
		index int
		path  string
	}
	var entries []staged
	for i, path := range files {
		index, ok := stagingIndex(path)
		if !ok {
			index = i
		}
		entries = append(entries, staged{index: index, path: path})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].index < entries[b].index })

	var tables []*table.Table
	for _, e := range entries {
		data, err := os.ReadFile(e.path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
		}
		t, err := table.DecodeColumns(e.index, data)
		if err != nil {
			// One bad dump does not spoil the others.
			log.Printf("[Staging] Skipping %s: %v", e.path, err)
			continue
		}
		tables = append(tables, t)
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no staged tables in %s", ErrSourceUnreadable, location)
	}
	return tables, nil
}

// stagingIndex parses N out of ".../json<N>.json".
func stagingIndex(path string) (int, bool) {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	if !strings.HasPrefix(name, "json") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, "json"))
	if err != nil {
		return 0, false
	}
	return n, true
}
