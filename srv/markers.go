package srv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Marker types for grouping in Honeycomb UI
const (
	MarkerTypeDeploy    = "deploy"
	MarkerTypeMigration = "migration"
	MarkerTypeChangelog = "changelog"
)

// Build-time variables (set via -ldflags)
var (
	Version   = "dev"
	CommitSHA = "unknown"
)

const honeycombAPI = "https://api.honeycomb.io"

// Marker represents a Honeycomb marker
type Marker struct {
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time,omitempty"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	URL       string `json:"url,omitempty"`
}

// MarkerClient handles communication with Honeycomb Markers API
type MarkerClient struct {
	apiKey  string
	dataset string
	apiURL  string
	client  *http.Client
}

// NewMarkerClient returns nil when apiKey is empty; every method is a no-op
// on a nil client.
func NewMarkerClient(apiKey, dataset string) *MarkerClient {
	if apiKey == "" {
		return nil
	}
	if dataset == "" {
		dataset = "changelogd"
	}
	return &MarkerClient{
		apiKey:  apiKey,
		dataset: dataset,
		apiURL:  honeycombAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateMarker sends a marker to Honeycomb.
// Logs errors but doesn't return them - markers are best-effort.
func (mc *MarkerClient) CreateMarker(ctx context.Context, m Marker) {
	if mc == nil {
		return
	}

	if m.StartTime == 0 {
		m.StartTime = time.Now().Unix()
	}

	body, err := json.Marshal(m)
	if err != nil {
		slog.Error("marshal marker", "error", err)
		return
	}

	url := fmt.Sprintf("%s/1/markers/%s", mc.apiURL, mc.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Error("create marker request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Honeycomb-Team", mc.apiKey)

	resp, err := mc.client.Do(req)
	if err != nil {
		slog.Error("send marker", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Error("marker API error", "status", resp.StatusCode, "type", m.Type, "message", m.Message)
		return
	}
	slog.Info("marker created", "type", m.Type, "message", m.Message)
}

// CreateDeployMarker creates a deploy marker with version and commit info
func (mc *MarkerClient) CreateDeployMarker(ctx context.Context) {
	if mc == nil {
		return
	}

	m := Marker{
		Message: fmt.Sprintf("Deploy %s", Version),
		Type:    MarkerTypeDeploy,
	}
	if CommitSHA != "unknown" && CommitSHA != "" {
		m.Message = fmt.Sprintf("Deploy %s (%s)", Version, CommitSHA[:min(7, len(CommitSHA))])
		m.URL = fmt.Sprintf("https://github.com/webframp/changelogd/commit/%s", CommitSHA)
	}
	mc.CreateMarker(ctx, m)
}

// CreateMigrationMarker creates a marker for a database migration
func (mc *MarkerClient) CreateMigrationMarker(filename string, startTime, endTime time.Time) {
	if mc == nil {
		return
	}
	mc.CreateMarker(context.Background(), Marker{
		StartTime: startTime.Unix(),
		EndTime:   endTime.Unix(),
		Message:   fmt.Sprintf("Migration: %s", filename),
		Type:      MarkerTypeMigration,
	})
}

// CreateChangelogMarker marks a published changelog change, e.g.
// "chore(changelog): add 1.4.0".
func (mc *MarkerClient) CreateChangelogMarker(ctx context.Context, message string) {
	if mc == nil {
		return
	}
	mc.CreateMarker(ctx, Marker{
		Message: message,
		Type:    MarkerTypeChangelog,
	})
}
