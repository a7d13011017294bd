package srv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewMarkerClient_NoKey(t *testing.T) {
	if mc := NewMarkerClient("", "changelogd"); mc != nil {
		t.Error("expected nil client without an API key")
	}

	// every method is safe on a nil client
	var mc *MarkerClient
	mc.CreateDeployMarker(context.Background())
	mc.CreateChangelogMarker(context.Background(), "chore(changelog): add 1.0.0")
	mc.CreateMigrationMarker("001-documents.sql", time.Now(), time.Now())
}

func TestCreateChangelogMarker(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		got     Marker
	)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Honeycomb-Team")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("invalid marker body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(api.Close)

	mc := NewMarkerClient("hc-key", "")
	mc.apiURL = api.URL

	mc.CreateChangelogMarker(context.Background(), "chore(changelog): remove 1.2.0")

	if gotPath != "/1/markers/changelogd" {
		t.Errorf("expected default dataset path, got %s", gotPath)
	}
	if gotKey != "hc-key" {
		t.Errorf("expected API key header, got %q", gotKey)
	}
	if got.Type != MarkerTypeChangelog {
		t.Errorf("expected type %s, got %s", MarkerTypeChangelog, got.Type)
	}
	if got.Message != "chore(changelog): remove 1.2.0" {
		t.Errorf("unexpected message %q", got.Message)
	}
	if got.StartTime == 0 {
		t.Error("expected start time to be filled in")
	}
}

func TestCreateMigrationMarker(t *testing.T) {
	var got Marker
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	t.Cleanup(api.Close)

	mc := NewMarkerClient("hc-key", "changelog-prod")
	mc.apiURL = api.URL

	start := time.Unix(1700000000, 0)
	mc.CreateMigrationMarker("002-document-history.sql", start, start.Add(2*time.Second))

	if got.Type != MarkerTypeMigration {
		t.Errorf("expected type %s, got %s", MarkerTypeMigration, got.Type)
	}
	if got.StartTime != 1700000000 || got.EndTime != 1700000002 {
		t.Errorf("unexpected times %d..%d", got.StartTime, got.EndTime)
	}
}
