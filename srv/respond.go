package srv

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/webframp/changelogd/changelog"
)

// ChangelogResponse is the GET envelope.
type ChangelogResponse struct {
	OK   bool                `json:"ok"`
	Data *changelog.Document `json:"data"`
}

// SavedResponse is the POST envelope.
type SavedResponse struct {
	OK    bool `json:"ok"`
	Saved bool `json:"saved"`
}

// RemovedResponse is the DELETE envelope.
type RemovedResponse struct {
	OK      bool `json:"ok"`
	Removed bool `json:"removed"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}
