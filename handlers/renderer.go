// ABOUTME: Renderer boundary between step handlers and page presentation
// ABOUTME: Templating lives outside this service; the default emits JSON

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Renderer turns a step's accumulated view data into a response body.
// Production deployments plug in an HTML template engine; this core
// only guarantees the data contract.
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data map[string]any)
}

// JSONRenderer writes the page name and view data as a JSON document.
type JSONRenderer struct{}

func (JSONRenderer) Render(w http.ResponseWriter, status int, page string, data map[string]any) {
	body := make(map[string]any, len(data)+1)
	for k, v := range data {
		body[k] = v
	}
	body["page"] = page

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode page", "page", page, "error", err)
	}
}
