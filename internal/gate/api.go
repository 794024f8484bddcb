package gate

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/conradoqg/maintenance-gate/internal/logx"
	"github.com/conradoqg/maintenance-gate/internal/remote"
)

type statusResponse struct {
	MaintenanceMode bool   `json:"maintenanceMode"`
	Source          string `json:"source"`
	Degraded        bool   `json:"degraded"`
}

type setResponse struct {
	MaintenanceMode bool   `json:"maintenanceMode"`
	Scope           string `json:"scope"`
	Stored          bool   `json:"stored"`
	Note            string `json:"note"`
}

const localOnlyNote = "updated locally; update the remote status document for cross-client sync"

// APIHandler serves GET (resolve, or ?local=1 for the local store only) and PUT (set locally).
func (g *Gate) APIHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			g.getStatus(w, r)
		case http.MethodPut, http.MethodPost:
			g.setStatus(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD, PUT, POST")
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}

func (g *Gate) getStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("local") == "1" {
		writeJSON(w, http.StatusOK, statusResponse{
			MaintenanceMode: g.res.LocalStatus(r.Context()),
			Source:          "local",
		})
		return
	}
	st := g.res.Status(r.Context())
	writeJSON(w, http.StatusOK, statusResponse{
		MaintenanceMode: st.Enabled,
		Source:          string(st.Source),
		Degraded:        st.Degraded,
	})
}

func (g *Gate) setStatus(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(io.LimitReader(r.Body, 4<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	enabled, err := parseSetBody(b)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := g.res.Set(r.Context(), enabled)
	writeJSON(w, http.StatusOK, setResponse{
		MaintenanceMode: res.Enabled,
		Scope:           string(res.Scope),
		Stored:          res.Err == nil,
		Note:            localOnlyNote,
	})
}

// parseSetBody accepts the status document shape, with a bool or "true"/"false".
func parseSetBody(b []byte) (bool, error) {
	doc, err := remote.ParseDocument(b)
	if err != nil {
		return false, err
	}
	if s, ok := doc.Raw.(string); ok && s != "true" && s != "false" {
		return false, fmt.Errorf("maintenanceMode must be true or false, got %q", s)
	}
	return doc.Enabled(), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warnf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
