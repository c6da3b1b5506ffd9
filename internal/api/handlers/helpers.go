// Handler helper functions: JSON encoding and error responses.
package handlers

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"
)

// maxBodyBytes bounds request bodies on every handler that decodes one.
const maxBodyBytes = 64 << 10

// errorResponse is the body of every non-2xx JSON answer. Raw carries
// diagnostics: a JSON value when the payload parses as an object or array,
// a string otherwise.
type errorResponse struct {
	Error string `json:"error"`
	Raw   any    `json:"raw,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeErrorRaw writes {"error": message, "raw": raw}; an empty raw is omitted.
func writeErrorRaw(w http.ResponseWriter, statusCode int, message, raw string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Raw: rawPayload(raw)})
}

func rawPayload(raw string) any {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 {
		return nil
	}
	if (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	return raw
}

// prettyRaw renders raw diagnostics for the HTML view: indented when it is
// JSON, verbatim otherwise.
func prettyRaw(raw string) string {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return raw
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return raw
	}
	return buf.String()
}
