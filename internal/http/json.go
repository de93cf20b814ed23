package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// DecodeJSON decodes the request body into dst, rejecting unknown fields so
// malformed console clients fail loudly. It reports whether decoding
// succeeded; on failure the 400 envelope has already been written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}
	return true
}

// WriteJSON encodes v into a buffer before touching the response, so an
// encoding failure can still become a clean 500 instead of a half-written
// body.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// A short write here means the client went away; nothing to recover.
	_, _ = buf.WriteTo(w)
}

// ErrorParams describes one entry of the console's error envelope: the HTTP
// status, a stable machine-readable code, and the human-readable cause.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes the JSON error envelope used across the console API.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}
