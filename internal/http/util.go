package httpx

import (
	"net/http"
	"strconv"
)

// parseIntQuery returns the integer value of a query param or a default.
// It is tolerant of missing/invalid values.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// ParseLimit parses the limit query param, clamping to [1, maxLimit].
func ParseLimit(r *http.Request, defLimit, maxLimit int) int {
	if maxLimit < 1 {
		maxLimit = 1
	}
	lim := parseIntQuery(r, "limit", defLimit)
	if lim < 1 {
		lim = 1
	}
	if lim > maxLimit {
		lim = maxLimit
	}
	return lim
}
