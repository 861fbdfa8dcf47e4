package web

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Pagination defaults for session views.
const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// writeJSON writes v as a 200 JSON response.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// decodeJSON reads a JSON request body into v. Oversized bodies surface as
// *http.MaxBytesError, anything else unreadable as errInvalidRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return nil
}

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// rowParam reads the zero-based {row} path parameter.
func rowParam(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil {
		return 0, fmt.Errorf("%w: row must be a number", errInvalidRequest)
	}
	return i, nil
}

// page returns the [start, end) bounds of a 1-based page over n items.
func page(n, pageNum, size int) (int, int) {
	if size < 1 {
		size = defaultPageSize
	}
	if pageNum < 1 {
		pageNum = 1
	}
	if pageNum-1 > n/size {
		return n, n
	}
	start := (pageNum - 1) * size
	if start > n {
		start = n
	}
	end := start + size
	if end > n {
		end = n
	}
	return start, end
}
