package api

import (
	"fmt"
	"net/http"
	"strconv"

	seyerrs "github.com/jdholdren/murmur/internal/errors"
)

// Limits bounds how many posts one request may ask for.
type Limits struct {
	Default int
	Max     int
}

// parseLimit reads ?limit= from the request. A missing value falls back to the
// default and anything above the max is capped; a value that isn't a positive
// integer is rejected.
func parseLimit(r *http.Request, limits Limits) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return limits.Default, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, seyerrs.E(
			fmt.Sprintf("limit must be a positive integer, got %q", raw),
			http.StatusBadRequest,
			seyerrs.Detail{Field: "limit", Error: "must be a positive integer"},
		)
	}

	return min(limit, limits.Max), nil
}
