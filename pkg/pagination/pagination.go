package pagination

import (
	"net/http"
	"strconv"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Bounds describes the accepted range of a list limit.
type Bounds struct {
	Default int
	Max     int
}

// Clamp returns b.Default for a non-positive limit and caps it at b.Max.
func (b Bounds) Clamp(limit int) int {
	switch {
	case limit <= 0:
		return b.Default
	case limit > b.Max:
		return b.Max
	default:
		return limit
	}
}

// LimitFromRequest reads the "limit" query parameter. An absent parameter
// yields 0 so the caller's default applies; a non-numeric one is
// InvalidInput.
func LimitFromRequest(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("limit must be an integer")
	}
	return v, nil
}
