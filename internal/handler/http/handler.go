package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/validator"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ItemsResponse wraps a listing.
type ItemsResponse[T any] struct {
	Items []T `json:"items"`
}

func items[T any](v []T) ItemsResponse[T] {
	if v == nil {
		v = []T{}
	}
	return ItemsResponse[T]{Items: v}
}

// actorFrom returns the authenticated caller, or the zero actor on public routes.
func actorFrom(r *http.Request) domain.Actor {
	return auth.Actor(middleware.ClaimsFromContext(r.Context()))
}

// decode limits, decodes and validates the JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return validator.DecodeAndValidate(r, dst)
}

// pathID parses the named UUID path parameter. On failure the 400 response has
// already been written.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := httputil.ParseUUID(w, r, name, chi.URLParam(r, name))
	if !ok {
		return "", false
	}
	return id.String(), true
}

// queryBool reads an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.InvalidInput(name + " must be true or false")
	}
	return v, nil
}
