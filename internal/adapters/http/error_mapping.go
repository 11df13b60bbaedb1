package httpadapter

import (
	"net/http"

	"github.com/evmakarov/knowledge-assistant/internal/core/domain"
)

// mapErrorToHTTPStatus translates domain error kinds into response codes.
// Temporary failures become 503 so clients know a retry may help; anything
// unrecognized is a plain 500.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
