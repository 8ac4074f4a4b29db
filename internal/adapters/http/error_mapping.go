package httpadapter

import (
	"net/http"

	"github.com/agreewise/agreewise/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnsupportedContent):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrServiceFailure),
		domain.IsKind(err, domain.ErrTransport),
		domain.IsKind(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), errorResponse{Error: domain.UserMessage(err, "")})
}
