package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/aideconf/internal/core"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusBadRequest, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatConflict:
		return http.StatusConflict, true
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout, true
	case core.ErrCatNetwork:
		return http.StatusBadGateway, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondError maps a domain error to its HTTP status and JSON body.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Error: "internal server error"}

	var domErr *core.DomainError
	if errors.As(err, &domErr) && domErr != nil {
		if st, ok := httpStatusForDomainError(err); ok {
			status = st
		}
		body = errorBody{
			Error:   domErr.Message,
			Code:    domErr.Code,
			Details: domErr.Details,
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, status, body)
}

// respondBadRequest reports a malformed request body or query.
func (s *Server) respondBadRequest(w http.ResponseWriter, message string) {
	s.respondJSON(w, http.StatusBadRequest, errorBody{Error: message, Code: "BAD_REQUEST"})
}
