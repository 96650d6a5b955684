package server

import (
	"encoding/json"
	"net/http"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
)

// maxBody caps request bodies; requests carry a handful of fields.
const maxBody = 64 << 10

type errorBody struct {
	Code    lgerrors.Code `json:"code"`
	Message string        `json:"message"`
}

func statusFor(code lgerrors.Code) int {
	switch code {
	case lgerrors.ErrCodeInvalidInput, lgerrors.ErrCodeInvalidSize, lgerrors.ErrCodeInvalidType,
		lgerrors.ErrCodeInvalidView, lgerrors.ErrCodeInvalidID, lgerrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case lgerrors.ErrCodeNotFound, lgerrors.ErrCodeWidgetNotFound:
		return http.StatusNotFound
	case lgerrors.ErrCodeDuplicateWidget, lgerrors.ErrCodeNoActiveDrag:
		return http.StatusConflict
	case lgerrors.ErrCodePersistence:
		return http.StatusServiceUnavailable
	case lgerrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case lgerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case lgerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := lgerrors.GetCode(err)
	if code == "" {
		code = lgerrors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: lgerrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return lgerrors.Wrap(lgerrors.ErrCodeInvalidInput, err, "invalid request body: %v", err)
	}
	return nil
}
