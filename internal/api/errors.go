package api

import (
	"encoding/json"
	"net/http"

	"cabanas/internal/domain"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func httpStatus(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func grpcCode(kind domain.Kind) codes.Code {
	switch kind {
	case domain.KindValidation:
		return codes.InvalidArgument
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindUnauthenticated:
		return codes.Unauthenticated
	case domain.KindForbidden:
		return codes.PermissionDenied
	case domain.KindConflict:
		return codes.AlreadyExists
	case domain.KindTransient:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// grpcError converts a service error into a status error. Internal details stay in the logs.
func grpcError(err error) error {
	kind := domain.KindOf(err)
	msg := domain.MessageOf(err)
	if kind == domain.KindValidation {
		msg = err.Error()
	}
	return status.Error(grpcCode(kind), msg)
}

type errorResponse struct {
	Error            string            `json:"error"`
	Kind             string            `json:"kind,omitempty"`
	ValidationErrors map[string]string `json:"validation_errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	writeJSON(w, httpStatus(kind), errorResponse{
		Error:            domain.MessageOf(err),
		Kind:             string(kind),
		ValidationErrors: domain.FieldsOf(err),
	})
}
