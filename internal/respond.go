package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gadget-inventory-api/internal/auth"
	"gadget-inventory-api/internal/repository"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError maps domain errors onto status codes. Unclassified errors are
// logged and reported as a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *repository.ConstraintError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &ce):
		msg := "duplicate value"
		if field := ce.Field(); field != "" {
			msg = field + " already exists"
		}
		auth.SendErrorResponse(w, msg, "CONFLICT", http.StatusConflict)
	case errors.Is(err, repository.ErrNotFound):
		auth.SendErrorResponse(w, "resource not found", "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &verrs):
		auth.SendErrorResponse(w, describeValidation(verrs), "VALIDATION_FAILED", http.StatusBadRequest)
	case errors.Is(err, repository.ErrInvalidArgument):
		auth.SendErrorResponse(w, err.Error(), "INVALID_ARGUMENT", http.StatusBadRequest)
	default:
		s.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		auth.SendErrorResponse(w, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// decodeJSON reads a JSON body into dst and runs struct-tag validation.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", repository.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: invalid request body: %v", repository.ErrInvalidArgument, err)
	}
	return s.validate.Struct(dst)
}

func describeValidation(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "datetime":
			parts = append(parts, fe.Field()+" must be a YYYY-MM-DD date")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
