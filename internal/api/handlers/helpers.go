package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/importer"
	"github.com/hugh/stockroom/internal/inventory"
	"github.com/hugh/stockroom/internal/lifecycle"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps service errors onto the API's status vocabulary:
// not-found 404, validation 400 (aggregated field errors in details),
// conflicts 409, everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var validation *inventory.ValidationError
	if errors.As(err, &validation) {
		details := make(map[string]string, len(validation.Errors))
		for _, fe := range validation.Errors {
			details[fe.Field] = fe.Message
		}
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: details})
		return
	}

	var notAllowed *lifecycle.NotAllowedError
	var missing *lifecycle.MissingFieldsError
	switch {
	case errors.Is(err, inventory.ErrAssetTypeNotFound),
		errors.Is(err, inventory.ErrAssetNotFound),
		errors.Is(err, importer.ErrJobNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, inventory.ErrDuplicateTypeName):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, lifecycle.ErrSelfTransition),
		errors.Is(err, inventory.ErrInvalidStatus),
		errors.Is(err, importer.ErrJobCompleted),
		errors.As(err, &notAllowed),
		errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}
