package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gearrent-backend/internal/domain"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/resilience"
	"gearrent-backend/internal/security"
)

type errorResponse struct {
	Error     string          `json:"error"`
	Succeeded []string        `json:"succeeded,omitempty"`
	Failed    []failedItemDTO `json:"failed,omitempty"`
}

type failedItemDTO struct {
	ItemID string `json:"itemId"`
	Error  string `json:"error"`
}

// StatusFor maps an error from the service layer to an HTTP status code
func StatusFor(err error) int {
	var batch *domain.BatchError
	switch {
	case errors.As(err, &batch):
		return http.StatusMultiStatus
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrReportNotFound),
		errors.Is(err, domain.ErrMediaNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConcurrentUpdateConflict),
		errors.Is(err, domain.ErrDuplicateItemName),
		errors.Is(err, domain.ErrItemReserved),
		errors.Is(err, domain.ErrPredefinedItem):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIndeterminate),
		errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, resilience.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrPaymentIncomplete):
		return http.StatusBadRequest
	case errors.Is(err, security.ErrMissingToken),
		errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrExpiredToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := errorResponse{Error: domain.Message(err)}

	var batch *domain.BatchError
	if errors.As(err, &batch) {
		body.Succeeded = batch.Succeeded
		for _, f := range batch.Failed {
			body.Failed = append(body.Failed, failedItemDTO{ItemID: f.ItemID, Error: domain.Message(f.Err)})
		}
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}
