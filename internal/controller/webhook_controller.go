// internal/controller/webhook_controller.go
package controller

import (
	"errors"
	"io"
	"net/http"

	appErrors "github.com/garageware/crm-backend/internal/errors"
	"github.com/garageware/crm-backend/internal/service"
)

// WebhookController receives Mailgun event callbacks. Transport-level
// unauthenticated; the body carries the HMAC signature instead.
type WebhookController struct {
	WebhookService *service.WebhookService
}

func (c *WebhookController) HandleMailgunEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := c.WebhookService.Process(body); err != nil {
		var contactNotFound *appErrors.ErrContactNotFound
		switch {
		case errors.Is(err, appErrors.ErrInvalidSignature):
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid signature"})
		case errors.Is(err, appErrors.ErrMissingMessageID):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "missing message id"})
		case errors.As(err, &contactNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown message id"})
		case appErrors.IsValidation(err):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}
