package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/romanetflavia-png/Sales-Resolve1/internal/logging"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/model"
	"github.com/romanetflavia-png/Sales-Resolve1/internal/service"
)

const maxSubmitBodyBytes = 64 << 10

// MessageHandler handles contact form submission and the admin message log.
type MessageHandler struct {
	messageService service.MessageService
}

// NewMessageHandler creates a MessageHandler with the given service.
func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// submitRequest is the expected JSON body for POST /api/contact.
type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type submitResponse struct {
	OK      bool           `json:"ok"`
	Message *model.Message `json:"message"`
}

// Submit handles POST /api/contact.
// name, email and message are required; message max 5000 chars.
func (h *MessageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBodyBytes)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	msg, err := h.messageService.Submit(r.Context(), model.MessageInput{
		Name:             req.Name,
		Email:            req.Email,
		Message:          req.Message,
		SubmitterAddress: clientAddr(r),
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Code)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to store contact message")
		writeError(w, http.StatusInternalServerError, "storage_failure")
		return
	}

	logging.Ctx(r.Context()).Info().Str(logging.FieldMessageID, msg.ID).Msg("contact message stored")
	writeJSON(w, http.StatusCreated, submitResponse{OK: true, Message: msg})
}

// List handles GET /api/messages (Basic auth is enforced by middleware).
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messageService.List(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to read contact messages")
		writeError(w, http.StatusInternalServerError, "storage_failure")
		return
	}

	// Return [] not null for empty lists
	if messages == nil {
		messages = []*model.Message{}
	}

	writeJSON(w, http.StatusOK, messages)
}
