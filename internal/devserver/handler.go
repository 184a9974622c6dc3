package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mobilize-transporte/avisos/internal/logging"
	"github.com/mobilize-transporte/avisos/internal/validate"
)

const maxRequestBody = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListEnvelope is the response of the /api/notificacoes listing.
type ListEnvelope struct {
	Notifications []Record `json:"notificacoes"`
}

// createRequest accepts both the English and the Portuguese field names.
type createRequest struct {
	Recipient any    `json:"recipient"`
	UserID    any    `json:"user_id"`
	Title     string `json:"title"`
	Titulo    string `json:"titulo"`
	Body      string `json:"body"`
	Mensagem  string `json:"mensagem"`
	Read      *bool  `json:"read"`
	Lido      *bool  `json:"lido"`
}

type newNotification struct {
	Recipient string `json:"recipient" validate:"required,max=64"`
	Title     string `json:"title" validate:"max=200"`
	Body      string `json:"body" validate:"required,max=2000"`
	Read      bool   `json:"read"`
}

func (req createRequest) normalize() newNotification {
	n := newNotification{
		Recipient: firstNonEmpty(scalar(req.Recipient), scalar(req.UserID), "all"),
		Title:     firstNonEmpty(req.Title, req.Titulo),
		Body:      firstNonEmpty(req.Body, req.Mensagem),
	}
	switch {
	case req.Read != nil:
		n.Read = *req.Read
	case req.Lido != nil:
		n.Read = *req.Lido
	}
	return n
}

// scalar renders string and numeric ids alike.
func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprint(val)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// NotificationHandler serves the notification endpoints.
type NotificationHandler struct {
	store *Store
}

// NewNotificationHandler creates a handler over store.
func NewNotificationHandler(store *Store) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// List writes the bare notification array.
func (h *NotificationHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

// ListEnveloped writes the notifications wrapped in {"notificacoes": [...]}.
func (h *NotificationHandler) ListEnveloped(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ListEnvelope{Notifications: h.store.List()})
}

// Create stores a notification and answers 201 with the record.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	n := req.normalize()
	if err := validate.Struct(n); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	rec := h.store.Create(n.Recipient, n.Title, n.Body, n.Read)
	logging.Info("notification created", "id", rec.ID, "recipient", rec.Recipient)
	writeJSON(w, http.StatusCreated, rec)
}

// MarkRead sets lido=true on one notification.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.MarkRead(chi.URLParam(r, "id"))
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Health answers liveness probes.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
