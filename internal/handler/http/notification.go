package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// NotificationHandler handles HTTP requests for the seller inbox.
type NotificationHandler struct {
	service *service.NotificationService
	logger  *slog.Logger
}

// NewNotificationHandler creates a new notification HTTP handler.
func NewNotificationHandler(svc *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: svc, logger: logger}
}

// ListNotifications handles GET /api/v1/notifications/{sellerId}?unread=true
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := pathID(w, r, "sellerId")
	if !ok {
		return
	}
	unread, err := queryBool(r, "unread")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	limit, err := pagination.LimitFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	notes, err := h.service.ListForRecipient(r.Context(), actorFrom(r), sellerID, unread, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items(notes))
}

// MarkRead handles PATCH /api/v1/notifications/mark-read/{id}
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	n, err := h.service.MarkRead(r.Context(), actorFrom(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, n)
}
