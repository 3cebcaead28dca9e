package handler

import (
	"net/http"
	"strconv"

	"github.com/finlend/origination-engine/internal/service"
	"github.com/finlend/origination-engine/pkg/response"

	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	service *service.NotificationService
}

func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List handles GET /api/v1/notifications for the acting user
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.service.ListForUser(r.Context(), ActorFrom(r).UID, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, notifications)
}

// MarkRead handles PATCH /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkRead(r.Context(), ActorFrom(r).UID, mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, map[string]bool{"read": true})
}
