package http

import (
	"encoding/json"
	"log"
	"net/http"

	"centavo/internal/domain/notification"
)

type NotificationHandler struct {
	service *notification.Service
}

func NewNotificationHandler(service *notification.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

type RegisterTokenRequest struct {
	Token string `json:"token"`
}

// HandleRegisterToken serves POST /api/device-tokens.
func (h *NotificationHandler) HandleRegisterToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding register token request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	if err := h.service.RegisterToken(r.Context(), req.Token); err != nil {
		log.Printf("Error registering device token: %v", err)
		http.Error(w, "Failed to register device token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
