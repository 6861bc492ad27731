package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"centavo/internal/domain/item"
)

type ItemHandler struct {
	itemRepo item.Repository
}

func NewItemHandler(itemRepo item.Repository) *ItemHandler {
	return &ItemHandler{itemRepo: itemRepo}
}

type CreateItemRequest struct {
	ID              string  `json:"id"`
	AccessToken     string  `json:"accessToken"`
	InstitutionName *string `json:"institutionName,omitempty"`
}

// HandleItems serves /api/items: GET lists linked items, POST links a new one.
func (h *ItemHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listItems(w, r)
	case http.MethodPost:
		h.createItem(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ItemHandler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemRepo.List(r.Context())
	if err != nil {
		log.Printf("Error listing items: %v", err)
		http.Error(w, "Failed to list items", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *ItemHandler) createItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding create item request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ID == "" || req.AccessToken == "" {
		http.Error(w, "id and accessToken are required", http.StatusBadRequest)
		return
	}

	created, err := h.itemRepo.Create(r.Context(), item.CreateParams{
		ID:              req.ID,
		AccessToken:     req.AccessToken,
		InstitutionName: req.InstitutionName,
	})
	if err != nil {
		log.Printf("Error creating item %s: %v", req.ID, err)
		http.Error(w, "Failed to create item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// HandleItemByID serves /api/items/{id}: GET and DELETE.
func (h *ItemHandler) HandleItemByID(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimPrefix(r.URL.Path, "/api/items/")
	if itemID == "" || strings.Contains(itemID, "/") {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getItem(w, r, itemID)
	case http.MethodDelete:
		h.deleteItem(w, r, itemID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ItemHandler) getItem(w http.ResponseWriter, r *http.Request, itemID string) {
	it, err := h.itemRepo.GetByID(r.Context(), itemID)
	if errors.Is(err, item.ErrItemNotFound) {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error getting item %s: %v", itemID, err)
		http.Error(w, "Failed to get item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(it)
}

func (h *ItemHandler) deleteItem(w http.ResponseWriter, r *http.Request, itemID string) {
	err := h.itemRepo.Delete(r.Context(), itemID)
	if errors.Is(err, item.ErrItemNotFound) {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error deleting item %s: %v", itemID, err)
		http.Error(w, "Failed to delete item", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
