package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"centavo/internal/domain/item"
	"centavo/internal/domain/plaidsync"
)

type SyncHandler struct {
	syncService *plaidsync.Service
}

func NewSyncHandler(syncService *plaidsync.Service) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// HandleSyncItem serves POST /api/items/{id}/sync: runs one full sync pass
// for the item and returns the stats and new cursor.
func (h *SyncHandler) HandleSyncItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/items/")
	itemID, ok := strings.CutSuffix(path, "/sync")
	if !ok || itemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	result, err := h.syncService.SyncItem(r.Context(), itemID)
	switch {
	case errors.Is(err, item.ErrItemNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	case errors.Is(err, plaidsync.ErrItemLoginRequired):
		http.Error(w, "Item requires re-authentication", http.StatusConflict)
		return
	case err != nil:
		log.Printf("Error syncing item %s: %v", itemID, err)
		http.Error(w, "Sync failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleSyncAll serves POST /api/sync: syncs every linked item.
func (h *SyncHandler) HandleSyncAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	results, err := h.syncService.SyncAllItems(r.Context())
	if err != nil {
		log.Printf("Error syncing items: %v", err)
		http.Error(w, "Sync failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
