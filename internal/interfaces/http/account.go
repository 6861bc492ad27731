package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"centavo/internal/domain/account"
)

type AccountHandler struct {
	accountRepo account.Repository
}

func NewAccountHandler(accountRepo account.Repository) *AccountHandler {
	return &AccountHandler{accountRepo: accountRepo}
}

// HandleListAccounts returns all accounts, or the accounts under one item
// when ?itemId= is given.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		accounts []*account.Account
		err      error
	)
	if itemID := r.URL.Query().Get("itemId"); itemID != "" {
		accounts, err = h.accountRepo.ListByItemID(r.Context(), itemID)
	} else {
		accounts, err = h.accountRepo.List(r.Context())
	}
	if err != nil {
		log.Printf("Error listing accounts: %v", err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}

type RenameAccountRequest struct {
	Name string `json:"name"`
}

// HandleAccountByID serves /api/accounts/{id}: GET returns one account,
// PATCH renames it. The rename sticks: feed re-syncs never overwrite it.
func (h *AccountHandler) HandleAccountByID(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimPrefix(r.URL.Path, "/api/accounts/")
	if accountID == "" || strings.Contains(accountID, "/") {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getAccount(w, r, accountID)
	case http.MethodPatch:
		h.renameAccount(w, r, accountID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccountHandler) getAccount(w http.ResponseWriter, r *http.Request, accountID string) {
	acc, err := h.accountRepo.GetByID(r.Context(), accountID)
	if errors.Is(err, account.ErrAccountNotFound) {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error getting account %s: %v", accountID, err)
		http.Error(w, "Failed to get account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acc)
}

func (h *AccountHandler) renameAccount(w http.ResponseWriter, r *http.Request, accountID string) {
	var req RenameAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding rename account request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	acc, err := h.accountRepo.UpdateName(r.Context(), accountID, req.Name)
	if errors.Is(err, account.ErrAccountNotFound) {
		http.Error(w, "Account not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error renaming account %s: %v", accountID, err)
		http.Error(w, "Failed to rename account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acc)
}
