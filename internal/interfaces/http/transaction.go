package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"centavo/internal/domain/transaction"
)

type TransactionHandler struct {
	transactionRepo transaction.Repository
	splitService    *transaction.SplitService
}

func NewTransactionHandler(transactionRepo transaction.Repository, splitService *transaction.SplitService) *TransactionHandler {
	return &TransactionHandler{
		transactionRepo: transactionRepo,
		splitService:    splitService,
	}
}

// HandleListTransactions returns transactions for a specific account.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		http.Error(w, "accountId is required", http.StatusBadRequest)
		return
	}

	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsedOffset, err := strconv.Atoi(offsetStr); err == nil && parsedOffset >= 0 {
			offset = parsedOffset
		}
	}

	transactions, err := h.transactionRepo.ListByAccountID(r.Context(), accountID, limit, offset)
	if err != nil {
		log.Printf("Error listing transactions for account %s: %v", accountID, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}

// HandleTransactionByID routes /api/transactions/{id} and its subpaths.
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if rest == "" {
		http.Error(w, "Transaction ID is required", http.StatusBadRequest)
		return
	}

	if transactionID, ok := strings.CutSuffix(rest, "/split"); ok {
		h.splitTransaction(w, r, transactionID)
		return
	}
	if transactionID, ok := strings.CutSuffix(rest, "/children"); ok {
		h.listChildren(w, r, transactionID)
		return
	}

	if strings.Contains(rest, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getTransaction(w, r, rest)
	case http.MethodPatch:
		h.updateTransaction(w, r, rest)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) getTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	tx, err := h.transactionRepo.GetByID(r.Context(), transactionID)
	if err != nil {
		log.Printf("Error getting transaction %s: %v", transactionID, err)
		http.Error(w, "Failed to get transaction", http.StatusInternalServerError)
		return
	}
	if tx == nil {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

type UpdateTransactionRequest struct {
	CategoryID    *string `json:"categoryId,omitempty"`
	SubcategoryID *string `json:"subcategoryId,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// updateTransaction applies user edits. These fields belong to the user and
// survive every sync pass.
func (h *TransactionHandler) updateTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding update transaction request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.transactionRepo.UpdateUserFields(r.Context(), transactionID, transaction.UserUpdateParams{
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Notes:         req.Notes,
	})
	if errors.Is(err, transaction.ErrTransactionNotFound) {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error updating transaction %s: %v", transactionID, err)
		http.Error(w, "Failed to update transaction", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

type SplitTransactionRequest struct {
	Parts []transaction.SplitPart `json:"parts"`
}

func (h *TransactionHandler) splitTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SplitTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding split request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	children, err := h.splitService.Split(r.Context(), transactionID, req.Parts)
	switch {
	case errors.Is(err, transaction.ErrTransactionNotFound):
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	case errors.Is(err, transaction.ErrTooFewSplitParts),
		errors.Is(err, transaction.ErrAlreadySplit),
		errors.Is(err, transaction.ErrSplitChild),
		errors.Is(err, transaction.ErrSplitAmountMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Printf("Error splitting transaction %s: %v", transactionID, err)
		http.Error(w, "Failed to split transaction", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(children)
}

func (h *TransactionHandler) listChildren(w http.ResponseWriter, r *http.Request, transactionID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	children, err := h.transactionRepo.ListChildren(r.Context(), transactionID)
	if err != nil {
		log.Printf("Error listing children of transaction %s: %v", transactionID, err)
		http.Error(w, "Failed to list split children", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(children)
}
