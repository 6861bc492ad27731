package main

import (
	"net/http"
	"strings"

	httphandlers "centavo/internal/interfaces/http"
	"centavo/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with
// middleware applied.
func SetupRoutes(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Health check (unauthenticated)
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	authMiddleware := middleware.Auth(deps.TokenVerifier)
	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	mux.Handle("/api/items", protect(deps.ItemHandler.HandleItems))
	mux.Handle("/api/items/", protect(func(w http.ResponseWriter, r *http.Request) {
		// /api/items/{id}/sync belongs to the sync handler, the rest of the
		// subtree to the item handler.
		if strings.HasSuffix(r.URL.Path, "/sync") {
			deps.SyncHandler.HandleSyncItem(w, r)
			return
		}
		deps.ItemHandler.HandleItemByID(w, r)
	}))

	mux.Handle("/api/accounts", protect(deps.AccountHandler.HandleListAccounts))
	mux.Handle("/api/accounts/", protect(deps.AccountHandler.HandleAccountByID))

	mux.Handle("/api/transactions", protect(deps.TransactionHandler.HandleListTransactions))
	mux.Handle("/api/transactions/", protect(deps.TransactionHandler.HandleTransactionByID))

	mux.Handle("/api/sync", protect(deps.SyncHandler.HandleSyncAll))
	mux.Handle("/api/device-tokens", protect(deps.NotificationHandler.HandleRegisterToken))

	return middleware.Logging(middleware.CORS(middleware.Telemetry(mux)))
}
