package notification

import (
	"context"
	"fmt"
	"log"
)

// Service fans sync events out to registered devices. All methods are
// best-effort: a failed push never fails the sync that triggered it.
type Service struct {
	repo      Repository
	messenger Messenger
}

func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// RegisterToken stores a device token for future pushes.
func (s *Service) RegisterToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}
	return s.repo.Register(ctx, token)
}

// SendItemLoginRequired notifies that an item's credentials were rejected
// and the connection must be re-linked.
func (s *Service) SendItemLoginRequired(ctx context.Context, itemID string, institution string) {
	title := "Bank connection needs attention"
	body := fmt.Sprintf("%s needs to be re-linked before transactions can sync again.", institution)
	s.broadcast(ctx, title, body, map[string]string{
		"type":   "item_login_required",
		"itemId": itemID,
	})
}

// SendSignChangeAlert flags a transaction whose amount sign flipped between
// sync passes, a known feed inconsistency worth a human look.
func (s *Service) SendSignChangeAlert(ctx context.Context, transactionID string, name string) {
	title := "Transaction amount flipped sign"
	body := fmt.Sprintf("%q changed between expense and income during sync.", name)
	s.broadcast(ctx, title, body, map[string]string{
		"type":          "sign_change",
		"transactionId": transactionID,
	})
}

func (s *Service) broadcast(ctx context.Context, title, body string, data map[string]string) {
	if s == nil || s.messenger == nil {
		return
	}

	tokens, err := s.repo.ListActiveTokens(ctx)
	if err != nil {
		log.Printf("Notification: failed to list device tokens: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	if err := s.messenger.SendMulticast(ctx, tokens, title, body, data); err != nil {
		log.Printf("Notification: failed to send %q: %v", title, err)
	}
}
