package plaidsync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"centavo/internal/domain/item"
	"centavo/internal/domain/notification"
	"centavo/internal/infrastructure/plaid"
)

// ErrItemLoginRequired is returned when the provider rejects the item's
// access token. The item has been flagged and needs re-linking.
var ErrItemLoginRequired = errors.New("item requires re-authentication")

// Service wraps the sync engine with item bookkeeping: it loads the item,
// runs the engine, and persists the resulting cursor and status.
type Service struct {
	engine        *TransactionSyncEngine
	itemRepo      item.Repository
	notifications *notification.Service

	mu        sync.Mutex
	itemLocks map[string]*sync.Mutex
}

// NewService creates a sync service. notifications may be nil.
func NewService(engine *TransactionSyncEngine, itemRepo item.Repository, notifications *notification.Service) *Service {
	return &Service{
		engine:        engine,
		itemRepo:      itemRepo,
		notifications: notifications,
		itemLocks:     make(map[string]*sync.Mutex),
	}
}

// SyncItem runs one full sync pass for the item. Calls for the same item are
// serialized: two concurrent triggers run one after the other, and the
// second starts from the cursor the first persisted.
func (s *Service) SyncItem(ctx context.Context, itemID string) (*SyncResult, error) {
	lock := s.lockFor(itemID)
	lock.Lock()
	defer lock.Unlock()

	it, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", itemID, err)
	}

	result, err := s.engine.SyncItemTransactions(ctx, it.ID, it.AccessToken, it.SyncCursor)
	if err != nil {
		var apiErr *plaid.APIError
		if errors.As(err, &apiErr) && apiErr.IsLoginRequired() {
			log.Printf("Item %s: provider rejected access token, flagging for re-link", itemID)
			if uerr := s.itemRepo.UpdateStatus(ctx, itemID, item.StatusLoginRequired); uerr != nil {
				log.Printf("Item %s: failed to update status: %v", itemID, uerr)
			}
			s.notifications.SendItemLoginRequired(ctx, itemID, institutionName(it))
			return nil, ErrItemLoginRequired
		}
		return nil, err
	}

	// The cursor only advances after every page was applied. Losing this
	// write means the next sync replays pages, which the idempotent writes
	// absorb.
	if err := s.itemRepo.UpdateCursor(ctx, itemID, result.NewCursor); err != nil {
		return nil, fmt.Errorf("sync finished but cursor was not persisted: %w", err)
	}

	if it.Status != item.StatusGood {
		if uerr := s.itemRepo.UpdateStatus(ctx, itemID, item.StatusGood); uerr != nil {
			log.Printf("Item %s: failed to restore status: %v", itemID, uerr)
		}
	}

	return result, nil
}

// SyncAllItems syncs every item in turn. One failing item is logged and
// skipped so the rest still sync; the error returned reflects only whether
// the item list itself could be loaded.
func (s *Service) SyncAllItems(ctx context.Context) ([]*SyncResult, error) {
	items, err := s.itemRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	results := make([]*SyncResult, 0, len(items))
	for _, it := range items {
		result, err := s.SyncItem(ctx, it.ID)
		if err != nil {
			log.Printf("Item %s: sync failed: %v", it.ID, err)
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

func (s *Service) lockFor(itemID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.itemLocks[itemID]
	if !ok {
		lock = &sync.Mutex{}
		s.itemLocks[itemID] = lock
	}
	return lock
}

func institutionName(it *item.Item) string {
	if it.InstitutionName != nil {
		return *it.InstitutionName
	}
	return "A bank connection"
}
