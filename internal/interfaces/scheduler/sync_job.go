package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"centavo/internal/domain/plaidsync"
)

// ItemSyncJob syncs one item's accounts and transactions from the feed.
type ItemSyncJob struct {
	itemID      string
	syncService *plaidsync.Service
}

func NewItemSyncJob(itemID string, syncService *plaidsync.Service) *ItemSyncJob {
	return &ItemSyncJob{
		itemID:      itemID,
		syncService: syncService,
	}
}

// Execute runs the sync. A login-required item is logged but not treated as
// a job failure: retrying cannot fix it, only the user re-linking can.
func (j *ItemSyncJob) Execute(ctx context.Context) error {
	result, err := j.syncService.SyncItem(ctx, j.itemID)
	if errors.Is(err, plaidsync.ErrItemLoginRequired) {
		log.Printf("Item %s: skipping scheduled sync, re-authentication required", j.itemID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	log.Printf("Item %s: scheduled sync done - added=%d, modified=%d, removed=%d",
		j.itemID, result.Stats.TransactionsAdded, result.Stats.TransactionsModified,
		result.Stats.TransactionsRemoved)

	return nil
}

func (j *ItemSyncJob) ItemID() string {
	return j.itemID
}

func (j *ItemSyncJob) Description() string {
	return fmt.Sprintf("Transaction sync for item %s", j.itemID)
}
