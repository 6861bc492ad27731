package transaction

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SplitService divides one transaction into several children, each with its
// own categorization. The parent keeps its amount and is flagged is_split;
// from then on the sync engine treats it as guarded (feed modifications only
// touch feed fields, remote removals skip it entirely).
type SplitService struct {
	repo Repository
}

func NewSplitService(repo Repository) *SplitService {
	return &SplitService{repo: repo}
}

// Split creates the children for parentID. Part amounts must sum exactly to
// the parent amount. Returns the created children.
func (s *SplitService) Split(ctx context.Context, parentID string, parts []SplitPart) ([]*Transaction, error) {
	if len(parts) < 2 {
		return nil, ErrTooFewSplitParts
	}

	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if parent == nil {
		return nil, ErrTransactionNotFound
	}
	if parent.IsSplit {
		return nil, ErrAlreadySplit
	}
	if parent.ParentTransactionID != nil {
		return nil, ErrSplitChild
	}

	sum := decimal.Zero
	for _, part := range parts {
		sum = sum.Add(part.Amount)
	}
	if !sum.Equal(parent.Amount) {
		return nil, fmt.Errorf("%w: parts sum to %s, parent is %s",
			ErrSplitAmountMismatch, sum.String(), parent.Amount.String())
	}

	children := make([]*Transaction, 0, len(parts))
	for _, part := range parts {
		name := parent.Name
		if part.Name != nil {
			name = *part.Name
		}

		child, err := s.repo.InsertChild(ctx, CreateChildParams{
			ID:                  uuid.NewString(),
			AccountID:           parent.AccountID,
			ParentTransactionID: parent.ID,
			Amount:              part.Amount,
			Currency:            parent.Currency,
			Date:                parent.Date,
			Name:                name,
			CategoryID:          part.CategoryID,
			SubcategoryID:       part.SubcategoryID,
			Notes:               part.Notes,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create split child: %w", err)
		}
		children = append(children, child)
	}

	if err := s.repo.MarkSplit(ctx, parent.ID); err != nil {
		return nil, fmt.Errorf("failed to mark transaction as split: %w", err)
	}

	log.Printf("Split transaction %s into %d parts", parent.ID, len(children))

	return children, nil
}
