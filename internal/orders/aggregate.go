package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Totals is the aggregate of an order's lines.
type Totals struct {
	ItemsCount int             `json:"total_items_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Recalculate recomputes an order's totals from its current lines and stores
// the item count. It must run on the transaction that changed the lines,
// after the change, so it sees the write. The price total is never stored;
// it is derived from the lines on every read.
func Recalculate(ctx context.Context, repo Repository, orderID uuid.UUID) (Totals, error) {
	totals, err := repo.ItemTotals(ctx, orderID)
	if err != nil {
		return Totals{}, err
	}
	if err := repo.UpdateItemsCount(ctx, orderID, totals.ItemsCount); err != nil {
		return Totals{}, err
	}
	return totals, nil
}
