package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// LineRequest describes a single order line of the accrual payload.
type LineRequest struct {
	ProductID  int64           `json:"product_id"`
	CategoryID *int64          `json:"category_id,omitempty"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// AccrualRequest describes a finalized order submitted for crediting.
type AccrualRequest struct {
	UserID   int64           `json:"user_id"`
	OrderID  int64           `json:"order_id"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Lines    []LineRequest   `json:"lines"`
}

// Snapshot converts request into domain order snapshot.
func (r AccrualRequest) Snapshot() model.OrderSnapshot {
	lines := make([]model.OrderLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, model.OrderLine{
			ProductID:  l.ProductID,
			CategoryID: l.CategoryID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		})
	}
	return model.OrderSnapshot{
		UserID:   r.UserID,
		OrderID:  r.OrderID,
		Subtotal: r.Subtotal,
		Lines:    lines,
	}
}

// LedgerEntryResponse describes a credited order.
type LedgerEntryResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	OrderID   int64     `json:"order_id"`
	Points    int64     `json:"points"`
	EarnedAt  time.Time `json:"earned_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsUsed    bool      `json:"is_used"`
}

// NewLedgerEntryResponse maps ledger entry to its JSON form.
func NewLedgerEntryResponse(entry model.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:        entry.ID,
		UserID:    entry.UserID,
		OrderID:   entry.OrderID,
		Points:    entry.Points,
		EarnedAt:  entry.EarnedAt,
		ExpiresAt: entry.ExpiresAt,
		IsUsed:    entry.IsUsed,
	}
}
