package model

import "time"

// LedgerEntry records points earned for one order of one user.
type LedgerEntry struct {
	ID        int64
	UserID    int64
	OrderID   int64
	Points    int64
	EarnedAt  time.Time
	ExpiresAt time.Time
	IsUsed    bool
}

// Available reports whether the entry still counts towards the balance at asOf.
func (e LedgerEntry) Available(asOf time.Time) bool {
	return !e.IsUsed && e.ExpiresAt.After(asOf)
}

// LedgerStats summarizes the whole ledger at a point in time.
type LedgerStats struct {
	Entries           int64
	OutstandingPoints int64
	ExpiredPoints     int64
}
