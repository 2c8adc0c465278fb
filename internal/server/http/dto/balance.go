package dto

import "time"

// BalanceResponse represents spendable points at a point in time.
type BalanceResponse struct {
	Available int64     `json:"available"`
	AsOf      time.Time `json:"as_of"`
}
