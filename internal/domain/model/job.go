package model

import "time"

// AccrualJobStatus describes retry lifecycle of a queued accrual.
type AccrualJobStatus string

const (
	AccrualJobPending    AccrualJobStatus = "PENDING"
	AccrualJobProcessing AccrualJobStatus = "PROCESSING"
	AccrualJobDone       AccrualJobStatus = "DONE"
	AccrualJobFailed     AccrualJobStatus = "FAILED"
)

// AccrualJob is an order whose accrual has to be retried out of band.
type AccrualJob struct {
	ID        int64
	UserID    int64
	OrderID   int64
	Status    AccrualJobStatus
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}
