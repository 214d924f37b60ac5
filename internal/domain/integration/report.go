package integration

import "time"

// ---------------------------------------------------------------------------
// SyncStatus represents the outcome of an import run
// ---------------------------------------------------------------------------

// SyncStatus represents the synchronization status
type SyncStatus string

const (
	// SyncStatusInProgress indicates the run is in progress
	SyncStatusInProgress SyncStatus = "IN_PROGRESS"
	// SyncStatusSuccess indicates every product was processed
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates some products failed
	SyncStatusPartial SyncStatus = "PARTIAL"
	// SyncStatusFailed indicates every product failed
	SyncStatusFailed SyncStatus = "FAILED"
)

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// ImportReport
// ---------------------------------------------------------------------------

// ImportReport is the result of transforming a batch of raw products
type ImportReport struct {
	// RunID identifies the run in logs and traces
	RunID string
	// Status is the overall status
	Status SyncStatus
	// TotalCount is the number of products in the batch
	TotalCount int
	// SuccessCount is the number of products that produced objects
	SuccessCount int
	// SkippedCount is the number of products that were skipped silently
	SkippedCount int
	// FailedCount is the number of products that failed
	FailedCount int
	// Failures contains details about failed products
	Failures []ProductFailure
	// Results contains all produced objects, in build order
	Results *ResultSet
	// StartedAt is when the run started
	StartedAt time.Time
	// FinishedAt is when the run completed
	FinishedAt time.Time
}

// ProductFailure describes a product whose transformation failed
type ProductFailure struct {
	// ProductID is the platform product ID
	ProductID int
	// ErrorCode is a short machine readable code
	ErrorCode string
	// ErrorMessage is the error description
	ErrorMessage string
}

// Finish sets the final status and completion time
func (r *ImportReport) Finish(now time.Time) {
	r.FinishedAt = now
	switch {
	case r.FailedCount == 0:
		r.Status = SyncStatusSuccess
	case r.SuccessCount > 0 || r.SkippedCount > 0:
		r.Status = SyncStatusPartial
	default:
		r.Status = SyncStatusFailed
	}
}
