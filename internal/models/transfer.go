package models

import (
	"fmt"
	"time"
)

// TransferStatus is the lifecycle state of a [TransferRecord].
type TransferStatus string

const (
	TransferRunning   TransferStatus = "running"
	TransferSucceeded TransferStatus = "succeeded"
	TransferFailed    TransferStatus = "failed"
)

// TransferRecord is the audit row written for one single-photo transfer attempt.
//
// Records are history only. They are never replayed.
type TransferRecord struct {
	id           string
	sequence     int
	photoUID     string
	photoTitle   string
	fileName     string
	albumID      string
	bytes        int64
	status       TransferStatus
	stage        string
	errorMessage string
	startedAt    time.Time
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewTransferRecord starts a running record for photo into albumID ("" means root).
func NewTransferRecord(photo Photo, albumID string) *TransferRecord {
	now := time.Now()
	return &TransferRecord{
		photoUID:   photo.UID,
		photoTitle: photo.Title,
		albumID:    albumID,
		status:     TransferRunning,
		startedAt:  now,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (t *TransferRecord) ID() string                 { return t.id }
func (t *TransferRecord) Sequence() int              { return t.sequence }
func (t *TransferRecord) PhotoUID() string           { return t.photoUID }
func (t *TransferRecord) PhotoTitle() string         { return t.photoTitle }
func (t *TransferRecord) FileName() string           { return t.fileName }
func (t *TransferRecord) AlbumID() string            { return t.albumID }
func (t *TransferRecord) Bytes() int64               { return t.bytes }
func (t *TransferRecord) Status() TransferStatus     { return t.status }
func (t *TransferRecord) Stage() string              { return t.stage }
func (t *TransferRecord) ErrorMessage() string       { return t.errorMessage }
func (t *TransferRecord) StartedAt() time.Time       { return t.startedAt }
func (t *TransferRecord) CompletedAt() *time.Time    { return t.completedAt }
func (t *TransferRecord) CreatedAt() time.Time       { return t.createdAt }
func (t *TransferRecord) UpdatedAt() time.Time       { return t.updatedAt }
func (t *TransferRecord) DeletedAt() *time.Time      { return t.deletedAt }
func (t *TransferRecord) SetID(id string)            { t.id = id }
func (t *TransferRecord) SetSequence(seq int)        { t.sequence = seq }
func (t *TransferRecord) SetFileName(name string)    { t.fileName = name }
func (t *TransferRecord) SetUpdatedAt(ts time.Time)  { t.updatedAt = ts }
func (t *TransferRecord) SetDeletedAt(ts *time.Time) { t.deletedAt = ts }

// MarkSucceeded completes the record with the number of bytes moved.
func (t *TransferRecord) MarkSucceeded(n int64) {
	now := time.Now()
	t.bytes = n
	t.status = TransferSucceeded
	t.stage = ""
	t.errorMessage = ""
	t.completedAt = &now
}

// MarkFailed completes the record with the failing stage and message.
func (t *TransferRecord) MarkFailed(stage, message string) {
	now := time.Now()
	t.status = TransferFailed
	t.stage = stage
	t.errorMessage = message
	t.completedAt = &now
}

// Restore sets the persisted fields when scanning a row.
func (t *TransferRecord) Restore(status TransferStatus, bytes int64, stage, message string, startedAt, createdAt time.Time, completedAt *time.Time) {
	t.status = status
	t.bytes = bytes
	t.stage = stage
	t.errorMessage = message
	t.startedAt = startedAt
	t.createdAt = createdAt
	t.completedAt = completedAt
}

// Validate checks required fields and status consistency.
func (t *TransferRecord) Validate() error {
	if t.photoUID == "" {
		return fmt.Errorf("photo uid is required")
	}

	switch t.status {
	case TransferRunning:
	case TransferSucceeded, TransferFailed:
		if t.completedAt == nil {
			return fmt.Errorf("completed transfer requires completed_at")
		}
	default:
		return fmt.Errorf("invalid transfer status: %q", t.status)
	}

	return nil
}

var _ Model = (*TransferRecord)(nil)
