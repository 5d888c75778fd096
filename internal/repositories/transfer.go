package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/shared"
)

const transferColumns = `id, sequence, photo_uid, photo_title, file_name, album_id, bytes, status,
	stage, error_message, started_at, completed_at, created_at, deleted_at`

// TransferRepository implements models.Repository[*models.TransferRecord] for the transfer history.
//
// Handles transfer record CRUD operations with soft delete support and status-based queries.
type TransferRepository struct {
	db *sql.DB
}

// NewTransferRepository creates a new TransferRepository with the given database connection
func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a new transfer record into the database with generated ID and sequence
func (r *TransferRepository) Create(rec *models.TransferRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "transfers")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO transfers (id, sequence, photo_uid, photo_title, file_name, album_id, bytes, status,
			stage, error_message, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		rec.PhotoUID(),
		rec.PhotoTitle(),
		rec.FileName(),
		rec.AlbumID(),
		rec.Bytes(),
		string(rec.Status()),
		nullString(rec.Stage()),
		nullString(rec.ErrorMessage()),
		rec.StartedAt(),
		rec.CompletedAt(),
		rec.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer: %w", err)
	}

	rec.SetID(id)
	rec.SetSequence(sequence)
	return nil
}

// Get retrieves a transfer record by ID, excluding soft-deleted records
func (r *TransferRepository) Get(id string) (*models.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = ? AND deleted_at IS NULL`

	rec, err := scanTransfer(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transfer not found: %s", id)
	}
	return rec, err
}

// Update writes the outcome of a transfer: file name, bytes, status, stage, error and completion time
func (r *TransferRepository) Update(rec *models.TransferRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE transfers
		SET file_name = ?, bytes = ?, status = ?, stage = ?, error_message = ?, completed_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		rec.FileName(),
		rec.Bytes(),
		string(rec.Status()),
		nullString(rec.Stage()),
		nullString(rec.ErrorMessage()),
		rec.CompletedAt(),
		rec.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transfer not found or already deleted: %s", rec.ID())
	}

	rec.SetUpdatedAt(time.Now())
	return nil
}

// Delete soft-deletes a transfer record by ID
func (r *TransferRepository) Delete(id string) error {
	query := `
		UPDATE transfers
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transfer not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves transfer records newest first, excluding soft-deleted records.
//
// Supported criteria: "status" (string), "photo_uid" (string) and "limit" (int).
func (r *TransferRepository) List(criteria map[string]any) ([]*models.TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE deleted_at IS NULL`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if uid, ok := criteria["photo_uid"].(string); ok && uid != "" {
		query += " AND photo_uid = ?"
		args = append(args, uid)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var records []*models.TransferRecord
	for rows.Next() {
		rec, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

// scanTransfer scans one row into a [models.TransferRecord]. [sql.ErrNoRows] is returned unwrapped.
func scanTransfer(s scanner) (*models.TransferRecord, error) {
	var (
		id           string
		sequence     int
		photoUID     string
		photoTitle   string
		fileName     string
		albumID      string
		bytes        int64
		status       string
		stage        sql.NullString
		errorMessage sql.NullString
		startedAt    time.Time
		completedAt  sql.NullTime
		createdAt    time.Time
		deletedAt    sql.NullTime
	)

	err := s.Scan(&id, &sequence, &photoUID, &photoTitle, &fileName, &albumID, &bytes, &status,
		&stage, &errorMessage, &startedAt, &completedAt, &createdAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transfer: %w", err)
	}

	rec := models.NewTransferRecord(models.Photo{UID: photoUID, Title: photoTitle}, albumID)
	rec.SetID(id)
	rec.SetSequence(sequence)
	rec.SetFileName(fileName)

	var completed *time.Time
	if completedAt.Valid {
		completed = &completedAt.Time
	}
	rec.Restore(models.TransferStatus(status), bytes, stage.String, errorMessage.String, startedAt, createdAt, completed)

	if completed != nil {
		rec.SetUpdatedAt(*completed)
	} else {
		rec.SetUpdatedAt(createdAt)
	}
	if deletedAt.Valid {
		rec.SetDeletedAt(&deletedAt.Time)
	}

	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ models.Repository[*models.TransferRecord] = (*TransferRepository)(nil)
