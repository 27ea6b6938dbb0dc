//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"snipbox/backend/internal/model"
	"snipbox/backend/pkg/snowflake"
)

// SubmissionRepository defines the interface for submission storage.
type SubmissionRepository interface {
	// Create inserts a submission, assigning its id and creation time.
	Create(ctx context.Context, text string) (model.Submission, error)
	// ListBefore returns up to limit submissions, newest first. Ids order the listing and
	// a non-nil cursor restricts the result to ids strictly below it.
	ListBefore(ctx context.Context, cursor *int64, limit int) ([]model.Submission, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

type submissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a sqlite-backed submission repository.
func NewSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, text string) (model.Submission, error) {
	return insertSubmission(ctx, r.db, text)
}

func insertSubmission(ctx context.Context, q dbtx, text string) (model.Submission, error) {
	// created_at comes from the id so time order and id order never disagree.
	id := snowflake.NextID()
	createdAt := snowflake.Time(id)

	_, err := q.ExecContext(ctx, `
		INSERT INTO submissions (id, text, created_at)
		VALUES (?, ?, ?)
	`, id, text, formatTime(createdAt))
	if err != nil {
		return model.Submission{}, err
	}

	return model.Submission{ID: id, Text: text, CreatedAt: createdAt}, nil
}

func (r *submissionRepository) ListBefore(ctx context.Context, cursor *int64, limit int) ([]model.Submission, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if cursor == nil {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, text, created_at FROM submissions
			ORDER BY id DESC
			LIMIT ?
		`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, text, created_at FROM submissions
			WHERE id < ?
			ORDER BY id DESC
			LIMIT ?
		`, *cursor, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]model.Submission, 0, limit)
	for rows.Next() {
		var s model.Submission
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Text, &createdAt); err != nil {
			return nil, err
		}
		s.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of submission %d: %w", s.ID, err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

func (r *submissionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
