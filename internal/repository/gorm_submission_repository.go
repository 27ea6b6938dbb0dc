package repository

import (
	"context"

	"gorm.io/gorm"

	"snipbox/backend/internal/db"
	"snipbox/backend/internal/model"
	"snipbox/backend/pkg/snowflake"
)

type gormSubmissionRepository struct {
	db *gorm.DB
}

// NewGormSubmissionRepository creates a submission repository on top of GORM (PostgreSQL).
func NewGormSubmissionRepository(gdb *gorm.DB) SubmissionRepository {
	return &gormSubmissionRepository{db: gdb}
}

func (r *gormSubmissionRepository) Create(ctx context.Context, text string) (model.Submission, error) {
	id := snowflake.NextID()
	record := db.SubmissionRecord{
		ID:        id,
		Text:      text,
		CreatedAt: snowflake.Time(id),
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return model.Submission{}, err
	}
	return toSubmission(record), nil
}

func (r *gormSubmissionRepository) ListBefore(ctx context.Context, cursor *int64, limit int) ([]model.Submission, error) {
	query := r.db.WithContext(ctx).Model(&db.SubmissionRecord{})
	if cursor != nil {
		query = query.Where("id < ?", *cursor)
	}

	var records []db.SubmissionRecord
	if err := query.Order("id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}

	submissions := make([]model.Submission, 0, len(records))
	for _, record := range records {
		submissions = append(submissions, toSubmission(record))
	}
	return submissions, nil
}

func (r *gormSubmissionRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toSubmission(record db.SubmissionRecord) model.Submission {
	return model.Submission{
		ID:        record.ID,
		Text:      record.Text,
		CreatedAt: record.CreatedAt.UTC(),
	}
}
