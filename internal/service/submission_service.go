//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package service

import (
	"context"
	"fmt"

	"snipbox/backend/internal/model"
	"snipbox/backend/internal/repository"
	"snipbox/backend/pkg/logger"
	"snipbox/backend/pkg/validation"
)

const (
	DefaultPageLimit = 10
	MinPageLimit     = 1
	MaxPageLimit     = 100
)

type SubmissionService interface {
	Create(ctx context.Context, text string) (model.Submission, error)
	List(ctx context.Context, params ListParams) (Page, error)
	Ping(ctx context.Context) error
}

// ListParams selects a page. Limit must be within [MinPageLimit, MaxPageLimit];
// Cursor is the NextCursor of the previous page, nil for the first page.
type ListParams struct {
	Limit  int
	Cursor *int64
}

// Page is one slice of the listing. NextCursor is nil when the listing is exhausted.
type Page struct {
	Items      []model.Submission
	NextCursor *int64
}

type submissionService struct {
	submissions repository.SubmissionRepository
}

func NewSubmissionService(submissions repository.SubmissionRepository) SubmissionService {
	return &submissionService{submissions: submissions}
}

// Create stores text exactly as given. validation.Text is the only rule applied, the same one
// the client checks before sending.
func (s *submissionService) Create(ctx context.Context, text string) (model.Submission, error) {
	if err := validation.Text(text); err != nil {
		return model.Submission{}, &ValidationError{Field: "text", Err: err}
	}

	submission, err := s.submissions.Create(ctx, text)
	if err != nil {
		return model.Submission{}, &StoreError{Op: "create submission", Err: err}
	}
	logger.Debug("submission created", "id", submission.ID, "length", validation.Length(text))
	return submission, nil
}

func (s *submissionService) List(ctx context.Context, params ListParams) (Page, error) {
	if params.Limit < MinPageLimit || params.Limit > MaxPageLimit {
		return Page{}, &ValidationError{
			Field: "limit",
			Err:   fmt.Errorf("must be between %d and %d, got %d", MinPageLimit, MaxPageLimit, params.Limit),
		}
	}

	// One extra row tells whether another page exists.
	rows, err := s.submissions.ListBefore(ctx, params.Cursor, params.Limit+1)
	if err != nil {
		return Page{}, &StoreError{Op: "list submissions", Err: err}
	}
	return paginate(rows, params.Limit), nil
}

// paginate trims a limit+1 probe to a page. The returned cursor is the id of the last kept
// row: the next page is everything strictly below it, which starts at the trimmed row.
func paginate(rows []model.Submission, limit int) Page {
	if len(rows) <= limit {
		return Page{Items: rows}
	}
	items := rows[:limit]
	next := items[len(items)-1].ID
	return Page{Items: items, NextCursor: &next}
}

func (s *submissionService) Ping(ctx context.Context) error {
	if err := s.submissions.Ping(ctx); err != nil {
		return &StoreError{Op: "ping store", Err: err}
	}
	return nil
}
