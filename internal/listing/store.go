package listing

import (
	"context"
	"fmt"
)

// Store is the persistence port for the catalog. The Postgres implementation
// lives in pgstore.go; MemoryStore backs tests and local runs without a
// database.
type Store interface {
	// ListJobs returns postings joined with their category name, newest id
	// first. A non-nil categoryID narrows the result server-side with an
	// equality predicate.
	ListJobs(ctx context.Context, categoryID *int64) ([]JobPosting, error)
	GetJob(ctx context.Context, id int64) (*JobPosting, error)

	// InsertJob persists a new posting and returns its assigned id.
	InsertJob(ctx context.Context, j *JobPosting) (int64, error)
	// UpdateJob persists all mutable fields of an existing posting.
	// Returns ErrNotFound when no row matches j.ID.
	UpdateJob(ctx context.Context, j *JobPosting) error

	// ListCategories returns all categories sorted by name ascending.
	ListCategories(ctx context.Context) ([]Category, error)

	// ListArticles returns all articles sorted by date_posted descending.
	ListArticles(ctx context.Context) ([]Article, error)
	GetArticle(ctx context.Context, id int64) (*Article, error)
}

// ErrNotFound is returned when a posting or article is missing.
var ErrNotFound = fmt.Errorf("record not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// PersistError marks a write rejected by the store. The enclosing form state
// is expected to be retained by the caller so the user can retry.
type PersistError struct{ Err error }

func (e *PersistError) Error() string { return fmt.Sprintf("write rejected: %v", e.Err) }
func (e *PersistError) Unwrap() error { return e.Err }
