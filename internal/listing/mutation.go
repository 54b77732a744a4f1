package listing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"carikerja/listing-service/internal/storage"
)

// JobForm carries the admin form fields for a create or update. CategoryID is
// the raw form value: blank means uncategorized.
type JobForm struct {
	Title       string
	Company     string
	Location    string
	Description string
	ApplyLink   string
	CategoryID  string
	JobType     string
}

// MutationService orchestrates the admin create/update workflow: upload
// poster files first, then persist the record referencing their URLs, then
// refetch the authoritative collection. There is no optimistic local merge.
type MutationService struct {
	store    Store
	uploader *storage.Uploader
	engine   *QueryEngine
	rdb      *redis.Client
	logger   *slog.Logger
}

// NewMutationService returns a configured MutationService. rdb may be nil;
// mutation events are then not published.
func NewMutationService(store Store, uploader *storage.Uploader, engine *QueryEngine, rdb *redis.Client, logger *slog.Logger) *MutationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MutationService{store: store, uploader: uploader, engine: engine, rdb: rdb, logger: logger}
}

// CreateJob uploads the poster files (if any) and inserts a new posting whose
// poster list is exactly the upload result.
func (m *MutationService) CreateJob(ctx context.Context, form JobForm, files []storage.File) (*JobPosting, error) {
	j, err := m.postingFromForm(form)
	if err != nil {
		return nil, err
	}

	urls, err := m.uploader.Upload(ctx, files)
	if err != nil {
		return nil, err
	}
	j.PosterURLs = urls

	id, err := m.store.InsertJob(ctx, j)
	if err != nil {
		return nil, &PersistError{Err: err}
	}
	j.ID = id

	m.publish(ctx, "EVENT_JOB_CREATED", id)
	m.refetch(ctx)

	if stored, err := m.store.GetJob(ctx, id); err == nil {
		return stored, nil
	}
	return j, nil
}

// UpdateJob persists all mutable fields of an existing posting. Newly
// uploaded poster URLs are appended to the list already on the record, read
// immediately before the mutation; the list never shrinks.
func (m *MutationService) UpdateJob(ctx context.Context, id int64, form JobForm, files []storage.File) (*JobPosting, error) {
	existing, err := m.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	j, err := m.postingFromForm(form)
	if err != nil {
		return nil, err
	}
	j.ID = id

	urls, err := m.uploader.Upload(ctx, files)
	if err != nil {
		return nil, err
	}
	j.PosterURLs = append(append([]string{}, existing.PosterURLs...), urls...)

	if err := m.store.UpdateJob(ctx, j); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistError{Err: err}
	}

	m.publish(ctx, "EVENT_JOB_UPDATED", id)
	m.refetch(ctx)

	if stored, err := m.store.GetJob(ctx, id); err == nil {
		return stored, nil
	}
	return j, nil
}

// postingFromForm validates the form and maps it to a posting.
func (m *MutationService) postingFromForm(form JobForm) (*JobPosting, error) {
	if strings.TrimSpace(form.Title) == "" ||
		strings.TrimSpace(form.Company) == "" ||
		strings.TrimSpace(form.ApplyLink) == "" {
		return nil, &ValidationError{Msg: "title, company and apply link are required"}
	}

	jobType, err := ParseJobType(form.JobType)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	categoryID, err := parseCategoryID(form.CategoryID)
	if err != nil {
		return nil, err
	}

	return &JobPosting{
		Title:       form.Title,
		Company:     form.Company,
		Location:    form.Location,
		JobType:     jobType,
		Description: form.Description,
		ApplyLink:   form.ApplyLink,
		CategoryID:  categoryID,
		PosterURLs:  []string{},
	}, nil
}

// parseCategoryID maps the raw form value to a nullable id.
func parseCategoryID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &ValidationError{Msg: "category id must be an integer"}
	}
	return &id, nil
}

// publish emits a mutation event for SSE forwarding (non-fatal).
func (m *MutationService) publish(ctx context.Context, event string, jobID int64) {
	if m.rdb == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"type": event, "jobId": jobID})
	if err := m.rdb.Publish(ctx, event, payload).Err(); err != nil {
		m.logger.Warn("publish failed", "event", event, "err", err)
	}
}

// refetch refreshes the engine-owned posting collection after a successful
// write. A failed refetch only leaves stale data behind; the write stands.
func (m *MutationService) refetch(ctx context.Context) {
	if m.engine == nil {
		return
	}
	if _, err := m.engine.FetchPostings(ctx, nil); err != nil && !errors.Is(err, ErrSuperseded) {
		m.logger.Warn("post-mutation refetch failed", "err", err)
	}
}
