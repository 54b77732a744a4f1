package listing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Query keys. Per-category job fetches share keyJobs: a fetch for a new
// category supersedes the in-flight fetch for the previous one.
const (
	keyJobs       = "jobs"
	keyCategories = "categories"
	keyArticles   = "articles"
)

// ErrSuperseded is returned when a fetch completed after a newer fetch for
// the same query key had already been issued. The result is discarded so the
// slower fetch can never overwrite the newer one.
var ErrSuperseded = fmt.Errorf("fetch superseded by a newer request")

// FetchError marks a failed remote read. The engine keeps the previous
// result set in place, so callers typically log it and render stale data.
type FetchError struct{ Err error }

func (e *FetchError) Error() string { return fmt.Sprintf("fetch failed: %v", e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// QueryEngine owns the authoritative in-memory copies of the posting,
// category and article collections. Every fetch is a full refetch; there is
// no delta path. On a failed fetch the previously fetched collection is
// retained and returned alongside the error.
type QueryEngine struct {
	store  Store
	logger *slog.Logger

	mu         sync.Mutex
	jobs       []JobPosting
	categories []Category
	articles   []Article
	gen        map[string]uint64
	inflight   map[string]context.CancelFunc
}

// NewQueryEngine returns a QueryEngine over the given store.
func NewQueryEngine(store Store, logger *slog.Logger) *QueryEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryEngine{
		store:    store,
		logger:   logger,
		gen:      make(map[string]uint64),
		inflight: make(map[string]context.CancelFunc),
	}
}

// FetchPostings refetches the posting collection, optionally narrowed
// server-side to one category. Results arrive newest id first.
func (e *QueryEngine) FetchPostings(ctx context.Context, categoryID *int64) ([]JobPosting, error) {
	fetchCtx, cancel, gen := e.begin(ctx, keyJobs)
	defer cancel()

	jobs, err := e.store.ListJobs(fetchCtx, categoryID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen[keyJobs] != gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		e.logger.Warn("job fetch failed, keeping stale results", "err", err)
		return copyJobs(e.jobs), &FetchError{Err: err}
	}
	e.jobs = jobs
	return copyJobs(jobs), nil
}

// FetchCategories refetches the category collection, sorted by name.
func (e *QueryEngine) FetchCategories(ctx context.Context) ([]Category, error) {
	fetchCtx, cancel, gen := e.begin(ctx, keyCategories)
	defer cancel()

	cats, err := e.store.ListCategories(fetchCtx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen[keyCategories] != gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		e.logger.Warn("category fetch failed, keeping stale results", "err", err)
		return append([]Category(nil), e.categories...), &FetchError{Err: err}
	}
	e.categories = cats
	return append([]Category(nil), cats...), nil
}

// FetchArticles refetches the article collection, newest date_posted first.
func (e *QueryEngine) FetchArticles(ctx context.Context) ([]Article, error) {
	fetchCtx, cancel, gen := e.begin(ctx, keyArticles)
	defer cancel()

	articles, err := e.store.ListArticles(fetchCtx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen[keyArticles] != gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		e.logger.Warn("article fetch failed, keeping stale results", "err", err)
		return append([]Article(nil), e.articles...), &FetchError{Err: err}
	}
	e.articles = articles
	return append([]Article(nil), articles...), nil
}

// GetPosting returns a single posting straight from the store.
func (e *QueryEngine) GetPosting(ctx context.Context, id int64) (*JobPosting, error) {
	return e.store.GetJob(ctx, id)
}

// GetArticle returns a single article straight from the store.
func (e *QueryEngine) GetArticle(ctx context.Context, id int64) (*Article, error) {
	return e.store.GetArticle(ctx, id)
}

// Refresh reissues all three collection fetches concurrently. Fetch errors
// are returned but leave the respective stale collections in place.
func (e *QueryEngine) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := e.FetchPostings(gctx, nil)
		return err
	})
	g.Go(func() error {
		_, err := e.FetchCategories(gctx)
		return err
	})
	g.Go(func() error {
		_, err := e.FetchArticles(gctx)
		return err
	})
	return g.Wait()
}

// Postings returns the engine-owned copy of the posting collection.
func (e *QueryEngine) Postings() []JobPosting {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyJobs(e.jobs)
}

// Categories returns the engine-owned copy of the category collection.
func (e *QueryEngine) Categories() []Category {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Category(nil), e.categories...)
}

// Articles returns the engine-owned copy of the article collection.
func (e *QueryEngine) Articles() []Article {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Article(nil), e.articles...)
}

// begin registers a new fetch for key, cancelling the superseded in-flight
// fetch for the same key, and returns the fetch context plus its generation.
func (e *QueryEngine) begin(ctx context.Context, key string) (context.Context, context.CancelFunc, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cancel, ok := e.inflight[key]; ok {
		cancel()
	}
	e.gen[key]++
	fetchCtx, cancel := context.WithCancel(ctx)
	e.inflight[key] = cancel
	return fetchCtx, cancel, e.gen[key]
}

func copyJobs(jobs []JobPosting) []JobPosting {
	out := make([]JobPosting, len(jobs))
	copy(out, jobs)
	return out
}
