package listing_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"carikerja/listing-service/internal/listing"
)

func catID(id int64) *int64 { return &id }

func seededStore() *listing.MemoryStore {
	store := listing.NewMemoryStore()
	store.SeedCategory(listing.Category{ID: 1, Name: "IT"})
	store.SeedCategory(listing.Category{ID: 2, Name: "Sales"})
	store.SeedJob(listing.JobPosting{ID: 5, Title: "Backend Engineer", Company: "Carikerja",
		JobType: listing.JobTypeFullTime, ApplyLink: "https://example.com/5", CategoryID: catID(1)})
	store.SeedJob(listing.JobPosting{ID: 6, Title: "Sales Rep", Company: "Tokomaju",
		JobType: listing.JobTypeFullTime, ApplyLink: "https://example.com/6", CategoryID: catID(2)})
	store.SeedJob(listing.JobPosting{ID: 7, Title: "Data Analyst", Company: "Datindo",
		JobType: listing.JobTypeContract, ApplyLink: "https://example.com/7"})
	store.SeedArticle(listing.Article{ID: 1, Title: "Older", DatePosted: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	store.SeedArticle(listing.Article{ID: 2, Title: "Newer", DatePosted: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)})
	return store
}

// ── FetchPostings ──────────────────────────────────────────────────────────

func TestFetchPostings_OrderedByIDDescending(t *testing.T) {
	engine := listing.NewQueryEngine(seededStore(), nil)

	jobs, err := engine.FetchPostings(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchPostings: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	for i := 1; i < len(jobs); i++ {
		if jobs[i-1].ID < jobs[i].ID {
			t.Errorf("jobs not ordered by id descending: %d before %d", jobs[i-1].ID, jobs[i].ID)
		}
	}
}

func TestFetchPostings_CategoryFilterIsSubset(t *testing.T) {
	engine := listing.NewQueryEngine(seededStore(), nil)
	ctx := context.Background()

	all, err := engine.FetchPostings(ctx, nil)
	if err != nil {
		t.Fatalf("FetchPostings(nil): %v", err)
	}
	allIDs := make(map[int64]bool, len(all))
	for _, j := range all {
		allIDs[j.ID] = true
	}

	for _, cat := range []int64{1, 2} {
		filtered, err := engine.FetchPostings(ctx, &cat)
		if err != nil {
			t.Fatalf("FetchPostings(%d): %v", cat, err)
		}
		for _, j := range filtered {
			if !allIDs[j.ID] {
				t.Errorf("job %d under category %d missing from the unfiltered set", j.ID, cat)
			}
			if j.CategoryID == nil || *j.CategoryID != cat {
				t.Errorf("job %d returned for category %d has category %v", j.ID, cat, j.CategoryID)
			}
		}
	}
}

func TestFetchPostings_ScenarioCategoryOne(t *testing.T) {
	engine := listing.NewQueryEngine(seededStore(), nil)

	one := int64(1)
	jobs, err := engine.FetchPostings(context.Background(), &one)
	if err != nil {
		t.Fatalf("FetchPostings(1): %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != 5 {
		t.Fatalf("FetchPostings(1) = %v, want only job 5", jobs)
	}
	if jobs[0].CategoryName != "IT" {
		t.Errorf("category name not joined: got %q, want %q", jobs[0].CategoryName, "IT")
	}
}

func TestFetchPostings_KeepsStaleResultsOnError(t *testing.T) {
	store := seededStore()
	engine := listing.NewQueryEngine(store, nil)
	ctx := context.Background()

	fresh, err := engine.FetchPostings(ctx, nil)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	store.FailReads = errors.New("connection reset")
	stale, err := engine.FetchPostings(ctx, nil)

	var fe *listing.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if len(stale) != len(fresh) {
		t.Errorf("stale result lost: got %d jobs, want %d", len(stale), len(fresh))
	}
	if got := engine.Postings(); len(got) != len(fresh) {
		t.Errorf("engine cache lost on failed fetch: %d jobs, want %d", len(got), len(fresh))
	}
}

// ── Superseded fetches ─────────────────────────────────────────────────────

// blockingStore delays the first ListJobs call until released, to force
// out-of-order completion of two overlapping fetches.
type blockingStore struct {
	*listing.MemoryStore
	block chan struct{}
	first atomic.Bool
}

func (b *blockingStore) ListJobs(ctx context.Context, categoryID *int64) ([]listing.JobPosting, error) {
	if b.first.CompareAndSwap(true, false) {
		<-b.block
	}
	return b.MemoryStore.ListJobs(ctx, categoryID)
}

func TestFetchPostings_SlowFetchCannotOverwriteNewer(t *testing.T) {
	store := &blockingStore{MemoryStore: seededStore(), block: make(chan struct{})}
	store.first.Store(true)
	engine := listing.NewQueryEngine(store, nil)
	ctx := context.Background()

	slowDone := make(chan error, 1)
	go func() {
		_, err := engine.FetchPostings(ctx, nil) // blocks until released
		slowDone <- err
	}()

	// Give the slow fetch time to register before superseding it.
	time.Sleep(20 * time.Millisecond)

	one := int64(1)
	newer, err := engine.FetchPostings(ctx, &one)
	if err != nil {
		t.Fatalf("newer fetch: %v", err)
	}

	close(store.block)
	if err := <-slowDone; !errors.Is(err, listing.ErrSuperseded) {
		t.Fatalf("slow fetch should report ErrSuperseded, got %v", err)
	}

	cached := engine.Postings()
	if len(cached) != len(newer) {
		t.Fatalf("cache overwritten by superseded fetch: %d jobs, want %d", len(cached), len(newer))
	}
	if len(cached) != 1 || cached[0].ID != 5 {
		t.Errorf("cache = %v, want only job 5 from the newer fetch", cached)
	}
}

// ── Categories and articles ────────────────────────────────────────────────

func TestFetchCategories_SortedByName(t *testing.T) {
	engine := listing.NewQueryEngine(seededStore(), nil)

	cats, err := engine.FetchCategories(context.Background())
	if err != nil {
		t.Fatalf("FetchCategories: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "IT" || cats[1].Name != "Sales" {
		t.Errorf("categories not sorted by name: %v", cats)
	}
}

func TestFetchArticles_NewestFirst(t *testing.T) {
	engine := listing.NewQueryEngine(seededStore(), nil)

	articles, err := engine.FetchArticles(context.Background())
	if err != nil {
		t.Fatalf("FetchArticles: %v", err)
	}
	if len(articles) != 2 || articles[0].ID != 2 {
		t.Errorf("articles not ordered by date_posted descending: %v", articles)
	}
}
