package listing

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store. It backs the package tests and local
// runs without a database, and mirrors the ordering guarantees of PGStore.
type MemoryStore struct {
	mu         sync.Mutex
	nextID     int64
	jobs       map[int64]JobPosting
	categories map[int64]Category
	articles   map[int64]Article

	// FailReads simulates a remote read failure when set.
	FailReads error
	// FailWrites simulates a rejected write when set.
	FailWrites error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		jobs:       make(map[int64]JobPosting),
		categories: make(map[int64]Category),
		articles:   make(map[int64]Article),
	}
}

// SeedCategory inserts a category with a fixed id.
func (m *MemoryStore) SeedCategory(c Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
	if c.ID >= m.nextID {
		m.nextID = c.ID + 1
	}
}

// SeedJob inserts a posting with a fixed id.
func (m *MemoryStore) SeedJob(j JobPosting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j.PosterURLs == nil {
		j.PosterURLs = []string{}
	}
	m.jobs[j.ID] = j
	if j.ID >= m.nextID {
		m.nextID = j.ID + 1
	}
}

// SeedArticle inserts an article with a fixed id.
func (m *MemoryStore) SeedArticle(a Article) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles[a.ID] = a
	if a.ID >= m.nextID {
		m.nextID = a.ID + 1
	}
}

// ListJobs returns postings newest id first, optionally narrowed by category.
func (m *MemoryStore) ListJobs(ctx context.Context, categoryID *int64) ([]JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}

	jobs := make([]JobPosting, 0, len(m.jobs))
	for _, j := range m.jobs {
		if categoryID != nil && (j.CategoryID == nil || *j.CategoryID != *categoryID) {
			continue
		}
		if c, ok := m.categoryFor(j.CategoryID); ok {
			j.CategoryName = c.Name
		}
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID > jobs[k].ID })
	return jobs, nil
}

// GetJob returns a single posting by id.
func (m *MemoryStore) GetJob(ctx context.Context, id int64) (*JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}

	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if c, ok := m.categoryFor(j.CategoryID); ok {
		j.CategoryName = c.Name
	}
	j.PosterURLs = append([]string(nil), j.PosterURLs...)
	return &j, nil
}

// InsertJob persists a new posting and returns its assigned id.
func (m *MemoryStore) InsertJob(ctx context.Context, j *JobPosting) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return 0, m.FailWrites
	}

	stored := *j
	stored.ID = m.nextID
	m.nextID++
	if stored.PosterURLs == nil {
		stored.PosterURLs = []string{}
	}
	if stored.DatePosted.IsZero() {
		stored.DatePosted = time.Now()
	}
	m.jobs[stored.ID] = stored
	return stored.ID, nil
}

// UpdateJob persists all mutable fields of an existing posting.
func (m *MemoryStore) UpdateJob(ctx context.Context, j *JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}

	existing, ok := m.jobs[j.ID]
	if !ok {
		return ErrNotFound
	}
	updated := *j
	updated.DatePosted = existing.DatePosted
	updated.PosterURLs = append([]string(nil), j.PosterURLs...)
	m.jobs[j.ID] = updated
	return nil
}

// ListCategories returns all categories sorted by name ascending.
func (m *MemoryStore) ListCategories(ctx context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}

	cats := make([]Category, 0, len(m.categories))
	for _, c := range m.categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, k int) bool { return cats[i].Name < cats[k].Name })
	return cats, nil
}

// ListArticles returns all articles sorted by date_posted descending.
func (m *MemoryStore) ListArticles(ctx context.Context) ([]Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}

	articles := make([]Article, 0, len(m.articles))
	for _, a := range m.articles {
		articles = append(articles, a)
	}
	sort.Slice(articles, func(i, k int) bool {
		return articles[i].DatePosted.After(articles[k].DatePosted)
	})
	return articles, nil
}

// GetArticle returns a single article by id.
func (m *MemoryStore) GetArticle(ctx context.Context, id int64) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}

	a, ok := m.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) categoryFor(id *int64) (Category, bool) {
	if id == nil {
		return Category{}, false
	}
	c, ok := m.categories[*id]
	return c, ok
}
