package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore returns a Store backed by the given connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const jobColumns = `j.id, j.title, j.company, j.location, j.job_type, j.description,
	       j.apply_link, j.category_id, COALESCE(c.name, ''), j.poster_url, j.date_posted`

// ListJobs returns postings joined with their category name, newest id first.
// Ordering is by id, not date_posted: ids are assigned monotonically, and the
// admin dashboard and public list both rely on that order.
func (s *PGStore) ListJobs(ctx context.Context, categoryID *int64) ([]JobPosting, error) {
	const base = `
		SELECT ` + jobColumns + `
		FROM jobs j
		LEFT JOIN categories c ON c.id = j.category_id`

	var (
		rows pgx.Rows
		err  error
	)
	if categoryID != nil {
		rows, err = s.pool.Query(ctx, base+` WHERE j.category_id = $1 ORDER BY j.id DESC`, *categoryID)
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY j.id DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	defer rows.Close()

	jobs := make([]JobPosting, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("listJobs scan: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// GetJob returns a single posting by id.
func (s *PGStore) GetJob(ctx context.Context, id int64) (*JobPosting, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM jobs j
		LEFT JOIN categories c ON c.id = j.category_id
		WHERE j.id = $1`, id)

	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getJob: %w", err)
	}
	return j, nil
}

// InsertJob persists a new posting and returns its assigned id.
func (s *PGStore) InsertJob(ctx context.Context, j *JobPosting) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO jobs (title, company, location, job_type, description,
		                   apply_link, category_id, poster_url, date_posted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING id`,
		j.Title, j.Company, j.Location, string(j.JobType), j.Description,
		j.ApplyLink, j.CategoryID, j.PosterURLs,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insertJob: %w", err)
	}
	return id, nil
}

// UpdateJob persists all mutable fields of an existing posting.
func (s *PGStore) UpdateJob(ctx context.Context, j *JobPosting) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs
		 SET title       = $1,
		     company     = $2,
		     location    = $3,
		     job_type    = $4,
		     description = $5,
		     apply_link  = $6,
		     category_id = $7,
		     poster_url  = $8
		 WHERE id = $9`,
		j.Title, j.Company, j.Location, string(j.JobType), j.Description,
		j.ApplyLink, j.CategoryID, j.PosterURLs, j.ID,
	)
	if err != nil {
		return fmt.Errorf("updateJob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCategories returns all categories sorted by name ascending.
func (s *PGStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listCategories query: %w", err)
	}
	defer rows.Close()

	cats := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("listCategories scan: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// ListArticles returns all articles sorted by date_posted descending.
func (s *PGStore) ListArticles(ctx context.Context) ([]Article, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, content, excerpt, image, date_posted
		 FROM articles
		 ORDER BY date_posted DESC`)
	if err != nil {
		return nil, fmt.Errorf("listArticles query: %w", err)
	}
	defer rows.Close()

	articles := make([]Article, 0)
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Excerpt, &a.Image, &a.DatePosted); err != nil {
			return nil, fmt.Errorf("listArticles scan: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// GetArticle returns a single article by id.
func (s *PGStore) GetArticle(ctx context.Context, id int64) (*Article, error) {
	var a Article
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, content, excerpt, image, date_posted
		 FROM articles WHERE id = $1`, id,
	).Scan(&a.ID, &a.Title, &a.Content, &a.Excerpt, &a.Image, &a.DatePosted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getArticle: %w", err)
	}
	return &a, nil
}

func scanJob(row pgx.Row) (*JobPosting, error) {
	var (
		j       JobPosting
		jobType string
	)
	if err := row.Scan(
		&j.ID, &j.Title, &j.Company, &j.Location, &jobType, &j.Description,
		&j.ApplyLink, &j.CategoryID, &j.CategoryName, &j.PosterURLs, &j.DatePosted,
	); err != nil {
		return nil, err
	}
	j.JobType = JobType(jobType)
	if j.PosterURLs == nil {
		j.PosterURLs = []string{}
	}
	return &j, nil
}
