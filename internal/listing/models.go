// Package listing contains the catalog domain of the job board: postings,
// categories and articles, the query engine that keeps authoritative in-memory
// copies of each collection, and the mutation service for the admin workflow.
package listing

import (
	"fmt"
	"time"
)

// JobType values mirror the job_type column in PostgreSQL.
type JobType string

const (
	JobTypeFullTime JobType = "Full Time"
	JobTypePartTime JobType = "Part Time"
	JobTypeRemote   JobType = "Remote"
	JobTypeContract JobType = "Contract"
)

// ParseJobType converts a raw string to a JobType, returning an error for
// unknown values.
func ParseJobType(s string) (JobType, error) {
	jt := JobType(s)
	switch jt {
	case JobTypeFullTime, JobTypePartTime, JobTypeRemote, JobTypeContract:
		return jt, nil
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// Category is read-only reference data mirroring the categories table.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// JobPosting mirrors a jobs row joined with its category name.
//
// PosterURLs is append-only through the edit workflow: no operation in this
// service removes a URL once it has been stored.
type JobPosting struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	JobType      JobType   `json:"jobType"`
	Description  string    `json:"description"`
	ApplyLink    string    `json:"applyLink"`
	CategoryID   *int64    `json:"categoryId"` // nil means uncategorized
	CategoryName string    `json:"categoryName,omitempty"`
	PosterURLs   []string  `json:"posterUrls"`
	DatePosted   time.Time `json:"datePosted"`
}

// Article mirrors an articles row. Articles are read-only in this service:
// there is no authoring workflow.
type Article struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Excerpt    string    `json:"excerpt"`
	Image      string    `json:"image"`
	DatePosted time.Time `json:"datePosted"`
}
