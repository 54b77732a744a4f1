// Package search implements the client-side free-text filter applied over
// already-fetched collections. Filtering is pure and cheap enough to run on
// every keystroke; the server-side category predicate stays in the listing
// query engine.
package search

import (
	"strings"

	"carikerja/listing-service/internal/listing"
)

// FilterJobs returns the postings whose display fields contain query as a
// case-insensitive substring, preserving input order. The tested fields are
// title, company, location, job type and the joined category name. An empty
// (or all-whitespace) query returns the input unchanged.
func FilterJobs(jobs []listing.JobPosting, query string) []listing.JobPosting {
	keyword := normalize(query)
	if keyword == "" {
		return jobs
	}

	out := make([]listing.JobPosting, 0, len(jobs))
	for _, j := range jobs {
		if containsFold(j.Title, keyword) ||
			containsFold(j.Company, keyword) ||
			containsFold(j.Location, keyword) ||
			containsFold(string(j.JobType), keyword) ||
			containsFold(j.CategoryName, keyword) {
			out = append(out, j)
		}
	}
	return out
}

// FilterArticles returns the articles whose title or content contain query as
// a case-insensitive substring, preserving input order. An empty query
// returns the input unchanged.
func FilterArticles(articles []listing.Article, query string) []listing.Article {
	keyword := normalize(query)
	if keyword == "" {
		return articles
	}

	out := make([]listing.Article, 0, len(articles))
	for _, a := range articles {
		if containsFold(a.Title, keyword) || containsFold(a.Content, keyword) {
			out = append(out, a)
		}
	}
	return out
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// containsFold reports whether s contains keyword ignoring case. keyword is
// already lower-cased.
func containsFold(s, keyword string) bool {
	return strings.Contains(strings.ToLower(s), keyword)
}
