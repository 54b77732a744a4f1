package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"carikerja/listing-service/internal/listing"
	"carikerja/listing-service/internal/search"
)

// listJobs handles GET /jobs?category_id=&q=
//
// category_id narrows the fetch server-side; q is applied client-side over
// the fetched set. A failed refetch degrades to the previously fetched
// collection instead of an error response.
func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	var categoryID *int64
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			jsonError(w, "category_id must be an integer", http.StatusBadRequest)
			return
		}
		categoryID = &id
	}

	jobs, err := h.engine.FetchPostings(r.Context(), categoryID)
	if err != nil && !staleServable(err) {
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if errors.Is(err, listing.ErrSuperseded) {
		jobs = h.engine.Postings()
	}

	jsonOK(w, search.FilterJobs(jobs, r.URL.Query().Get("q")))
}

// getJob handles GET /jobs/{id}
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.engine.GetPosting(r.Context(), id)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		h.logger.Error("getJob failed", "id", id, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, job)
}

// listCategories handles GET /categories
func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.engine.FetchCategories(r.Context())
	if err != nil && !staleServable(err) {
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if errors.Is(err, listing.ErrSuperseded) {
		cats = h.engine.Categories()
	}
	jsonOK(w, cats)
}

// listArticles handles GET /articles?q=
func (h *Handler) listArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.engine.FetchArticles(r.Context())
	if err != nil && !staleServable(err) {
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if errors.Is(err, listing.ErrSuperseded) {
		articles = h.engine.Articles()
	}
	jsonOK(w, search.FilterArticles(articles, r.URL.Query().Get("q")))
}

// getArticle handles GET /articles/{id}
func (h *Handler) getArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid article id", http.StatusBadRequest)
		return
	}

	article, err := h.engine.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			jsonError(w, "article not found", http.StatusNotFound)
			return
		}
		h.logger.Error("getArticle failed", "id", id, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, article)
}

// staleServable reports whether a fetch error still produced a servable
// (stale or cached) collection.
func staleServable(err error) bool {
	var fe *listing.FetchError
	return errors.As(err, &fe) || errors.Is(err, listing.ErrSuperseded)
}
