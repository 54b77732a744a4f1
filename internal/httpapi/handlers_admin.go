package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"carikerja/listing-service/internal/listing"
	"carikerja/listing-service/internal/storage"
)

const maxUploadBytes = 32 << 20

// adminListJobs handles GET /admin/jobs — the dashboard listing plus its
// header stats.
func (h *Handler) adminListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.engine.FetchPostings(r.Context(), nil)
	if err != nil && !staleServable(err) {
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if errors.Is(err, listing.ErrSuperseded) {
		jobs = h.engine.Postings()
	}

	cats, err := h.engine.FetchCategories(r.Context())
	if err != nil && !staleServable(err) {
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	if errors.Is(err, listing.ErrSuperseded) {
		cats = h.engine.Categories()
	}

	withPosters := 0
	for _, j := range jobs {
		if len(j.PosterURLs) > 0 {
			withPosters++
		}
	}

	jsonOK(w, map[string]any{
		"jobs": jobs,
		"stats": map[string]int{
			"jobs":        len(jobs),
			"categories":  len(cats),
			"withPosters": withPosters,
		},
	})
}

// createJob handles POST /admin/jobs (multipart: form fields + posters).
func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	form, files, cleanup, err := decodeJobForm(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	job, err := h.mutations.CreateJob(r.Context(), form, files)
	if err != nil {
		h.writeMutationError(w, err)
		return
	}
	jsonOK(w, job)
}

// updateJob handles PUT /admin/jobs/{id} (multipart; new posters append).
func (h *Handler) updateJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid job id", http.StatusBadRequest)
		return
	}

	form, files, cleanup, err := decodeJobForm(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	job, err := h.mutations.UpdateJob(r.Context(), id, form, files)
	if err != nil {
		h.writeMutationError(w, err)
		return
	}
	jsonOK(w, job)
}

// writeMutationError maps the mutation error taxonomy to HTTP statuses.
func (h *Handler) writeMutationError(w http.ResponseWriter, err error) {
	var (
		ve *listing.ValidationError
		ue *storage.UploadError
		pe *listing.PersistError
	)
	switch {
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, listing.ErrNotFound):
		jsonError(w, "job not found", http.StatusNotFound)
	case errors.As(err, &ue):
		h.logger.Error("poster upload failed", "err", err)
		jsonError(w, "poster upload failed", http.StatusBadGateway)
	case errors.As(err, &pe):
		h.logger.Error("job write rejected", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
	default:
		h.logger.Error("job mutation failed", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
	}
}

// decodeJobForm reads the multipart admin form: text fields plus zero or
// more poster files under the "posters" field. cleanup closes the opened
// file parts.
func decodeJobForm(r *http.Request) (listing.JobForm, []storage.File, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return listing.JobForm{}, nil, noop, errors.New("body must be multipart form data")
	}

	form := listing.JobForm{
		Title:       r.FormValue("title"),
		Company:     r.FormValue("company"),
		Location:    r.FormValue("location"),
		Description: r.FormValue("description"),
		ApplyLink:   r.FormValue("apply_link"),
		CategoryID:  r.FormValue("category_id"),
		JobType:     r.FormValue("job_type"),
	}

	var (
		files   []storage.File
		closers []func()
	)
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["posters"] {
			f, err := fh.Open()
			if err != nil {
				cleanup()
				return listing.JobForm{}, nil, noop, errors.New("unreadable poster file")
			}
			closers = append(closers, func() { f.Close() })
			files = append(files, storage.File{
				Name:        fh.Filename,
				Content:     f,
				ContentType: fh.Header.Get("Content-Type"),
			})
		}
	}

	return form, files, cleanup, nil
}
