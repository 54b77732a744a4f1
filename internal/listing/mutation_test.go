package listing_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"carikerja/listing-service/internal/listing"
	"carikerja/listing-service/internal/storage"
)

func newMutationFixture() (*listing.MutationService, *listing.MemoryStore, *storage.MemoryStore) {
	store := seededStore()
	objects := storage.NewMemoryStore()
	uploader := storage.NewUploader(objects, "posters", nil)
	engine := listing.NewQueryEngine(store, nil)
	svc := listing.NewMutationService(store, uploader, engine, nil, nil)
	return svc, store, objects
}

func validForm() listing.JobForm {
	return listing.JobForm{
		Title:      "Frontend Engineer",
		Company:    "Carikerja",
		Location:   "Bandung",
		ApplyLink:  "https://example.com/apply",
		CategoryID: "1",
		JobType:    "Full Time",
	}
}

func posterFile(name string) storage.File {
	return storage.File{Name: name, Content: strings.NewReader("img"), ContentType: "image/png"}
}

// ── CreateJob ──────────────────────────────────────────────────────────────

func TestCreateJob_WithoutFiles(t *testing.T) {
	svc, store, _ := newMutationFixture()

	job, err := svc.CreateJob(context.Background(), validForm(), nil)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.ID == 0 {
		t.Error("created job has no id")
	}
	if len(job.PosterURLs) != 0 {
		t.Errorf("poster urls should be empty, got %v", job.PosterURLs)
	}

	stored, err := store.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("job not persisted: %v", err)
	}
	if stored.Title != "Frontend Engineer" || stored.CategoryID == nil || *stored.CategoryID != 1 {
		t.Errorf("persisted job mismatch: %+v", stored)
	}
}

func TestCreateJob_WithFiles(t *testing.T) {
	svc, _, objects := newMutationFixture()

	job, err := svc.CreateJob(context.Background(), validForm(),
		[]storage.File{posterFile("a.png"), posterFile("b.png")})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if len(job.PosterURLs) != 2 {
		t.Fatalf("got %d poster urls, want 2", len(job.PosterURLs))
	}
	if !strings.HasSuffix(job.PosterURLs[0], "_a.png") || !strings.HasSuffix(job.PosterURLs[1], "_b.png") {
		t.Errorf("poster urls out of input order: %v", job.PosterURLs)
	}
	if objects.Len() != 2 {
		t.Errorf("stored %d objects, want 2", objects.Len())
	}
}

func TestCreateJob_BlankCategoryMeansUncategorized(t *testing.T) {
	svc, _, _ := newMutationFixture()

	form := validForm()
	form.CategoryID = ""
	job, err := svc.CreateJob(context.Background(), form, nil)
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.CategoryID != nil {
		t.Errorf("blank category must persist as null, got %v", *job.CategoryID)
	}
}

func TestCreateJob_Validation(t *testing.T) {
	svc, _, _ := newMutationFixture()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*listing.JobForm)
	}{
		{"empty title", func(f *listing.JobForm) { f.Title = "" }},
		{"empty company", func(f *listing.JobForm) { f.Company = "  " }},
		{"empty apply link", func(f *listing.JobForm) { f.ApplyLink = "" }},
		{"bad category id", func(f *listing.JobForm) { f.CategoryID = "tech" }},
		{"bad job type", func(f *listing.JobForm) { f.JobType = "Gig" }},
	}
	for _, c := range cases {
		form := validForm()
		c.mutate(&form)
		_, err := svc.CreateJob(ctx, form, nil)
		var ve *listing.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %v", c.name, err)
		}
	}
}

func TestCreateJob_UploadFailureAbortsPersist(t *testing.T) {
	svc, store, objects := newMutationFixture()
	objects.FailSuffix = "_b.png"

	before, _ := store.ListJobs(context.Background(), nil)
	_, err := svc.CreateJob(context.Background(), validForm(),
		[]storage.File{posterFile("a.png"), posterFile("b.png")})

	var ue *storage.UploadError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UploadError, got %v", err)
	}
	after, _ := store.ListJobs(context.Background(), nil)
	if len(after) != len(before) {
		t.Error("no record may be persisted when the upload batch fails")
	}
}

func TestCreateJob_PersistFailure(t *testing.T) {
	svc, store, _ := newMutationFixture()
	store.FailWrites = errors.New("constraint violated")

	_, err := svc.CreateJob(context.Background(), validForm(), nil)
	var pe *listing.PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistError, got %v", err)
	}
}

// ── UpdateJob ──────────────────────────────────────────────────────────────

func TestUpdateJob_NoFilesLeavesPostersUnchanged(t *testing.T) {
	svc, store, _ := newMutationFixture()
	ctx := context.Background()

	store.SeedJob(listing.JobPosting{ID: 9, Title: "Old", Company: "Old Co",
		JobType: listing.JobTypeRemote, ApplyLink: "https://example.com/9",
		PosterURLs: []string{"x.png"}})

	job, err := svc.UpdateJob(ctx, 9, validForm(), nil)
	if err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if !reflect.DeepEqual(job.PosterURLs, []string{"x.png"}) {
		t.Errorf("poster urls changed without new files: %v", job.PosterURLs)
	}
	if job.Title != "Frontend Engineer" {
		t.Errorf("mutable fields not persisted: %+v", job)
	}
}

func TestUpdateJob_AppendsNewPosterURLs(t *testing.T) {
	svc, store, _ := newMutationFixture()
	ctx := context.Background()

	store.SeedJob(listing.JobPosting{ID: 9, Title: "Old", Company: "Old Co",
		JobType: listing.JobTypeRemote, ApplyLink: "https://example.com/9",
		PosterURLs: []string{"x.png"}})

	job, err := svc.UpdateJob(ctx, 9, validForm(),
		[]storage.File{posterFile("a.png"), posterFile("b.png")})
	if err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if len(job.PosterURLs) != 3 {
		t.Fatalf("got %d poster urls, want 3: %v", len(job.PosterURLs), job.PosterURLs)
	}
	if job.PosterURLs[0] != "x.png" {
		t.Errorf("existing url must stay first, got %v", job.PosterURLs)
	}
	if !strings.HasSuffix(job.PosterURLs[1], "_a.png") || !strings.HasSuffix(job.PosterURLs[2], "_b.png") {
		t.Errorf("new urls must append in file order: %v", job.PosterURLs)
	}
}

func TestUpdateJob_NotFound(t *testing.T) {
	svc, _, _ := newMutationFixture()

	_, err := svc.UpdateJob(context.Background(), 404, validForm(), nil)
	if !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateJob_UploadFailureLeavesRecordUntouched(t *testing.T) {
	svc, store, objects := newMutationFixture()
	objects.FailSuffix = "_bad.png"
	ctx := context.Background()

	store.SeedJob(listing.JobPosting{ID: 9, Title: "Old", Company: "Old Co",
		JobType: listing.JobTypeRemote, ApplyLink: "https://example.com/9",
		PosterURLs: []string{"x.png"}})

	_, err := svc.UpdateJob(ctx, 9, validForm(), []storage.File{posterFile("bad.png")})
	var ue *storage.UploadError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UploadError, got %v", err)
	}

	job, _ := store.GetJob(ctx, 9)
	if job.Title != "Old" || !reflect.DeepEqual(job.PosterURLs, []string{"x.png"}) {
		t.Errorf("record mutated despite failed upload: %+v", job)
	}
}
