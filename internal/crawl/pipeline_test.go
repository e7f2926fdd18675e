package crawl

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
	"github.com/pfrederiksen/pcjc-awards/internal/extract"
	"github.com/pfrederiksen/pcjc-awards/internal/fetcher"
	"github.com/pfrederiksen/pcjc-awards/internal/listing"
	"github.com/pfrederiksen/pcjc-awards/internal/logger"
	"github.com/pfrederiksen/pcjc-awards/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awardSite(t *testing.T) *httptest.Server {
	t.Helper()

	page, err := os.ReadFile("../extract/testdata/20245383.html")
	require.NoError(t, err)

	var photo bytes.Buffer
	require.NoError(t, png.Encode(&photo, image.NewGray(image.Rect(0, 0, 4, 4))))

	mux := http.NewServeMux()
	mux.HandleFunc("/2024/20245383.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
	mux.HandleFunc("/2024/20245383.jpg", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(photo.Bytes())
	})
	mux.HandleFunc("/2024/20245001.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>Moved to the new site</body></html>"))
	})
	return httptest.NewServer(mux)
}

func quietLogger() *logger.Logger {
	return logger.New(logger.LevelError, io.Discard)
}

func TestRunEndToEnd(t *testing.T) {
	server := awardSite(t)
	defer server.Close()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	f := fetcher.New(fetcher.Options{
		Domain:         server.URL + "/",
		HTTPClient:     server.Client(),
		InitialBackoff: time.Millisecond,
	})

	refs := listing.WalkLines([]string{
		"./2024:",
		"20245383.html",
		"20245383.jpg",
		"20245001.html",
		"20249999.html",
		"",
	})

	fixed := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	metrics := logger.NewMetrics()
	manifest := award.NewManifest()
	p := &Pipeline{
		Fetcher:  f,
		Store:    store,
		Workers:  3,
		Images:   true,
		Manifest: manifest,
		Logger:   quietLogger(),
		Metrics:  metrics,
		Now:      func() time.Time { return fixed },
	}

	summary, err := p.Run(context.Background(), refs)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Pages)
	assert.Equal(t, 1, summary.Records)
	assert.Equal(t, 1, summary.Images)
	assert.Equal(t, 0, summary.Skipped)

	require.Len(t, summary.Flagged, 1)
	assert.Equal(t, "20245001.html", summary.Flagged[0].Reference.Filename)
	assert.Contains(t, summary.Flagged[0].Steps, extract.StepTitle)

	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "20249999.html", summary.Failed[0].Reference.Filename)

	rec, err := store.LoadRecord("20245383")
	require.NoError(t, err)
	assert.Equal(t, award.Value("Cattleya Mount Anne 'Pacific Sunrise'"), rec.PlantName)
	assert.Equal(t, server.URL+"/2024/20245383.html", rec.SourceURL)
	assert.True(t, rec.ExtractedAt.Equal(fixed))
	assert.Equal(t, filepath.Join(store.Dir(), "images", "2024", "20245383.jpg"), rec.Photo)

	_, err = store.LoadRecord("20245001")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "flagged pages must not be persisted")

	_, err = os.Stat(filepath.Join(store.Dir(), "html", "2024", "20245001.html"))
	assert.NoError(t, err, "raw page of a flagged award is still kept")

	assert.Equal(t, award.StatusStored, manifest.Entries["2024/20245383.html"].Status)
	assert.Equal(t, award.StatusStored, manifest.Entries["2024/20245383.jpg"].Status)
	assert.Equal(t, award.StatusFlagged, manifest.Entries["2024/20245001.html"].Status)
	assert.Equal(t, award.StatusFailed, manifest.Entries["2024/20249999.html"].Status)

	assert.Equal(t, int64(3), metrics.Counter("fetch.ok"))
	assert.Equal(t, int64(1), metrics.Counter("fetch.failed"))
	assert.Equal(t, int64(1), metrics.Counter("extract.structural"))
	assert.Equal(t, 4, metrics.GetSnapshot().Timings["fetch"].Count)
}

// fakeFetcher serves canned pages and records what was requested
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) URL(ref award.Reference) string {
	return "http://example.test/" + ref.Path()
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref award.Reference) ([]byte, error) {
	text, err := f.FetchPage(ctx, ref)
	return []byte(text), err
}

func (f *fakeFetcher) FetchPage(_ context.Context, ref award.Reference) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, ref.Path())
	text, ok := f.pages[ref.Path()]
	if !ok {
		return "", &fetcher.StatusError{URL: f.URL(ref), Code: http.StatusNotFound}
	}
	return text, nil
}

// memStore keeps pages, images and records in memory
type memStore struct {
	mu      sync.Mutex
	pages   map[string]string
	images  map[string][]byte
	records map[string]*award.Record
}

func newMemStore() *memStore {
	return &memStore{
		pages:   make(map[string]string),
		images:  make(map[string][]byte),
		records: make(map[string]*award.Record),
	}
}

func (s *memStore) SavePage(ref award.Reference, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[ref.Path()] = text
	return ref.Path(), nil
}

func (s *memStore) SaveImage(ref award.Reference, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[ref.Path()] = data
	return s.ImagePath(ref)
}

func (s *memStore) ImagePath(ref award.Reference) (string, error) {
	return "images/" + ref.Path(), nil
}

func (s *memStore) SaveRecord(id string, rec *award.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = rec
	return nil
}

const minimalPage = `<title>Cattleya hybrid 'Clonename'</title>
</head>
<body>
x
x
x
x
">October 12, 2024 - Pacific Central Judging
x
">Cattleya Alpha x Cattleya Beta
">HCC/AOS 78
Exhibited by: Jane Grower
<font size="+1">Description</font>
Two flowers.
</font>
`

func TestRunNewOnlySkipsKnown(t *testing.T) {
	known := award.Reference{Directory: "2024/", Filename: "1.html"}
	fresh := award.Reference{Directory: "2024/", Filename: "2.html"}

	manifest := award.NewManifest()
	manifest.Mark(known, award.StatusStored, time.Now())

	ff := &fakeFetcher{pages: map[string]string{
		"2024/1.html": minimalPage,
		"2024/2.html": minimalPage,
	}}
	store := newMemStore()
	p := &Pipeline{
		Fetcher:  ff,
		Store:    store,
		NewOnly:  true,
		Manifest: manifest,
		Logger:   quietLogger(),
		Metrics:  logger.NewMetrics(),
	}

	summary, err := p.Run(context.Background(), slices.Values([]award.Reference{known, fresh}))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{"2024/2.html"}, ff.fetched)
	assert.True(t, manifest.Has(fresh))
}

func TestRunRetriesFailedFromManifest(t *testing.T) {
	ref := award.Reference{Directory: "2024/", Filename: "1.html"}
	manifest := award.NewManifest()
	manifest.Mark(ref, award.StatusFailed, time.Now())

	ff := &fakeFetcher{pages: map[string]string{"2024/1.html": minimalPage}}
	p := &Pipeline{
		Fetcher:  ff,
		Store:    newMemStore(),
		NewOnly:  true,
		Manifest: manifest,
		Logger:   quietLogger(),
		Metrics:  logger.NewMetrics(),
	}

	summary, err := p.Run(context.Background(), slices.Values([]award.Reference{ref}))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, award.StatusStored, manifest.Entries[ref.Key()].Status)
}

func TestRunDeduplicatesReferences(t *testing.T) {
	ref := award.Reference{Directory: "2024/", Filename: "1.html"}
	ff := &fakeFetcher{pages: map[string]string{"2024/1.html": minimalPage}}
	store := newMemStore()
	p := &Pipeline{Fetcher: ff, Store: store, Logger: quietLogger(), Metrics: logger.NewMetrics()}

	summary, err := p.Run(context.Background(), slices.Values([]award.Reference{ref, ref, ref}))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Pages)
	assert.Len(t, ff.fetched, 1)
}

func TestRunSkipsImagesUnlessRequested(t *testing.T) {
	img := award.Reference{Directory: "2024/", Filename: "1.jpg", Kind: award.KindImage}
	ff := &fakeFetcher{pages: map[string]string{}}
	p := &Pipeline{Fetcher: ff, Store: newMemStore(), Logger: quietLogger(), Metrics: logger.NewMetrics()}

	summary, err := p.Run(context.Background(), slices.Values([]award.Reference{img}))
	require.NoError(t, err)
	assert.Empty(t, ff.fetched)
	assert.Equal(t, 0, summary.Images)
	assert.Empty(t, summary.Failed)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ff := &fakeFetcher{pages: map[string]string{"2024/1.html": minimalPage}}
	p := &Pipeline{Fetcher: ff, Store: newMemStore(), Logger: quietLogger(), Metrics: logger.NewMetrics()}

	summary, err := p.Run(ctx, slices.Values([]award.Reference{{Directory: "2024/", Filename: "1.html"}}))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.Pages)
}

func TestRunRequiresCollaborators(t *testing.T) {
	_, err := (&Pipeline{}).Run(context.Background(), slices.Values([]award.Reference{}))
	assert.Error(t, err)
}

func TestRunFetchesPhotosOfPagesWithoutRecord(t *testing.T) {
	ff := &fakeFetcher{pages: map[string]string{
		"2024/1.html": "<html><body>Moved to the new site</body></html>",
		"2024/1.jpg":  "photo one",
		"2024/3.jpg":  "photo three",
	}}
	store := newMemStore()
	manifest := award.NewManifest()
	p := &Pipeline{
		Fetcher:  ff,
		Store:    store,
		Workers:  2,
		Images:   true,
		Manifest: manifest,
		Logger:   quietLogger(),
		Metrics:  logger.NewMetrics(),
	}

	refs := listing.WalkLines([]string{"./2024:", "1.html", "1.jpg", "3.html", "3.jpg", "5.html", ""})
	summary, err := p.Run(context.Background(), refs)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Images)
	assert.Len(t, summary.Flagged, 1)
	require.Len(t, summary.Failed, 2)
	assert.Equal(t, "3.html", summary.Failed[0].Reference.Filename)
	assert.Equal(t, "5.html", summary.Failed[1].Reference.Filename)

	assert.Equal(t, []byte("photo one"), store.images["2024/1.jpg"])
	assert.Equal(t, []byte("photo three"), store.images["2024/3.jpg"])
	assert.Equal(t, award.StatusStored, manifest.Entries["2024/1.jpg"].Status)
	assert.Equal(t, award.StatusStored, manifest.Entries["2024/3.jpg"].Status)

	// an image the listing never named is not fetched for a failed page
	assert.NotContains(t, ff.fetched, "2024/5.jpg")
	assert.NotContains(t, manifest.Entries, "2024/5.jpg")
}

func TestRunPhotoOfSuccessfulPageIsFetchedOnce(t *testing.T) {
	ff := &fakeFetcher{pages: map[string]string{
		"2024/1.html": minimalPage,
		"2024/1.jpg":  "photo one",
	}}
	store := newMemStore()
	p := &Pipeline{Fetcher: ff, Store: store, Workers: 2, Images: true, Logger: quietLogger(), Metrics: logger.NewMetrics()}

	summary, err := p.Run(context.Background(), listing.WalkLines([]string{"./2024:", "1.html", "1.jpg", ""}))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Images)
	assert.ElementsMatch(t, []string{"2024/1.html", "2024/1.jpg"}, ff.fetched)
	require.Contains(t, store.records, "1")
	assert.Equal(t, "images/2024/1.jpg", store.records["1"].Photo)
}

func TestRunNewOnlyKeepsKnownPhoto(t *testing.T) {
	page := award.Reference{Directory: "2024/", Filename: "2.html"}
	manifest := award.NewManifest()
	manifest.Mark(page.Image(), award.StatusStored, time.Now())

	ff := &fakeFetcher{pages: map[string]string{
		"2024/2.html": minimalPage,
		"2024/2.jpg":  "photo two",
	}}
	store := newMemStore()
	p := &Pipeline{
		Fetcher:  ff,
		Store:    store,
		Images:   true,
		NewOnly:  true,
		Manifest: manifest,
		Logger:   quietLogger(),
		Metrics:  logger.NewMetrics(),
	}

	summary, err := p.Run(context.Background(), listing.WalkLines([]string{"./2024:", "2.html", "2.jpg", ""}))
	require.NoError(t, err)

	assert.Equal(t, []string{"2024/2.html"}, ff.fetched)
	assert.Equal(t, 0, summary.Images)
	assert.Equal(t, 1, summary.Skipped)
	require.Contains(t, store.records, "2")
	assert.Equal(t, "images/2024/2.jpg", store.records["2"].Photo)
}

func TestRunAwardNumberCollision(t *testing.T) {
	numbered := minimalPage + "<font size=\"2\">Award 20245383</font>\n"
	ff := &fakeFetcher{pages: map[string]string{
		"2024/1.html":        numbered,
		"2024/2.html":        numbered,
		"2024/20245383.html": numbered,
	}}
	store := newMemStore()
	metrics := logger.NewMetrics()
	manifest := award.NewManifest()
	p := &Pipeline{
		Fetcher:  ff,
		Store:    store,
		Workers:  1,
		Manifest: manifest,
		Logger:   quietLogger(),
		Metrics:  metrics,
	}

	refs := listing.WalkLines([]string{"./2024:", "1.html", "2.html", "20245383.html", ""})
	summary, err := p.Run(context.Background(), refs)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Records)
	assert.Len(t, store.records, 2)
	assert.Contains(t, store.records, "20245383")
	assert.Contains(t, store.records, "2", "a duplicate award number falls back to the file id")
	assert.Equal(t, int64(2), metrics.Counter("record.collision"))

	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "20245383.html", summary.Failed[0].Reference.Filename)
	assert.Equal(t, award.StatusFailed, manifest.Entries["2024/20245383.html"].Status)
}
