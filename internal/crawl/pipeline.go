package crawl

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
	"github.com/pfrederiksen/pcjc-awards/internal/extract"
	"github.com/pfrederiksen/pcjc-awards/internal/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when Pipeline.Workers is not positive
const DefaultWorkers = 2

// Fetcher retrieves award resources
type Fetcher interface {
	URL(ref award.Reference) string
	Fetch(ctx context.Context, ref award.Reference) ([]byte, error)
	FetchPage(ctx context.Context, ref award.Reference) (string, error)
}

// Store persists crawl output
type Store interface {
	SavePage(ref award.Reference, text string) (string, error)
	SaveImage(ref award.Reference, data []byte) (string, error)
	SaveRecord(id string, rec *award.Record) error
	ImagePath(ref award.Reference) (string, error)
}

// Pipeline processes references concurrently
type Pipeline struct {
	Fetcher   Fetcher
	Store     Store
	Extractor *extract.Extractor

	Workers int

	// Images also downloads the photo accompanying each award page
	Images bool
	// NewOnly skips references the manifest already holds
	NewOnly bool
	// Manifest is updated with every outcome when set
	Manifest *award.Manifest

	Logger  *logger.Logger
	Metrics *logger.Metrics
	Now     func() time.Time
}

// Flagged is a page whose layout deviated from the award template
type Flagged struct {
	Reference award.Reference `json:"reference"`
	Steps     []extract.Step  `json:"steps"`
	Error     string          `json:"error"`
}

// Failure is a reference that could not be fetched or stored
type Failure struct {
	Reference award.Reference `json:"reference"`
	Error     string          `json:"error"`
}

// Summary reports the outcome of one run
type Summary struct {
	Pages    int       `json:"pages"`
	Records  int       `json:"records"`
	Images   int       `json:"images"`
	Skipped  int       `json:"skipped"`
	Flagged  []Flagged `json:"flagged"`
	Failed   []Failure `json:"failed"`
	Duration string    `json:"duration"`
}

// run holds the state shared by the workers of one Run call
type run struct {
	*Pipeline
	mu      sync.Mutex
	summary Summary
	claimed map[string]bool
	listed  map[string]bool   // images named by the listing
	ids     map[string]string // record id -> page key
	ext     *extract.Extractor
}

type claimState int

const (
	claimTaken claimState = iota // already handled by this run
	claimKnown                   // held by the manifest of an earlier crawl
	claimOwned
)

// Run processes every reference yielded by refs. The returned error is
// non-nil only when ctx was canceled; the summary is always valid.
func (p *Pipeline) Run(ctx context.Context, refs iter.Seq[award.Reference]) (*Summary, error) {
	if p.Fetcher == nil || p.Store == nil {
		return nil, errors.New("pipeline requires a fetcher and a store")
	}

	r := &run{
		Pipeline: p,
		claimed:  make(map[string]bool),
		listed:   make(map[string]bool),
		ids:      make(map[string]string),
		summary:  Summary{Flagged: []Flagged{}, Failed: []Failure{}},
		ext:      p.Extractor,
	}
	if r.ext == nil {
		r.ext = extract.Default()
	}
	start := r.now()

	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for ref := range refs {
		if gctx.Err() != nil {
			break
		}
		if ref.Kind == award.KindImage {
			if !p.Images {
				continue
			}
			r.list(ref)
		}
		if r.claim(ref) != claimOwned {
			continue
		}
		photo := claimTaken
		if r.Images && ref.Kind == award.KindHTML {
			photo = r.claim(ref.Image())
		}
		g.Go(func() error {
			r.process(gctx, ref, photo)
			return nil
		})
	}
	_ = g.Wait()

	r.finish(r.now().Sub(start))
	r.log().Info("crawl finished", logger.Fields{
		"pages":   r.summary.Pages,
		"records": r.summary.Records,
		"images":  r.summary.Images,
		"skipped": r.summary.Skipped,
		"flagged": len(r.summary.Flagged),
		"failed":  len(r.summary.Failed),
	})

	return &r.summary, ctx.Err()
}

// process handles one reference; photo tells a page worker whether it owns the
// sibling image
func (r *run) process(ctx context.Context, ref award.Reference, photo claimState) {
	switch ref.Kind {
	case award.KindImage:
		r.processImage(ctx, ref)
	default:
		r.processPage(ctx, ref, photo)
	}
}

func (r *run) processPage(ctx context.Context, ref award.Reference, photo claimState) {
	url := r.Fetcher.URL(ref)
	fields := logger.Fields{"url": url, "award": ref.ID()}

	rec := r.extractPage(ctx, ref, fields)
	if rec == nil {
		if photo == claimOwned {
			r.releasePhoto(ctx, ref.Image())
		}
		return
	}

	rec.SourceURL = url
	rec.ExtractedAt = r.now().UTC()
	rec.Photo = r.photo(ctx, ref.Image(), photo)

	id, ok := r.recordID(rec, ref)
	if !ok {
		r.fail(ref, "saving record", fmt.Errorf("record id %s is already used by another page", id), fields)
		return
	}
	if err := r.Store.SaveRecord(id, rec); err != nil {
		r.fail(ref, "saving record", err, fields)
		return
	}

	r.metrics().IncrCounter("record.stored")
	r.log().Debug("award stored", logger.Fields{"url": url, "award": id, "found": rec.FoundCount()})
	r.mu.Lock()
	r.summary.Records++
	r.mark(ref, award.StatusStored)
	r.mu.Unlock()
}

// extractPage fetches, saves and extracts one page. It returns nil once the
// page has been recorded as failed or flagged.
func (r *run) extractPage(ctx context.Context, ref award.Reference, fields logger.Fields) *award.Record {
	text, err := timed(r, func() (string, error) { return r.Fetcher.FetchPage(ctx, ref) })
	if err != nil {
		r.fail(ref, "fetching page", err, fields)
		return nil
	}
	if _, err := r.Store.SavePage(ref, text); err != nil {
		r.fail(ref, "saving page", err, fields)
		return nil
	}
	r.mu.Lock()
	r.summary.Pages++
	r.mu.Unlock()

	start := time.Now()
	rec, err := r.ext.ExtractText(text)
	r.metrics().RecordTiming("extract", time.Since(start))
	if err != nil {
		r.flag(ref, err, fields)
		return nil
	}
	return rec
}

// photo returns the stored path of a page's image: fetched when the worker
// owns it, looked up when an earlier crawl stored it
func (r *run) photo(ctx context.Context, ref award.Reference, state claimState) string {
	switch state {
	case claimOwned:
		return r.processImage(ctx, ref)
	case claimKnown:
		path, err := r.Store.ImagePath(ref)
		if err != nil {
			r.log().Warn("image path unavailable", logger.Fields{"award": ref.ID(), "error": err.Error()})
			return ""
		}
		return path
	default:
		return ""
	}
}

// releasePhoto hands back the image of a page that produced no record. A
// listed image is processed here since its own listing line was refused;
// otherwise a later listing line may still claim it.
func (r *run) releasePhoto(ctx context.Context, ref award.Reference) {
	r.mu.Lock()
	listed := r.listed[ref.Key()]
	if !listed {
		delete(r.claimed, ref.Key())
	}
	r.mu.Unlock()

	if listed {
		r.processImage(ctx, ref)
	}
}

// recordID picks the id a record is stored under. A page printing an award
// number already stored by another page this run falls back to its file id.
func (r *run) recordID(rec *award.Record, ref award.Reference) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page := ref.Key()
	id := rec.Key(ref.ID())
	if owner, used := r.ids[id]; used && owner != page {
		r.log().Warn("award number already stored by another page", logger.Fields{
			"award": id,
			"page":  page,
			"owner": owner,
		})
		r.metrics().IncrCounter("record.collision")
		id = ref.ID()
		if owner, used := r.ids[id]; used && owner != page {
			return id, false
		}
	}
	r.ids[id] = page
	return id, true
}

// processImage returns the stored path, or "" on failure
func (r *run) processImage(ctx context.Context, ref award.Reference) string {
	fields := logger.Fields{"url": r.Fetcher.URL(ref), "award": ref.ID()}

	data, err := timed(r, func() ([]byte, error) { return r.Fetcher.Fetch(ctx, ref) })
	if err != nil {
		r.fail(ref, "fetching image", err, fields)
		return ""
	}
	path, err := r.Store.SaveImage(ref, data)
	if err != nil {
		r.fail(ref, "saving image", err, fields)
		return ""
	}

	r.metrics().IncrCounter("image.stored")
	r.mu.Lock()
	r.summary.Images++
	r.mark(ref, award.StatusStored)
	r.mu.Unlock()
	return path
}

func timed[T any](r *run, fetch func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fetch()
	r.metrics().RecordTiming("fetch", time.Since(start))
	if err != nil {
		r.metrics().IncrCounter("fetch.failed")
	} else {
		r.metrics().IncrCounter("fetch.ok")
	}
	return v, err
}

func (r *run) fail(ref award.Reference, action string, err error, fields logger.Fields) {
	r.log().Error(action+" failed", fields, err)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Failed = append(r.summary.Failed, Failure{Reference: ref, Error: err.Error()})
	r.mark(ref, award.StatusFailed)
}

func (r *run) flag(ref award.Reference, err error, fields logger.Fields) {
	steps := extract.FailedSteps(err)
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = string(s)
	}
	fields["step"] = names
	r.log().Warn("page deviates from award template", fields)
	r.metrics().IncrCounter("extract.structural")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Flagged = append(r.summary.Flagged, Flagged{Reference: ref, Steps: steps, Error: err.Error()})
	r.mark(ref, award.StatusFlagged)
}

// claim reserves a reference for this run. References already handled by the
// run, or by an earlier crawl when NewOnly is set, are refused.
func (r *run) claim(ref award.Reference) claimState {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ref.Key()
	if r.claimed[key] {
		return claimTaken
	}
	r.claimed[key] = true

	if r.NewOnly && r.Manifest != nil && r.Manifest.Has(ref) {
		r.summary.Skipped++
		r.metrics().IncrCounter("skip.known")
		return claimKnown
	}
	return claimOwned
}

func (r *run) list(ref award.Reference) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listed[ref.Key()] = true
}

// mark must be called with r.mu held
func (r *run) mark(ref award.Reference, status string) {
	if r.Manifest != nil {
		r.Manifest.Mark(ref, status, r.now().UTC())
	}
}

func (r *run) finish(elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sort.Slice(r.summary.Flagged, func(i, j int) bool {
		return r.summary.Flagged[i].Reference.Key() < r.summary.Flagged[j].Reference.Key()
	})
	sort.Slice(r.summary.Failed, func(i, j int) bool {
		return r.summary.Failed[i].Reference.Key() < r.summary.Failed[j].Reference.Key()
	})
	r.summary.Duration = elapsed.Round(time.Millisecond).String()
}

func (r *run) log() *logger.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logger.Default()
}

func (r *run) metrics() *logger.Metrics {
	if r.Metrics != nil {
		return r.Metrics
	}
	return logger.DefaultMetrics()
}

func (r *run) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
