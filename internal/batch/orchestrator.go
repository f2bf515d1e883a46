package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"saucebatch/internal/classify"
	"saucebatch/internal/danbooru"
	"saucebatch/internal/fileutil"
	"saucebatch/internal/logging"
	"saucebatch/internal/results"
	"saucebatch/internal/saucenao"
)

const (
	// NoResultsDirName receives files whose search found nothing.
	NoResultsDirName = "no_results"
	// CompleteDirName receives files whose search found identifiers.
	CompleteDirName = "search_complete"

	// statusFailurePenalty is the pause applied after a non-200 search
	// response. The failed file is not resubmitted.
	statusFailurePenalty = 10 * time.Second
)

// Searcher is the reverse-image-search surface the runner drives.
type Searcher interface {
	Search(ctx context.Context, filename string, image []byte, threshold float64) ([]saucenao.Entry, error)
}

// Enricher resolves board-post metadata. A nil Enricher disables the
// enrichment step entirely.
type Enricher interface {
	Post(ctx context.Context, id string) (*danbooru.PostInfo, error)
}

// Options carries the run parameters that are plain values rather than
// collaborators.
type Options struct {
	Folder    string
	Threshold float64
	RunID     string
}

// Deps bundles the runner's collaborators. Report may be nil (outcomes
// are then only logged); Sleep defaults to time.Sleep and exists so
// tests can observe the backoff without waiting.
type Deps struct {
	Searcher    Searcher
	Enricher    Enricher
	Accumulator *results.Accumulator
	Report      *results.ReportStore
	Pacer       *Pacer
	Logger      *slog.Logger
	Sleep       func(time.Duration)
}

// Summary aggregates the run for the final console table.
type Summary struct {
	RunID     string
	Processed int
	Completed int
	NoResults int
	Failed    int
}

// Runner drives the per-file pipeline: search, classify, merge, enrich,
// record, relocate. Files are processed strictly sequentially; the
// accumulator has no concurrent writers.
type Runner struct {
	opts     Options
	searcher Searcher
	enricher Enricher
	acc      *results.Accumulator
	report   *results.ReportStore
	pacer    *Pacer
	logger   *slog.Logger
	sleep    func(time.Duration)
}

// NewRunner validates and wires a runner.
func NewRunner(opts Options, deps Deps) (*Runner, error) {
	if opts.Folder == "" {
		return nil, errors.New("runner requires a source folder")
	}
	if deps.Searcher == nil {
		return nil, errors.New("runner requires a searcher")
	}
	if deps.Accumulator == nil {
		return nil, errors.New("runner requires an accumulator")
	}
	if deps.Pacer == nil {
		deps.Pacer = NewPacer(0)
	}
	if deps.Sleep == nil {
		deps.Sleep = time.Sleep
	}
	return &Runner{
		opts:     opts,
		searcher: deps.Searcher,
		enricher: deps.Enricher,
		acc:      deps.Accumulator,
		report:   deps.Report,
		pacer:    deps.Pacer,
		logger:   logging.NewComponentLogger(deps.Logger, "batch"),
		sleep:    deps.Sleep,
	}, nil
}

// Run processes every eligible image in the folder. Individual file
// failures are logged and skipped; only listing errors and context
// cancellation abort the batch.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: r.opts.RunID}

	files, err := fileutil.ListImages(r.opts.Folder)
	if err != nil {
		return summary, fmt.Errorf("list images in %q: %w", r.opts.Folder, err)
	}
	if len(files) == 0 {
		r.logger.Info("no image files found", logging.String("folder", r.opts.Folder))
		return summary, nil
	}

	if err := r.ensureDestinations(); err != nil {
		return summary, err
	}

	r.logger.Info("starting batch",
		logging.String("folder", r.opts.Folder),
		logging.Int("files", len(files)),
		logging.Float64("threshold", r.opts.Threshold),
		logging.Bool("enrichment", r.enricher != nil),
	)

	for index, name := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		r.logger.Info("searching image",
			logging.Int("index", index+1),
			logging.Int("total", len(files)),
			logging.String("file", name),
		)
		r.processFile(ctx, name, &summary)
	}

	return summary, nil
}

func (r *Runner) processFile(ctx context.Context, name string, summary *Summary) {
	sourcePath := filepath.Join(r.opts.Folder, name)

	image, err := os.ReadFile(sourcePath)
	if err != nil {
		r.logger.Error("read file failed", logging.String("file", name), logging.Error(err))
		summary.Failed++
		r.recordOutcome(ctx, results.FileOutcome{File: name, Status: results.StatusSearchFailed})
		return
	}

	if err := r.pacer.Wait(ctx); err != nil {
		summary.Failed++
		return
	}

	entries, err := r.searcher.Search(ctx, name, image, r.opts.Threshold)
	if err != nil {
		summary.Failed++
		var statusErr *saucenao.StatusError
		switch {
		case errors.As(err, &statusErr):
			r.logger.Error("search returned bad status",
				logging.String("file", name),
				logging.Int("status", statusErr.Code),
			)
			r.recordOutcome(ctx, results.FileOutcome{File: name, Status: results.StatusSearchFailed})
			r.sleep(statusFailurePenalty)
		case errors.Is(err, saucenao.ErrMalformedResponse):
			r.logger.Error("search response unparseable", logging.String("file", name), logging.Error(err))
			r.recordOutcome(ctx, results.FileOutcome{File: name, Status: results.StatusParseFailed})
		default:
			r.logger.Error("search request failed", logging.String("file", name), logging.Error(err))
			r.recordOutcome(ctx, results.FileOutcome{File: name, Status: results.StatusSearchFailed})
		}
		// The file stays in the source folder for a manual re-run.
		return
	}

	found := classify.Classify(saucenao.CandidateURLs(entries))

	newDanbooru := r.merge(found, name)
	r.enrich(ctx, name, newDanbooru, len(found.DanbooruIDs))

	r.acc.AppendRecord(results.Record{
		File:        name,
		PixivIDs:    emptyIfNil(found.PixivIDs),
		TwitterURLs: emptyIfNil(found.TwitterURLs),
		DanbooruIDs: emptyIfNil(found.DanbooruIDs),
		GelbooruIDs: emptyIfNil(found.GelbooruIDs),
	})
	r.logger.Info("file classified",
		logging.String("file", name),
		logging.Int("pixiv", len(found.PixivIDs)),
		logging.Int("twitter", len(found.TwitterURLs)),
		logging.Int("danbooru", len(found.DanbooruIDs)),
	)

	r.relocate(ctx, name, sourcePath, found, summary)
}

// merge folds this file's findings into the deduplicated sets and
// returns the board-post IDs that were not known before.
func (r *Runner) merge(found classify.Classification, name string) []string {
	for _, id := range found.PixivIDs {
		r.acc.AddPixiv(id, name)
	}
	for _, url := range found.TwitterURLs {
		r.acc.AddTwitter(url, name)
	}
	var fresh []string
	for _, id := range found.DanbooruIDs {
		if r.acc.AddDanbooru(id, name) {
			fresh = append(fresh, id)
		}
	}
	return fresh
}

// enrich resolves metadata for newly discovered board-post IDs only;
// already-enriched IDs keep their stored info. Cross-referenced
// identifiers are tagged with the current file's name. Per-ID failures
// are surfaced as errors in the log but do not fail the file.
func (r *Runner) enrich(ctx context.Context, name string, ids []string, foundDanbooru int) {
	if r.enricher == nil {
		if foundDanbooru > 0 {
			r.logger.Info("danbooru credentials not configured, skipping enrichment",
				logging.String("file", name),
				logging.Int("ids", foundDanbooru),
			)
		}
		return
	}
	for _, id := range ids {
		info, err := r.enricher.Post(ctx, id)
		if err != nil {
			r.logger.Error("enrichment failed",
				logging.String("file", name),
				logging.String("danbooru_id", id),
				logging.Error(err),
			)
			continue
		}
		if info.PixivID != "" {
			r.acc.AddPixiv(info.PixivID, name)
		}
		if info.SocialURL != "" {
			r.acc.AddTwitter(info.SocialURL, name)
		}
		r.acc.SetBoardInfo(*info)
	}
}

// relocate moves the file to exactly one terminal directory. A search
// that completed always relocates; only a rename failure leaves the
// file behind.
func (r *Runner) relocate(ctx context.Context, name, sourcePath string, found classify.Classification, summary *Summary) {
	destDir := CompleteDirName
	status := results.StatusCompleted
	if found.Empty() {
		destDir = NoResultsDirName
		status = results.StatusNoResults
	}
	destPath := filepath.Join(r.opts.Folder, destDir, name)

	if err := fileutil.MoveFile(sourcePath, destPath); err != nil {
		r.logger.Error("relocation failed",
			logging.String("file", name),
			logging.String("destination", destPath),
			logging.Error(err),
		)
		summary.Failed++
		r.recordOutcome(ctx, r.outcomeFor(name, results.StatusRelocateFailed, "", found))
		return
	}

	if status == results.StatusCompleted {
		summary.Completed++
	} else {
		summary.NoResults++
	}
	r.logger.Info("file relocated",
		logging.String("file", name),
		logging.String("destination", filepath.Join(destDir, name)),
	)
	r.recordOutcome(ctx, r.outcomeFor(name, status, filepath.Join(destDir, name), found))
}

func (r *Runner) outcomeFor(name, status, destination string, found classify.Classification) results.FileOutcome {
	return results.FileOutcome{
		File:          name,
		Status:        status,
		PixivCount:    len(found.PixivIDs),
		TwitterCount:  len(found.TwitterURLs),
		DanbooruCount: len(found.DanbooruIDs),
		Destination:   destination,
	}
}

func (r *Runner) recordOutcome(ctx context.Context, outcome results.FileOutcome) {
	if r.report == nil {
		return
	}
	outcome.ProcessedAt = time.Now()
	if err := r.report.RecordFile(ctx, r.opts.RunID, outcome); err != nil {
		r.logger.Warn("failed to record file outcome", logging.String("file", outcome.File), logging.Error(err))
	}
}

func (r *Runner) ensureDestinations() error {
	for _, dir := range []string{NoResultsDirName, CompleteDirName} {
		path := filepath.Join(r.opts.Folder, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", path, err)
		}
	}
	return nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
