package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/skyplay/internal/formatter"
	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/shared"
)

const (
	defaultExportWorkers = 4
	maxExportWorkers     = 10
	defaultRateLimit     = 5.0
)

// BulkExportOpts contains configuration for bulk selection exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: skyplay_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Selection fetches per second (default: 5)
	WithCovers bool    // Download the first track's logo as the markdown cover
}

// SelectionExportJob is a resolved selection waiting to be written.
type SelectionExportJob struct {
	SelectionID int
	Export      *models.SelectionTracks
}

// BulkExport exports selections concurrently with rate limiting and progress tracking.
//
// An empty ids exports every selection in the catalog. Fetches are rate
// limited on a single producer goroutine, while a pool of workers writes
// files. Partial failures are recorded per selection and summarized in
// export_manifest.json inside the output directory.
func (e *CatalogEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ids []int,
	opts BulkExportOpts,
) (*formatter.BulkExportResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}

	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("skyplay_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultExportWorkers
	}
	opts.NumWorkers = min(opts.NumWorkers, maxExportWorkers)
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if len(ids) == 0 {
		e.sendProgress(prog, fetchSelectionsUpdate(1, 1))
		selections, err := e.catalog.FetchSelections(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range selections {
			ids = append(ids, s.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &formatter.BulkExportResult{
		TotalSelections: len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]formatter.SelectionExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan SelectionExportJob, len(ids))
	results := make(chan formatter.SelectionExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				results <- formatter.SelectionExportResult{
					SelectionID:   id,
					SelectionName: fmt.Sprintf("Unknown (%d)", id),
					Error:         err,
				}
				continue
			}

			export, err := e.catalog.FetchSelectionTracks(ctx, id)
			if err != nil {
				results <- formatter.SelectionExportResult{
					SelectionID:   id,
					SelectionName: fmt.Sprintf("Unknown (%d)", id),
					Error:         fmt.Errorf("failed to fetch selection: %w", err),
				}
				continue
			}

			e.sendProgress(prog, exportingSelectionUpdate(i+1, len(ids), export))
			jobs <- SelectionExportJob{SelectionID: id, Export: export}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.SelectionName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.SelectionName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, ctx.Err()
}

// exportWorker writes selections from the jobs channel until it closes.
//
// Jobs received after cancellation are reported as failures so every id
// produces exactly one result.
func (e *CatalogEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan SelectionExportJob,
	results chan<- formatter.SelectionExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- formatter.SelectionExportResult{
				SelectionID:   job.SelectionID,
				SelectionName: job.Export.Name,
				Error:         err,
			}
			continue
		}
		results <- e.exportSelection(job, opts)
	}
}

// exportSelection writes a single selection in the requested format.
func (e *CatalogEngine) exportSelection(j SelectionExportJob, opts BulkExportOpts) formatter.SelectionExportResult {
	result := formatter.SelectionExportResult{
		SelectionID:   j.SelectionID,
		SelectionName: j.Export.Name,
		Files:         []string{},
	}

	base := "selection_" + models.FormatID(j.SelectionID)

	switch opts.Format {
	case formatter.FormatCSV:
		csvRes, err := formatter.WriteCSVExport(j.Export, filepath.Join(opts.OutputDir, base))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}

	case formatter.FormatMarkdown:
		var imageURL string
		if opts.WithCovers && len(j.Export.Tracks) > 0 {
			imageURL = j.Export.Tracks[0].Logo
		}

		mdRes, err := formatter.WriteMarkdownExport(j.Export, filepath.Join(opts.OutputDir, base), imageURL)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files

	case formatter.FormatText:
		path, err := formatter.WriteTextExport(j.Export, filepath.Join(opts.OutputDir, base+"_tracks.txt"))
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	default:
		path, err := formatter.WriteJSONExport(j.Export, filepath.Join(opts.OutputDir, base+".json"))
		if err != nil {
			result.Error = fmt.Errorf("JSON export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	e.logger.Debug("selection exported", "id", j.SelectionID, "files", len(result.Files))
	return result
}
