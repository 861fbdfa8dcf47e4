package core

// pipeline.go is the streaming orchestrator.
//
// A run compiles the mapping once, then walks the rows in size-adaptive
// chunks. Each chunk goes through the validation core, the hook layer and
// the structural schema check. Chunks are strictly sequential because the
// uniqueness tracker is shared and must observe rows in order. Between
// chunks the run yields and checks its context, so a caller can abandon it
// at any chunk boundary; results are derived purely from the input, so an
// abandoned run is safe to discard.

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/time/rate"
)

// Chunk sizes chosen by column count.
const (
	chunkSizeNarrow  = 3000 // up to 8 columns
	chunkSizeMedium  = 2000 // up to 16 columns
	chunkSizeWide    = 1000
	chunkSizeDefault = 1000
)

// DefaultProgressInterval debounces progress callbacks.
const DefaultProgressInterval = 250 * time.Millisecond

// ProgressFunc receives progress snapshots during a run.
// Chunks and grouped views are only populated on the final call.
type ProgressFunc func(ValidationProgress)

// Pipeline bundles the rule catalog with run settings.
type Pipeline struct {
	Rules            RuleSet
	Options          PlanOptions
	ChangeCap        int
	ProgressInterval time.Duration
}

// NewPipeline returns a pipeline over the default catalog and plan options.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Rules:            DefaultRules(),
		Options:          DefaultPlanOptions(),
		ChangeCap:        DefaultChangeCap,
		ProgressInterval: DefaultProgressInterval,
	}
}

// Compile builds a plan for mapping using the pipeline's catalog and options.
func (p *Pipeline) Compile(mapping Mapping) (*Plan, error) {
	return CompileWith(mapping, p.Rules, p.Options)
}

// ChunkSize picks rows per chunk from the column count of the first row.
func ChunkSize(rows []Row) int {
	if len(rows) == 0 {
		return chunkSizeDefault
	}
	cols := len(rows[0])
	switch {
	case cols <= 8:
		return chunkSizeNarrow
	case cols <= 16:
		return chunkSizeMedium
	default:
		return chunkSizeWide
	}
}

// ValidateChunk runs the full per-row path on rows whose first global index
// is startRow: validation core, hooks, then the schema check. A nil tracker
// limits duplicate detection to this chunk.
func (p *Pipeline) ValidateChunk(rows []Row, startRow int, plan *Plan, tracker *UniqueTracker) ValidationChunk {
	cleaned := Run(rows, plan, tracker, startRow)
	hooked := ApplyHooks(cleaned.Rows, plan, plan.Hooks.CleanUp, startRow, p.ChangeCap)

	errs := make([]ValidationError, 0, len(cleaned.Errors)+len(hooked.Errors))
	errs = append(errs, cleaned.Errors...)
	errs = append(errs, hooked.Errors...)

	targets := plan.Targets()
	for i, row := range hooked.Rows {
		for _, he := range CheckSchema(row, targets) {
			errs = append(errs, ValidationError{
				Row:     startRow + i,
				Field:   he.Field,
				Message: he.Message,
				Value:   row[string(he.Field)],
			})
		}
	}

	changes := make([]CleaningChange, 0, len(cleaned.Changes)+len(hooked.Changes))
	changes = append(changes, cleaned.Changes...)
	changes = append(changes, hooked.Changes...)

	return ValidationChunk{
		StartRow: startRow,
		EndRow:   startRow + len(rows),
		Rows:     hooked.Rows,
		Errors:   errs,
		Changes:  changes,
	}
}

// RunAll validates every row. The progress callback fires at most once per
// ProgressInterval while running and always once more on completion.
//
// If ctx is cancelled between chunks, RunAll returns the partial progress
// (IsComplete false) together with ctx.Err().
func (p *Pipeline) RunAll(ctx context.Context, rows []Row, mapping Mapping, onProgress ProgressFunc) (ValidationProgress, error) {
	plan, err := p.Compile(mapping)
	if err != nil {
		return ValidationProgress{}, err
	}
	return p.RunPlan(ctx, rows, plan, onProgress)
}

// RunPlan is RunAll with an already compiled plan.
func (p *Pipeline) RunPlan(ctx context.Context, rows []Row, plan *Plan, onProgress ProgressFunc) (ValidationProgress, error) {
	start := time.Now()
	size := ChunkSize(rows)

	var tracker *UniqueTracker
	if plan.HasUniquenessChecks {
		tracker = NewUniqueTracker()
	}

	interval := p.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	throttle := rate.Sometimes{Interval: interval}

	progress := ValidationProgress{
		Metadata: ProgressMetadata{TotalRows: len(rows)},
	}

	slog.Debug("validation run started",
		"rows", len(rows),
		"chunk_size", size,
		"complexity", plan.EstimatedComplexity,
	)

	for startRow := 0; startRow < len(rows); startRow += size {
		end := min(startRow+size, len(rows))

		chunk := p.ValidateChunk(rows[startRow:end], startRow, plan, tracker)
		progress.Chunks = append(progress.Chunks, chunk)
		progress.Metadata.ProcessedRows = end
		progress.Metadata.ErrorCount += len(chunk.Errors)
		progress.Metadata.ChangeCount += len(chunk.Changes)
		progress.Metadata.EstimatedTimeRemaining = estimateRemaining(start, end, len(rows))

		slog.Debug("chunk validated",
			"start_row", startRow,
			"end_row", end,
			"errors", len(chunk.Errors),
			"changes", len(chunk.Changes),
		)

		if onProgress != nil && end < len(rows) {
			snapshot := ValidationProgress{Metadata: progress.Metadata}
			throttle.Do(func() { onProgress(snapshot) })
		}

		runtime.Gosched()
		if err := ctx.Err(); err != nil {
			return progress, err
		}
	}

	st := progress.State()
	progress.GroupedErrors = st.GroupedErrors
	progress.GroupedChanges = st.GroupedChanges
	progress.IsComplete = true
	progress.Metadata.EstimatedTimeRemaining = 0

	if onProgress != nil {
		onProgress(progress)
	}

	return progress, nil
}

func estimateRemaining(start time.Time, processed, total int) time.Duration {
	if processed <= 0 || processed >= total {
		return 0
	}
	elapsed := time.Since(start)
	perRow := elapsed / time.Duration(processed)
	return perRow * time.Duration(total-processed)
}
