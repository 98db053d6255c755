package convert

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tablecast/internal/diagnostic"
	"tablecast/internal/tableset"
)

// Result is the outcome of converting one identifier: either a rendered
// document or the error that record hit.
type Result struct {
	ID  string
	XML string
	Err error
}

// Summary aggregates a batch run, results in main-table order.
type Summary struct {
	Results []Result
}

// Converted returns the number of successfully rendered documents.
func (s *Summary) Converted() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil {
			n++
		}
	}

	return n
}

// Failed returns the number of records that hit an error.
func (s *Summary) Failed() int {
	return len(s.Results) - s.Converted()
}

// Diagnostics folds the per-record failures into a diagnostics
// collection.
func (s *Summary) Diagnostics() *diagnostic.Diagnostics {
	diags := &diagnostic.Diagnostics{}
	for _, r := range s.Results {
		if r.Err != nil {
			diags.AddError("convert-failed", r.Err.Error(), r.ID, "")
		}
	}

	return diags
}

// Batch converts every record of the main table, fanning the work out
// over a bounded worker pool. Records are independent, so failures stay
// in their Result slot and never stop the rest.
type Batch struct {
	asm  *Assembler
	sink Sink
	log  zerolog.Logger
}

// NewBatch wraps an Assembler for whole-export runs. Successful
// documents go to sink when one is given.
func NewBatch(asm *Assembler, sink Sink, log zerolog.Logger) *Batch {
	return &Batch{asm: asm, sink: sink, log: log}
}

// Run converts all submissions. The returned error reports setup
// problems and context cancellation only; per-record failures are in
// the Summary.
func (b *Batch) Run(ctx context.Context) (*Summary, error) {
	main, _ := b.asm.tables.Main()

	if !main.HasColumn(tableset.IDColumn) {
		return nil, fmt.Errorf("main table %q has no %s column", main.Name(), tableset.IDColumn)
	}

	ids := collectIDs(main, b.log)
	results := make([]Result, len(ids))

	g, ctx := errgroup.WithContext(ctx)

	limit := b.asm.cfg.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g.SetLimit(limit)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = b.convertOne(id)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{Results: results}

	b.log.Info().
		Int("converted", summary.Converted()).
		Int("failed", summary.Failed()).
		Msg("batch finished")

	return summary, nil
}

func (b *Batch) convertOne(id string) Result {
	doc, err := b.asm.Convert(id)
	if err != nil {
		b.log.Error().Err(err).Str("id", id).Msg("conversion failed")
		return Result{ID: id, Err: err}
	}

	if b.sink != nil {
		if err := b.sink.Put(id, doc); err != nil {
			return Result{ID: id, Err: err}
		}
	}

	return Result{ID: id, XML: doc}
}

// collectIDs returns the distinct identifiers in first-seen row order.
// Duplicates collapse onto their first row with a warning; rows with no
// identifier contribute a single empty entry, which later fails like
// any unknown identifier.
func collectIDs(main *tableset.Table, log zerolog.Logger) []string {
	seen := make(map[string]struct{}, main.Len())
	ids := make([]string, 0, main.Len())

	for i := 0; i < main.Len(); i++ {
		cell := main.Row(i).Value(tableset.IDColumn)

		id := ""
		if !cell.IsAbsent() {
			id = cell.Render()
		}

		if _, dup := seen[id]; dup {
			if id != "" {
				log.Warn().Str("id", id).Msg("duplicate identifier, keeping first row")
			}

			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}
