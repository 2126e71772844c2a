// CLAUDE:SUMMARY Reconciliation driver: one full pass over both catalogs producing the mapping artifact, optionally sharded by state.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cyberkunju/NREGA-sub000/pkg/alias"
	"github.com/cyberkunju/NREGA-sub000/pkg/catalog"
	"github.com/cyberkunju/NREGA-sub000/pkg/matcher"
	"github.com/cyberkunju/NREGA-sub000/pkg/normalize"
	"github.com/cyberkunju/NREGA-sub000/pkg/registry"
)

var (
	// ErrEmptySourceCatalog aborts a pass whose source catalog has no rows.
	ErrEmptySourceCatalog = errors.New("source catalog is empty")
	// ErrEmptyTargetCatalog aborts a pass whose target catalog has no
	// usable rows.
	ErrEmptyTargetCatalog = errors.New("target catalog is empty")
)

// Inputs are the in-memory snapshots for one pass.
type Inputs struct {
	Sources []catalog.SourceEntity
	Targets []catalog.TargetEntity
	// Aliases may be nil.
	Aliases *alias.Table
}

// Options tune a pass.
type Options struct {
	Matcher matcher.Config
	// Workers > 0 resolves states in parallel on that many goroutines.
	Workers int
	Logger  *slog.Logger
}

// Outcome is the product of a successful pass.
type Outcome struct {
	Artifact *registry.Artifact
	// Results are in source order, one per CompositeKey.
	Results  []matcher.Result
	Warnings []alias.Warning
	Duration time.Duration
}

// Run executes one pass. It fails only on total failure (an empty catalog
// or invalid options); defects in individual rows end up in the artifact.
func Run(ctx context.Context, in Inputs, opts Options) (*Outcome, error) {
	start := time.Now()
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if err := opts.Matcher.Validate(); err != nil {
		return nil, fmt.Errorf("matcher config: %w", err)
	}
	if len(in.Sources) == 0 {
		return nil, ErrEmptySourceCatalog
	}
	aliases := in.Aliases
	if aliases == nil {
		aliases = alias.Empty()
	}

	index := matcher.NewTargetIndex(in.Targets, aliases)
	if index.Len() == 0 {
		if len(in.Targets) > 0 {
			return nil, fmt.Errorf("%w: all %d rows lack an id or a name", ErrEmptyTargetCatalog, len(in.Targets))
		}
		return nil, ErrEmptyTargetCatalog
	}
	for _, t := range index.Invalid() {
		log.Warn("skipping target row", "row", t.Row, "state", t.State, "district", t.District, "id", t.StableID)
	}

	warns := aliases.Validate(index)
	for _, w := range warns {
		log.Warn("override inconsistent with target catalog", "kind", w.Kind, "subject", w.Subject, "message", w.Message)
	}

	sources, dups := merge(in.Sources, log)
	pipe := matcher.New(opts.Matcher, aliases, index)

	results, err := resolve(ctx, pipe, aliases, sources, opts.Workers)
	if err != nil {
		return nil, err
	}

	reg := registry.New(index.IDs())
	reg.SetInvalidTargets(len(index.Invalid()))
	reg.SetDuplicateSourceRows(dups)
	for _, res := range results {
		if err := reg.Add(res); err != nil {
			return nil, fmt.Errorf("record result: %w", err)
		}
	}
	art := reg.Finalize()

	s := art.Summary
	log.Info("reconciliation complete",
		"source", s.TotalSource, "target", s.TotalTarget,
		"mapped", s.Mapped, "excluded", s.Excluded,
		"collisions", s.Collisions, "coverage", s.CoveragePercent,
		"duration", time.Since(start).Round(time.Millisecond))

	return &Outcome{
		Artifact: art,
		Results:  results,
		Warnings: warns,
		Duration: time.Since(start),
	}, nil
}

// merge folds source rows sharing a CompositeKey into the first occurrence.
func merge(rows []catalog.SourceEntity, log *slog.Logger) ([]catalog.SourceEntity, int) {
	seen := make(map[normalize.Key]int, len(rows))
	out := make([]catalog.SourceEntity, 0, len(rows))
	for _, r := range rows {
		k := normalize.NewKey(r.State, r.District)
		if first, dup := seen[k]; dup {
			log.Debug("merging duplicate source row", "key", k, "row", r.Row, "first_row", out[first].Row)
			continue
		}
		seen[k] = len(out)
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}

// resolve runs the pipeline over every source. With workers > 0 the sources
// are sharded by canonical state; each shard writes only its own slots, and
// g.Wait is the barrier before collisions are grouped.
func resolve(ctx context.Context, pipe *matcher.Pipeline, aliases *alias.Table, sources []catalog.SourceEntity, workers int) ([]matcher.Result, error) {
	results := make([]matcher.Result, len(sources))
	if workers <= 0 {
		for i, s := range sources {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = pipe.Resolve(s)
		}
		return results, nil
	}

	var order []string
	shards := make(map[string][]int)
	for i, s := range sources {
		st := aliases.CanonicalState(s.State)
		if _, ok := shards[st]; !ok {
			order = append(order, st)
		}
		shards[st] = append(shards[st], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, st := range order {
		idx := shards[st]
		g.Go(func() error {
			for _, i := range idx {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = pipe.Resolve(sources[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
