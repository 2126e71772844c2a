package registry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cyberkunju/NREGA-sub000/pkg/matcher"
	"github.com/cyberkunju/NREGA-sub000/pkg/normalize"
)

// ErrDuplicateKey is returned when a pass reports the same CompositeKey twice.
var ErrDuplicateKey = errors.New("duplicate composite key")

// Registry accumulates the results of one pass. It is filled by a single
// goroutine after resolution completes; Finalize is the barrier at which
// collisions are grouped.
type Registry struct {
	results        map[normalize.Key]matcher.Result
	targetIDs      []string
	invalidTargets int
	duplicateRows  int
}

// New creates an empty registry. targetIDs are the distinct stable ids of
// the target catalog in catalog order.
func New(targetIDs []string) *Registry {
	return &Registry{
		results:   make(map[normalize.Key]matcher.Result),
		targetIDs: targetIDs,
	}
}

// SetInvalidTargets records how many target rows were unusable.
func (r *Registry) SetInvalidTargets(n int) { r.invalidTargets = n }

// SetDuplicateSourceRows records how many source rows were merged into an
// earlier row with the same key.
func (r *Registry) SetDuplicateSourceRows(n int) { r.duplicateRows = n }

// Len returns the number of keys recorded.
func (r *Registry) Len() int { return len(r.results) }

// Add records one resolution. Each key may be added once, and a result must
// carry exactly one of a mapping and an exclusion.
func (r *Registry) Add(res matcher.Result) error {
	if (res.Mapping == nil) == (res.Exclusion == nil) {
		return fmt.Errorf("result for %s must have exactly one of mapping and exclusion", res.Key)
	}
	if _, dup := r.results[res.Key]; dup {
		return fmt.Errorf("%s: %w", res.Key, ErrDuplicateKey)
	}
	r.results[res.Key] = res
	return nil
}

// Finalize groups mappings by target, flags collisions, computes the
// summary and returns the artifact. The registry is not modified.
func (r *Registry) Finalize() *Artifact {
	a := &Artifact{
		Mappings:        make(map[string]MappingRecord),
		Excluded:        make(map[string]ExclusionRecord),
		Collisions:      make(map[string][]string),
		UnmappedTargets: []TargetID{},
		Summary: Summary{
			TotalSource:         len(r.results),
			TotalTarget:         len(r.targetIDs),
			InvalidTargets:      r.invalidTargets,
			DuplicateSourceRows: r.duplicateRows,
			Methods:             make(map[string]int),
			Reasons:             make(map[string]int),
		},
	}

	byTarget := make(map[string][]string)
	for key, res := range r.results {
		k := string(key)
		if m := res.Mapping; m != nil {
			a.Mappings[k] = MappingRecord{
				TargetID:   TargetID(m.TargetID),
				Confidence: m.Confidence,
				Method:     string(m.Method),
				Note:       m.Note,
			}
			byTarget[m.TargetID] = append(byTarget[m.TargetID], k)
			a.Summary.Methods[string(m.Method)]++
			continue
		}
		x := res.Exclusion
		rec := ExclusionRecord{
			Reason:                  string(x.Reason),
			ParentAggregationTarget: string(x.Parent),
			BestCandidate:           TargetID(x.BestCandidate),
			BestScore:               round(x.BestScore, 4),
			Note:                    x.Note,
		}
		for _, c := range x.Candidates {
			rec.Candidates = append(rec.Candidates, TargetID(c))
		}
		a.Excluded[k] = rec
		a.Summary.Reasons[string(x.Reason)]++
	}

	for id, keys := range byTarget {
		if len(keys) < 2 {
			continue
		}
		sort.Strings(keys)
		a.Collisions[id] = keys
		for _, k := range keys {
			m := a.Mappings[k]
			m.Provisional = true
			a.Mappings[k] = m
		}
	}

	for _, id := range r.targetIDs {
		if _, used := byTarget[id]; !used {
			a.UnmappedTargets = append(a.UnmappedTargets, TargetID(id))
		}
	}

	s := &a.Summary
	s.Mapped = len(a.Mappings)
	s.Excluded = len(a.Excluded)
	s.Collisions = len(a.Collisions)
	s.UnmappedTargets = len(a.UnmappedTargets)
	if s.TotalSource > 0 {
		s.CoveragePercent = round(100*float64(s.Mapped)/float64(s.TotalSource), 2)
	}
	return a
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
