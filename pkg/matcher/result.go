package matcher

import (
	"github.com/cyberkunju/NREGA-sub000/pkg/catalog"
	"github.com/cyberkunju/NREGA-sub000/pkg/normalize"
)

// Method names the strategy that produced a mapping.
type Method string

const (
	MethodManual      Method = "manual"
	MethodAlias       Method = "alias"
	MethodExact       Method = "exact"
	MethodLooseExact  Method = "loose-exact"
	MethodContainment Method = "containment"
	MethodFuzzy       Method = "fuzzy"
)

// Reason explains why a source region was left unmapped.
type Reason string

const (
	// ReasonNewEntity: no candidate came close; typically a district created
	// after the boundary dataset was published.
	ReasonNewEntity Reason = "new-entity"
	// ReasonNonMappable: annotated as having no drawable boundary.
	ReasonNonMappable Reason = "non-mappable-entity"
	// ReasonAmbiguous: several distinct targets tied.
	ReasonAmbiguous Reason = "ambiguous"
	// ReasonBelowThreshold: the best fuzzy score fell in the review band.
	ReasonBelowThreshold Reason = "below-threshold"
	// ReasonInvalidInput: the source record lacks a state or district.
	ReasonInvalidInput Reason = "invalid-input"
)

// Mapping is a successful resolution.
type Mapping struct {
	TargetID   string
	Confidence float64
	Method     Method
	Note       string
}

// Exclusion is a resolution that found no acceptable target.
type Exclusion struct {
	Reason Reason
	// Parent is the historical parent region, when curated.
	Parent normalize.Key
	// Candidates lists the tied target ids of an ambiguous resolution.
	Candidates []string
	// BestCandidate and BestScore describe the closest fuzzy miss.
	BestCandidate string
	BestScore     float64
	Note          string
}

// Result is the outcome for one source region: exactly one of Mapping and
// Exclusion is set.
type Result struct {
	Key       normalize.Key
	Source    catalog.SourceEntity
	Mapping   *Mapping
	Exclusion *Exclusion
}

// Matched reports whether the result is a mapping.
func (r Result) Matched() bool { return r.Mapping != nil }
