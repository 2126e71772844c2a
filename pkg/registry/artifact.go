// CLAUDE:SUMMARY MappingArtifact wire types: mappings, exclusions, collisions, summary; numeric-or-string target ids.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/cyberkunju/NREGA-sub000/pkg/normalize"
)

// TargetID is a target's stable identifier. Ids made only of digits (without
// a leading zero) are written as JSON numbers, everything else as strings,
// so "42" round-trips as 42 and "0042" stays "0042".
type TargetID string

func (id TargetID) MarshalJSON() ([]byte, error) {
	if isNumeric(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *TargetID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TargetID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("target id: %w", err)
	}
	*id = TargetID(n.String())
	return nil
}

func isNumeric(s string) bool {
	if s == "" || len(s) > 15 || (len(s) > 1 && s[0] == '0') {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// MappingRecord is the resolution of one source region to a target.
type MappingRecord struct {
	TargetID   TargetID `json:"targetId"`
	Confidence float64  `json:"confidence"`
	Method     string   `json:"method"`
	Note       string   `json:"note,omitempty"`
	// Provisional is set on every member of a collision.
	Provisional bool `json:"provisional,omitempty"`
}

// ExclusionRecord explains why a source region has no mapping.
type ExclusionRecord struct {
	Reason                  string     `json:"reason"`
	ParentAggregationTarget string     `json:"parentAggregationTarget,omitempty"`
	Candidates              []TargetID `json:"candidates,omitempty"`
	BestCandidate           TargetID   `json:"bestCandidate,omitempty"`
	BestScore               float64    `json:"bestScore,omitempty"`
	Note                    string     `json:"note,omitempty"`
}

// Summary holds the coverage statistics of one pass.
type Summary struct {
	TotalSource     int     `json:"totalSource"`
	TotalTarget     int     `json:"totalTarget"`
	Mapped          int     `json:"mapped"`
	Excluded        int     `json:"excluded"`
	CoveragePercent float64 `json:"coveragePercent"`

	Collisions          int            `json:"collisions"`
	UnmappedTargets     int            `json:"unmappedTargets"`
	InvalidTargets      int            `json:"invalidTargets"`
	DuplicateSourceRows int            `json:"duplicateSourceRows"`
	Methods             map[string]int `json:"methods"`
	Reasons             map[string]int `json:"reasons"`
}

// Artifact is the serialized output of a pass and the only contract
// downstream consumers rely on. Maps marshal with sorted keys and every
// list is sorted, so equal artifacts serialize to equal bytes.
type Artifact struct {
	Mappings        map[string]MappingRecord   `json:"mappings"`
	Excluded        map[string]ExclusionRecord `json:"excluded"`
	Collisions      map[string][]string        `json:"collisions"`
	UnmappedTargets []TargetID                 `json:"unmappedTargets"`
	Summary         Summary                    `json:"summary"`
}

// Marshal returns the canonical serialized form.
func (a *Artifact) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal parses an artifact and checks its invariants.
func Unmarshal(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	if a.Mappings == nil {
		a.Mappings = map[string]MappingRecord{}
	}
	if a.Excluded == nil {
		a.Excluded = map[string]ExclusionRecord{}
	}
	if a.Collisions == nil {
		a.Collisions = map[string][]string{}
	}
	if err := a.Check(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Check verifies the structural invariants: no key is both mapped and
// excluded, and every target shared by several mappings is a collision
// listing all of them.
func (a *Artifact) Check() error {
	for k := range a.Mappings {
		if _, dup := a.Excluded[k]; dup {
			return fmt.Errorf("key %q is both mapped and excluded", k)
		}
	}
	byTarget := make(map[string][]string)
	for k, m := range a.Mappings {
		byTarget[string(m.TargetID)] = append(byTarget[string(m.TargetID)], k)
	}
	for id, keys := range byTarget {
		if len(keys) < 2 {
			continue
		}
		sort.Strings(keys)
		got := append([]string(nil), a.Collisions[id]...)
		sort.Strings(got)
		if !slices.Equal(keys, got) {
			return fmt.Errorf("target %s is shared by %v but collisions lists %v", id, keys, got)
		}
	}
	return nil
}

// Entry is the artifact's answer for one CompositeKey.
type Entry struct {
	Key       normalize.Key    `json:"key"`
	Mapping   *MappingRecord   `json:"mapping,omitempty"`
	Exclusion *ExclusionRecord `json:"exclusion,omitempty"`
	// CollidesWith lists the other keys mapped to the same target.
	CollidesWith []string `json:"collidesWith,omitempty"`
}

// Found reports whether the key is present in the artifact at all.
func (e Entry) Found() bool { return e.Mapping != nil || e.Exclusion != nil }

// Lookup normalizes raw names to a CompositeKey and returns what the
// artifact says about it. No matching is performed.
func (a *Artifact) Lookup(state, district string) Entry {
	return a.LookupKey(normalize.NewKey(state, district))
}

// LookupKey returns the artifact entry for an already built key.
func (a *Artifact) LookupKey(key normalize.Key) Entry {
	e := Entry{Key: key}
	if m, ok := a.Mappings[string(key)]; ok {
		e.Mapping = &m
		for _, other := range a.Collisions[string(m.TargetID)] {
			if other != string(key) {
				e.CollidesWith = append(e.CollidesWith, other)
			}
		}
		return e
	}
	if x, ok := a.Excluded[string(key)]; ok {
		e.Exclusion = &x
	}
	return e
}
