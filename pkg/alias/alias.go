// CLAUDE:SUMMARY Curated override table: aliases, state aliases, non-mappable entities, historical parents and manual pins.
package alias

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cyberkunju/NREGA-sub000/pkg/normalize"
)

// ErrDuplicateAlias is returned when two aliases share the same key.
var ErrDuplicateAlias = errors.New("duplicate alias")

// Entry is one curated alias: a known problem name and the name the
// system should treat it as.
type Entry struct {
	Name      string `yaml:"name" json:"name"`
	Canonical string `yaml:"canonical" json:"canonical"`
	// State scopes the alias to one state. Empty applies everywhere.
	State string `yaml:"state,omitempty" json:"state,omitempty"`
	Note  string `yaml:"note,omitempty" json:"note,omitempty"`
}

// StateAlias maps a state spelling or former name to its current name.
type StateAlias struct {
	Name      string `yaml:"name"`
	Canonical string `yaml:"canonical"`
}

// NonMappable marks a source region that has no drawable boundary.
type NonMappable struct {
	State    string `yaml:"state"`
	District string `yaml:"district"`
	Note     string `yaml:"note,omitempty"`
}

// Parent records the historical parent of a newly created district.
type Parent struct {
	State    string `yaml:"state"`
	District string `yaml:"district"`
	Parent   string `yaml:"parent"`
	// ParentState defaults to State.
	ParentState string `yaml:"parent_state,omitempty"`
}

// Pin is a human-adjudicated mapping from a source region to a target id.
type Pin struct {
	State    string `yaml:"state"`
	District string `yaml:"district"`
	TargetID string `yaml:"target_id"`
	Note     string `yaml:"note,omitempty"`
}

// Document is the on-disk shape of the overrides file.
type Document struct {
	Version      string        `yaml:"version"`
	Aliases      []Entry       `yaml:"aliases"`
	StateAliases []StateAlias  `yaml:"state_aliases"`
	NonMappable  []NonMappable `yaml:"non_mappable"`
	Parents      []Parent      `yaml:"parents"`
	Manual       []Pin         `yaml:"manual"`
}

type aliasKey struct {
	state string // normalized, canonical state; "" for unscoped
	name  string // super-normalized
}

// Table is the validated, read-only form of a Document. It is built once
// per pass and never mutated afterwards, so it is safe to share between
// goroutines.
type Table struct {
	version     string
	aliases     map[aliasKey]Entry
	canonical   map[aliasKey]string
	states      map[string]string
	nonMappable map[normalize.Key]string
	parents     map[normalize.Key]normalize.Key
	manual      map[normalize.Key]Pin
}

// Empty returns a table with no overrides.
func Empty() *Table {
	t, _ := Build(&Document{})
	return t
}

// Build validates doc and indexes it. Duplicate alias keys, duplicate state
// aliases and entries with missing fields are rejected.
func Build(doc *Document) (*Table, error) {
	t := &Table{
		version:     doc.Version,
		aliases:     make(map[aliasKey]Entry, len(doc.Aliases)),
		canonical:   make(map[aliasKey]string, len(doc.Aliases)),
		states:      make(map[string]string, len(doc.StateAliases)),
		nonMappable: make(map[normalize.Key]string, len(doc.NonMappable)),
		parents:     make(map[normalize.Key]normalize.Key, len(doc.Parents)),
		manual:      make(map[normalize.Key]Pin, len(doc.Manual)),
	}

	// State aliases first: scoped aliases are keyed by canonical state.
	for i, sa := range doc.StateAliases {
		from, to := normalize.Normalize(sa.Name), normalize.Normalize(sa.Canonical)
		if from == "" || to == "" {
			return nil, fmt.Errorf("state_aliases[%d]: name and canonical are required", i)
		}
		if _, dup := t.states[from]; dup {
			return nil, fmt.Errorf("state_aliases[%d] %q: %w", i, sa.Name, ErrDuplicateAlias)
		}
		t.states[from] = to
	}

	for i, e := range doc.Aliases {
		name, canon := normalize.SuperNormalize(e.Name), normalize.Normalize(e.Canonical)
		if name == "" || canon == "" {
			return nil, fmt.Errorf("aliases[%d]: name and canonical are required", i)
		}
		k := aliasKey{state: t.CanonicalState(e.State), name: name}
		if prev, dup := t.aliases[k]; dup {
			return nil, fmt.Errorf("aliases[%d] %q collides with %q: %w", i, e.Name, prev.Name, ErrDuplicateAlias)
		}
		t.aliases[k] = e
		t.canonical[k] = canon
	}

	for i, nm := range doc.NonMappable {
		k, err := entityKey(nm.State, nm.District)
		if err != nil {
			return nil, fmt.Errorf("non_mappable[%d]: %w", i, err)
		}
		t.nonMappable[k] = nm.Note
	}

	for i, p := range doc.Parents {
		k, err := entityKey(p.State, p.District)
		if err != nil {
			return nil, fmt.Errorf("parents[%d]: %w", i, err)
		}
		if normalize.Normalize(p.Parent) == "" {
			return nil, fmt.Errorf("parents[%d]: parent is required", i)
		}
		ps := p.ParentState
		if ps == "" {
			ps = p.State
		}
		t.parents[k] = normalize.NewKey(ps, p.Parent)
	}

	for i, p := range doc.Manual {
		k, err := entityKey(p.State, p.District)
		if err != nil {
			return nil, fmt.Errorf("manual[%d]: %w", i, err)
		}
		if p.TargetID == "" {
			return nil, fmt.Errorf("manual[%d]: target_id is required", i)
		}
		if _, dup := t.manual[k]; dup {
			return nil, fmt.Errorf("manual[%d] %s: duplicate pin", i, k)
		}
		t.manual[k] = p
	}

	return t, nil
}

func entityKey(state, district string) (normalize.Key, error) {
	if normalize.Normalize(state) == "" || normalize.Normalize(district) == "" {
		return "", fmt.Errorf("state and district are required")
	}
	return normalize.NewKey(state, district), nil
}

// Version returns the curated data version declared in the file.
func (t *Table) Version() string { return t.version }

// Len returns the number of aliases.
func (t *Table) Len() int { return len(t.aliases) }

// CanonicalState normalizes a raw state name and follows state aliases.
func (t *Table) CanonicalState(raw string) string {
	s := normalize.Normalize(raw)
	if to, ok := t.states[s]; ok {
		return to
	}
	return s
}

// Lookup returns the normalized canonical name for a district name. The
// name is super-normalized first, so raw, normalized and super-normalized
// input all work. An alias scoped to state wins over an unscoped one.
func (t *Table) Lookup(state, name string) (string, bool) {
	n := normalize.SuperNormalize(name)
	if n == "" {
		return "", false
	}
	if s := t.CanonicalState(state); s != "" {
		if c, ok := t.canonical[aliasKey{state: s, name: n}]; ok {
			return c, true
		}
	}
	c, ok := t.canonical[aliasKey{name: n}]
	return c, ok
}

// NonMappable reports whether key is annotated as having no boundary.
func (t *Table) NonMappable(key normalize.Key) (note string, ok bool) {
	note, ok = t.nonMappable[key]
	return note, ok
}

// Parent returns the historical parent key recorded for key.
func (t *Table) Parent(key normalize.Key) (normalize.Key, bool) {
	p, ok := t.parents[key]
	return p, ok
}

// Pin returns the manual pin for key.
func (t *Table) Pin(key normalize.Key) (Pin, bool) {
	p, ok := t.manual[key]
	return p, ok
}

// Targets is the view of the target catalog needed to validate overrides.
type Targets interface {
	// HasDistrict reports whether a target with this normalized name exists,
	// within state when state is non-empty.
	HasDistrict(state, normalizedName string) bool
	// HasID reports whether a target with this stable id exists.
	HasID(id string) bool
}

// Warning is a tolerated inconsistency between the overrides and the
// current target catalog.
type Warning struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Kind + " " + w.Subject + ": " + w.Message
}

// Validate checks every alias and pin against the target catalog. Problems
// are returned as warnings, sorted for stable reports. Aliases stay in the
// table: the target catalog may simply lag behind.
func (t *Table) Validate(targets Targets) []Warning {
	var warns []Warning
	for k, e := range t.aliases {
		canon := t.canonical[k]
		if targets.HasDistrict(k.state, canon) {
			continue
		}
		subject := k.name
		if k.state != "" {
			subject = k.state + "/" + k.name
		}
		warns = append(warns, Warning{
			Kind:    "alias",
			Subject: subject,
			Message: fmt.Sprintf("canonical %q (from %q) not found in target catalog", canon, e.Name),
		})
	}
	for k, p := range t.manual {
		if targets.HasID(p.TargetID) {
			continue
		}
		warns = append(warns, Warning{
			Kind:    "manual",
			Subject: string(k),
			Message: fmt.Sprintf("target id %q not found in target catalog", p.TargetID),
		})
	}
	sort.Slice(warns, func(i, j int) bool {
		if warns[i].Kind != warns[j].Kind {
			return warns[i].Kind < warns[j].Kind
		}
		return warns[i].Subject < warns[j].Subject
	})
	return warns
}
