package matcher

import (
	"github.com/cyberkunju/NREGA-sub000/pkg/alias"
	"github.com/cyberkunju/NREGA-sub000/pkg/catalog"
	"github.com/cyberkunju/NREGA-sub000/pkg/normalize"
)

// candidate is a target with its comparison forms computed once.
type candidate struct {
	entity catalog.TargetEntity
	order  int    // position in the catalog
	state  string // normalized, after state aliases
	name   string // normalized district
	super  string // super-normalized district
	runes  int    // rune length of super
}

// TargetIndex is the immutable, precomputed view of the target catalog
// that every resolution reads from. Build it once per pass.
type TargetIndex struct {
	candidates []candidate
	byState    map[string][]int
	ids        map[string]int
	names      map[string]bool
	supers     map[string]bool
	all        []int
	invalid    []catalog.TargetEntity
}

// NewTargetIndex indexes targets. Targets without a stable id or a usable
// district name cannot be matched and are set aside as invalid.
func NewTargetIndex(targets []catalog.TargetEntity, aliases *alias.Table) *TargetIndex {
	if aliases == nil {
		aliases = alias.Empty()
	}
	idx := &TargetIndex{
		byState: make(map[string][]int),
		ids:     make(map[string]int, len(targets)),
		names:   make(map[string]bool, 2*len(targets)),
		supers:  make(map[string]bool, 2*len(targets)),
	}
	for i, t := range targets {
		name := normalize.Normalize(t.District)
		if t.StableID == "" || name == "" {
			idx.invalid = append(idx.invalid, t)
			continue
		}
		super := normalize.SuperNormalize(t.District)
		c := candidate{
			entity: t,
			order:  i,
			state:  aliases.CanonicalState(t.State),
			name:   name,
			super:  super,
			runes:  len([]rune(super)),
		}
		pos := len(idx.candidates)
		idx.candidates = append(idx.candidates, c)
		idx.all = append(idx.all, pos)
		idx.byState[c.state] = append(idx.byState[c.state], pos)
		if _, seen := idx.ids[t.StableID]; !seen {
			idx.ids[t.StableID] = pos
		}
		idx.names[c.state+"|"+name] = true
		idx.names["|"+name] = true
		idx.supers[c.state+"|"+super] = true
		idx.supers["|"+super] = true
	}
	return idx
}

// Len returns the number of matchable targets.
func (x *TargetIndex) Len() int { return len(x.candidates) }

// Invalid returns targets that were skipped for missing id or name.
func (x *TargetIndex) Invalid() []catalog.TargetEntity { return x.invalid }

// HasDistrict reports whether a target with the normalized name exists,
// within state when state is non-empty. Like the alias strategy, it falls
// back to the super-normalized form.
func (x *TargetIndex) HasDistrict(state, normalizedName string) bool {
	if x.names[state+"|"+normalizedName] {
		return true
	}
	super := normalize.SuperNormalize(normalizedName)
	return super != "" && x.supers[state+"|"+super]
}

// HasID reports whether a target with this stable id exists.
func (x *TargetIndex) HasID(id string) bool {
	_, ok := x.ids[id]
	return ok
}

// Target returns the first target carrying id.
func (x *TargetIndex) Target(id string) (catalog.TargetEntity, bool) {
	pos, ok := x.ids[id]
	if !ok {
		return catalog.TargetEntity{}, false
	}
	return x.candidates[pos].entity, true
}

// IDs returns every distinct stable id in catalog order.
func (x *TargetIndex) IDs() []string {
	out := make([]string, 0, len(x.ids))
	seen := make(map[string]bool, len(x.ids))
	for _, c := range x.candidates {
		if !seen[c.entity.StableID] {
			seen[c.entity.StableID] = true
			out = append(out, c.entity.StableID)
		}
	}
	return out
}

// pool restricts candidates to the state when that leaves at least one.
func (x *TargetIndex) pool(state string) (members []int, scoped bool) {
	if m := x.byState[state]; len(m) > 0 {
		return m, true
	}
	return x.all, false
}

var _ alias.Targets = (*TargetIndex)(nil)
