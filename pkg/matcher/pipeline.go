// CLAUDE:SUMMARY Ordered matching pipeline (alias, exact, loose-exact, containment, fuzzy) resolving one source region against the target index.
package matcher

import (
	"fmt"
	"strings"

	"github.com/cyberkunju/NREGA-sub000/pkg/alias"
	"github.com/cyberkunju/NREGA-sub000/pkg/catalog"
	"github.com/cyberkunju/NREGA-sub000/pkg/normalize"
	"github.com/cyberkunju/NREGA-sub000/pkg/similarity"
)

// Pipeline resolves source regions to targets. It holds no mutable state
// and may be shared by concurrent callers.
type Pipeline struct {
	cfg        Config
	aliases    *alias.Table
	index      *TargetIndex
	strategies []strategy
}

// New builds a pipeline over a target index. A nil alias table means no
// curated overrides.
func New(cfg Config, aliases *alias.Table, index *TargetIndex) *Pipeline {
	if aliases == nil {
		aliases = alias.Empty()
	}
	p := &Pipeline{cfg: cfg, aliases: aliases, index: index}
	p.strategies = []strategy{
		{MethodAlias, p.aliasStrategy},
		{MethodExact, p.exactStrategy},
		{MethodLooseExact, p.looseExactStrategy},
		{MethodContainment, p.containmentStrategy},
		{MethodFuzzy, p.fuzzyStrategy},
	}
	return p
}

// Methods returns the automatic strategies in priority order.
func (p *Pipeline) Methods() []Method {
	out := make([]Method, len(p.strategies))
	for i, s := range p.strategies {
		out[i] = s.method
	}
	return out
}

// query is one source region in comparison form.
type query struct {
	state  string
	name   string
	super  string
	runes  int
	raw    catalog.SourceEntity
	pool   []int
	scoped bool
}

// verdict is what a strategy found. No hits means the strategy did not
// succeed and the next one runs.
type verdict struct {
	hits       []int
	confidence float64
	note       string

	// Closest miss, reported by fuzzy when nothing clears the threshold.
	best      int
	bestScore float64
}

type strategy struct {
	method Method
	run    func(q *query) verdict
}

// Resolve maps one source region to a target or explains why it cannot.
// Strategies run in strict priority order and the first that succeeds
// decides the result.
func (p *Pipeline) Resolve(src catalog.SourceEntity) Result {
	key := normalize.NewKey(src.State, src.District)
	res := Result{Key: key, Source: src}

	q := p.newQuery(src)
	if q.name == "" || q.state == "" {
		res.Exclusion = p.exclude(key, ReasonInvalidInput, missingFields(src))
		return res
	}

	if note, ok := p.aliases.NonMappable(key); ok {
		res.Exclusion = p.exclude(key, ReasonNonMappable, note)
		return res
	}

	if pin, ok := p.aliases.Pin(key); ok && p.index.HasID(pin.TargetID) {
		res.Mapping = &Mapping{TargetID: pin.TargetID, Confidence: 1.0, Method: MethodManual, Note: pin.Note}
		return res
	}

	best, bestScore := -1, 0.0
	for _, s := range p.strategies {
		v := s.run(q)
		if len(v.hits) == 0 {
			if v.bestScore > bestScore {
				best, bestScore = v.best, v.bestScore
			}
			continue
		}
		ids := p.decide(q, v.hits)
		if len(ids) > 1 {
			ex := p.exclude(key, ReasonAmbiguous,
				fmt.Sprintf("%s: %d targets tied", s.method, len(ids)))
			ex.Candidates = ids
			res.Exclusion = ex
			return res
		}
		note := v.note
		if !q.scoped {
			note = joinNote(note, fmt.Sprintf("state %q not in target catalog; matched across all states", q.state))
		}
		res.Mapping = &Mapping{TargetID: ids[0], Confidence: v.confidence, Method: s.method, Note: note}
		return res
	}

	if best >= 0 && bestScore >= p.cfg.ReviewThreshold {
		c := p.index.candidates[best]
		ex := p.exclude(key, ReasonBelowThreshold,
			fmt.Sprintf("closest %q scored %.4f", c.name, bestScore))
		ex.BestCandidate = c.entity.StableID
		ex.BestScore = bestScore
		res.Exclusion = ex
		return res
	}
	res.Exclusion = p.exclude(key, ReasonNewEntity, "")
	return res
}

// decide applies the tie-breaks to a strategy's hits: candidates in the
// source's state first, then duplicates of one target collapse to the
// earliest row. More than one id left is an unresolved tie.
func (p *Pipeline) decide(q *query, hits []int) []string {
	same := hits[:0:0]
	for _, h := range hits {
		if p.index.candidates[h].state == q.state {
			same = append(same, h)
		}
	}
	if len(same) > 0 {
		hits = same
	}

	var ids []string
	seen := make(map[string]bool, len(hits))
	for _, h := range hits {
		id := p.index.candidates[h].entity.StableID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func (p *Pipeline) newQuery(src catalog.SourceEntity) *query {
	q := &query{
		state: p.aliases.CanonicalState(src.State),
		name:  normalize.Normalize(src.District),
		super: normalize.SuperNormalize(src.District),
		raw:   src,
	}
	q.runes = len([]rune(q.super))
	q.pool, q.scoped = p.index.pool(q.state)
	return q
}

func (p *Pipeline) exclude(key normalize.Key, reason Reason, note string) *Exclusion {
	ex := &Exclusion{Reason: reason, Note: note}
	if parent, ok := p.aliases.Parent(key); ok {
		ex.Parent = parent
	}
	return ex
}

func (p *Pipeline) aliasStrategy(q *query) verdict {
	canon, ok := p.aliases.Lookup(q.raw.State, q.raw.District)
	if !ok {
		return verdict{}
	}
	hits := p.filter(q, func(c *candidate) bool { return c.name == canon })
	if len(hits) == 0 {
		superCanon := normalize.SuperNormalize(canon)
		hits = p.filter(q, func(c *candidate) bool { return c.super == superCanon })
	}
	return verdict{hits: hits, confidence: 1.0, note: fmt.Sprintf("alias %q -> %q", q.super, canon)}
}

func (p *Pipeline) exactStrategy(q *query) verdict {
	hits := p.filter(q, func(c *candidate) bool { return c.name == q.name })
	return verdict{hits: hits, confidence: 1.0}
}

func (p *Pipeline) looseExactStrategy(q *query) verdict {
	if q.super == "" {
		return verdict{}
	}
	hits := p.filter(q, func(c *candidate) bool { return c.super == q.super })
	return verdict{hits: hits, confidence: 1.0}
}

// containmentStrategy accepts a candidate when one super-normalized name
// contains the other and the shorter is at least ContainmentMinLength
// runes. Among several, the closest in length wins.
func (p *Pipeline) containmentStrategy(q *query) verdict {
	bestDiff := -1
	var hits []int
	for _, h := range q.pool {
		c := &p.index.candidates[h]
		shorter := min(q.runes, c.runes)
		if shorter < p.cfg.ContainmentMinLength {
			continue
		}
		if !strings.Contains(q.super, c.super) && !strings.Contains(c.super, q.super) {
			continue
		}
		diff := q.runes - c.runes
		if diff < 0 {
			diff = -diff
		}
		switch {
		case bestDiff < 0 || diff < bestDiff:
			bestDiff = diff
			hits = append(hits[:0], h)
		case diff == bestDiff:
			hits = append(hits, h)
		}
	}
	if len(hits) == 0 {
		return verdict{}
	}
	c := p.index.candidates[hits[0]]
	return verdict{
		hits:       hits,
		confidence: p.cfg.ContainmentConfidence,
		note:       fmt.Sprintf("%q / %q", q.super, c.super),
	}
}

// fuzzyStrategy keeps the candidates with the highest similarity and
// accepts them at FuzzyThreshold or above.
func (p *Pipeline) fuzzyStrategy(q *query) verdict {
	bestScore := -1.0
	var hits []int
	for _, h := range q.pool {
		s := similarity.Score(q.name, p.index.candidates[h].name)
		switch {
		case s > bestScore:
			bestScore = s
			hits = append(hits[:0], h)
		case s == bestScore:
			hits = append(hits, h)
		}
	}
	if len(hits) == 0 {
		return verdict{}
	}
	if bestScore < p.cfg.FuzzyThreshold {
		return verdict{best: hits[0], bestScore: bestScore}
	}
	c := p.index.candidates[hits[0]]
	return verdict{
		hits:       hits,
		confidence: bestScore,
		note:       fmt.Sprintf("similarity %.4f to %q", bestScore, c.name),
	}
}

func (p *Pipeline) filter(q *query, keep func(c *candidate) bool) []int {
	var hits []int
	for _, h := range q.pool {
		if keep(&p.index.candidates[h]) {
			hits = append(hits, h)
		}
	}
	return hits
}

func missingFields(src catalog.SourceEntity) string {
	var missing []string
	if normalize.Normalize(src.State) == "" {
		missing = append(missing, "state")
	}
	if normalize.Normalize(src.District) == "" {
		missing = append(missing, "district")
	}
	return "missing " + strings.Join(missing, " and ")
}

func joinNote(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
