package matcher

import (
	"sync"
	"testing"

	"github.com/cyberkunju/NREGA-sub000/pkg/alias"
	"github.com/cyberkunju/NREGA-sub000/pkg/catalog"
	"github.com/cyberkunju/NREGA-sub000/pkg/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targets() []catalog.TargetEntity {
	rows := []catalog.TargetEntity{
		{District: "Balasore", State: "ODISHA", StableID: "42"},
		{District: "Puri", State: "ODISHA", StableID: "43"},
		{District: "Keonjhar", State: "ODISHA", StableID: "44"},
		{District: "North Twenty-Four Parganas", State: "WEST BENGAL", StableID: "265"},
		{District: "South Twenty-Four Parganas", State: "WEST BENGAL", StableID: "266"},
		{District: "Kamrup", State: "ASSAM", StableID: "15"},
		{District: "Raigarh", State: "CHHATTISGARH", StableID: "130"},
		{District: "Bilaspur", State: "CHHATTISGARH", StableID: "131"},
		{District: "Ahmednagar", State: "MAHARASHTRA", StableID: "480"},
		{District: "Aurangabad", State: "MAHARASHTRA", StableID: "481"},
		{District: "Chhatrapati Sambhajinagar", State: "MAHARASHTRA", StableID: "482"},
		{District: "Nellore", State: "ANDHRA PRADESH", StableID: "520"},
		{District: "Sri Potti Sriramulu Nellore", State: "ANDHRA PRADESH", StableID: "521"},
		{District: "Aurangabad", State: "BIHAR", StableID: "190"},
	}
	for i := range rows {
		rows[i].Row = i + 1
	}
	return rows
}

const overrides = `
aliases:
  - name: Baleshwar
    canonical: Balasore
  - name: 24 Parganas (North)
    canonical: North Twenty-Four Parganas
    state: West Bengal
  - name: Aurangabad
    canonical: Chhatrapati Sambhajinagar
    state: Maharashtra
state_aliases:
  - name: Orissa
    canonical: Odisha
non_mappable:
  - state: Assam
    district: Bodoland Territorial Council
parents:
  - state: Chhattisgarh
    district: Sarangarh Bilaigarh
    parent: Raigarh
manual:
  - state: Odisha
    district: Jagatsinghapur Sadar
    target_id: "43"
    note: adjudicated
  - state: Odisha
    district: Ghost
    target_id: "9999"
`

func newPipeline(t *testing.T, doc string, tgts []catalog.TargetEntity) *Pipeline {
	t.Helper()
	tbl, err := alias.Parse([]byte(doc))
	require.NoError(t, err)
	return New(DefaultConfig(), tbl, NewTargetIndex(tgts, tbl))
}

func src(district, state string) catalog.SourceEntity {
	return catalog.SourceEntity{District: district, State: state}
}

func TestResolve_AliasScenario(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	res := p.Resolve(src("Baleshwar", "Odisha"))
	assert.Equal(t, normalize.Key("odisha:baleshwar"), res.Key)
	require.NotNil(t, res.Mapping)
	assert.Equal(t, "42", res.Mapping.TargetID)
	assert.Equal(t, 1.0, res.Mapping.Confidence)
	assert.Equal(t, MethodAlias, res.Mapping.Method)
	assert.Nil(t, res.Exclusion)
}

func TestResolve_DirectionalParenthetical(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	res := p.Resolve(src("24 Parganas (North)", "West Bengal"))
	assert.Equal(t, normalize.Key("west bengal:24 parganas north"), res.Key)
	require.NotNil(t, res.Mapping)
	assert.Equal(t, "265", res.Mapping.TargetID)
	assert.NotEqual(t, MethodExact, res.Mapping.Method)

	// Without the seeded alias the name is not silently matched to the
	// wrong Parganas.
	bare := newPipeline(t, "", targets())
	res = bare.Resolve(src("24 Parganas (North)", "West Bengal"))
	if res.Mapping != nil {
		assert.Equal(t, "265", res.Mapping.TargetID)
		assert.NotEqual(t, MethodExact, res.Mapping.Method)
	}
}

func TestResolve_NewEntityWithParent(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	res := p.Resolve(src("Sarangarh Bilaigarh", "Chhattisgarh"))
	assert.Equal(t, normalize.Key("chhattisgarh:sarangarh bilaigarh"), res.Key)
	require.NotNil(t, res.Exclusion)
	assert.Equal(t, ReasonNewEntity, res.Exclusion.Reason)
	assert.Equal(t, normalize.Key("chhattisgarh:raigarh"), res.Exclusion.Parent)
	assert.Nil(t, res.Mapping)
}

func TestResolve_ContainmentToSameTarget(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	kamrup := p.Resolve(src("Kamrup", "Assam"))
	require.NotNil(t, kamrup.Mapping)
	assert.Equal(t, "15", kamrup.Mapping.TargetID)
	assert.Equal(t, MethodExact, kamrup.Mapping.Method)

	metro := p.Resolve(src("Kamrup Metropolitan", "Assam"))
	require.NotNil(t, metro.Mapping)
	assert.Equal(t, "15", metro.Mapping.TargetID)
	assert.Equal(t, MethodContainment, metro.Mapping.Method)
	assert.Equal(t, 0.9, metro.Mapping.Confidence)
}

func TestResolve_Fuzzy(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	res := p.Resolve(src("Ahmadnagar", "Maharashtra"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, "480", res.Mapping.TargetID)
	assert.Equal(t, MethodFuzzy, res.Mapping.Method)
	assert.Equal(t, 0.9, res.Mapping.Confidence)
}

func TestResolve_ContainmentMinLength(t *testing.T) {
	tgts := []catalog.TargetEntity{
		{District: "Pur", State: "X", StableID: "1"},
		{District: "Nagpur", State: "X", StableID: "2"},
	}
	p := newPipeline(t, "", tgts)

	// "pur" is inside "jaipur" but too short to count.
	res := p.Resolve(src("Jaipur", "X"))
	if res.Mapping != nil {
		assert.NotEqual(t, MethodContainment, res.Mapping.Method)
	}

	cfg := DefaultConfig()
	cfg.ContainmentMinLength = 3
	loose := New(cfg, nil, NewTargetIndex(tgts, nil))
	res = loose.Resolve(src("Jaipur", "X"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, MethodContainment, res.Mapping.Method)
	assert.Equal(t, "1", res.Mapping.TargetID)
}

func TestResolve_PriorityOrder(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	// Both the alias and the exact strategy would succeed; alias wins.
	res := p.Resolve(src("Aurangabad", "Maharashtra"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, MethodAlias, res.Mapping.Method)
	assert.Equal(t, "482", res.Mapping.TargetID)

	// The same name in another state is an exact match.
	res = p.Resolve(src("Aurangabad", "Bihar"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, MethodExact, res.Mapping.Method)
	assert.Equal(t, "190", res.Mapping.TargetID)

	// Loose-exact wins over containment even though both apply.
	res = p.Resolve(src("Nel-lore", "Andhra Pradesh"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, MethodLooseExact, res.Mapping.Method)
	assert.Equal(t, "520", res.Mapping.TargetID)
}

// TestResolve_NoEarlierStrategySucceeds checks every mapping against the
// strategies ranked above the one that produced it.
func TestResolve_NoEarlierStrategySucceeds(t *testing.T) {
	p := newPipeline(t, overrides, targets())
	sources := []catalog.SourceEntity{
		src("Baleshwar", "Odisha"),
		src("Balasore", "Orissa"),
		src("PURI", "Odisha"),
		src("Kamrup Metropolitan", "Assam"),
		src("Ahmadnagar", "Maharashtra"),
		src("Aurangabad", "Maharashtra"),
		src("Nel-lore", "Andhra Pradesh"),
		src("Potti Sriramulu Nellore", "Andhra Pradesh"),
		src("Keonjhar (Kendujhar)", "Odisha"),
	}
	for _, s := range sources {
		res := p.Resolve(s)
		if res.Mapping == nil || res.Mapping.Method == MethodManual {
			continue
		}
		q := p.newQuery(s)
		for _, st := range p.strategies {
			if st.method == res.Mapping.Method {
				break
			}
			assert.Empty(t, st.run(q).hits, "%s/%s: %s would have succeeded before %s",
				s.State, s.District, st.method, res.Mapping.Method)
		}
	}
}

func TestResolve_ExactAfterNormalization(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	res := p.Resolve(src("Keonjhar (Kendujhar)", "Odisha"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, MethodExact, res.Mapping.Method)
	assert.Equal(t, "44", res.Mapping.TargetID)

	// State alias: Orissa is scoped to Odisha targets.
	res = p.Resolve(src("Puri", "Orissa"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, "43", res.Mapping.TargetID)
	assert.Equal(t, normalize.Key("orissa:puri"), res.Key)
}

func TestResolve_StateFallback(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	// Unknown state: the whole catalog is searched and the note says so.
	res := p.Resolve(src("Puri", "Kalinga"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, "43", res.Mapping.TargetID)
	assert.Contains(t, res.Mapping.Note, "across all states")

	// Across all states "Aurangabad" exists twice: never guessed.
	res = p.Resolve(src("Aurangabad", "Magadh"))
	require.NotNil(t, res.Exclusion)
	assert.Equal(t, ReasonAmbiguous, res.Exclusion.Reason)
	assert.Equal(t, []string{"481", "190"}, res.Exclusion.Candidates)
}

func TestResolve_FuzzyTie(t *testing.T) {
	tgts := []catalog.TargetEntity{
		{District: "Rampura", State: "X", StableID: "1"},
		{District: "Rampuri", State: "X", StableID: "2"},
	}
	p := newPipeline(t, "", tgts)

	res := p.Resolve(src("Rampurx", "X"))
	require.NotNil(t, res.Exclusion)
	assert.Equal(t, ReasonAmbiguous, res.Exclusion.Reason)
	assert.ElementsMatch(t, []string{"1", "2"}, res.Exclusion.Candidates)
}

func TestResolve_DuplicateTargetRowsCollapse(t *testing.T) {
	// A multipart boundary exported as two rows with one id.
	tgts := []catalog.TargetEntity{
		{District: "Andaman", State: "X", StableID: "7"},
		{District: "Andaman", State: "X", StableID: "7"},
	}
	p := newPipeline(t, "", tgts)

	res := p.Resolve(src("Andaman", "X"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, "7", res.Mapping.TargetID)
}

func TestResolve_BelowThreshold(t *testing.T) {
	tgts := []catalog.TargetEntity{{District: "Bhadradri", State: "X", StableID: "1"}}
	p := newPipeline(t, "", tgts)

	// Two substitutions in nine runes: 0.78 is in the review band.
	res := p.Resolve(src("Bhadrapry", "X"))
	require.NotNil(t, res.Exclusion)
	assert.Equal(t, ReasonBelowThreshold, res.Exclusion.Reason)
	assert.Equal(t, "1", res.Exclusion.BestCandidate)
	assert.InDelta(t, 1-2.0/9.0, res.Exclusion.BestScore, 1e-9)
}

func TestResolve_Overrides(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	res := p.Resolve(src("Bodoland Territorial Council", "Assam"))
	require.NotNil(t, res.Exclusion)
	assert.Equal(t, ReasonNonMappable, res.Exclusion.Reason)

	res = p.Resolve(src("Jagatsinghapur Sadar", "Odisha"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, MethodManual, res.Mapping.Method)
	assert.Equal(t, "43", res.Mapping.TargetID)
	assert.Equal(t, "adjudicated", res.Mapping.Note)

	// A pin to a missing target falls through to the strategies.
	res = p.Resolve(src("Ghost", "Odisha"))
	if res.Mapping != nil {
		assert.NotEqual(t, MethodManual, res.Mapping.Method)
	}
}

func TestResolve_InvalidInput(t *testing.T) {
	p := newPipeline(t, overrides, targets())

	res := p.Resolve(src("", "Odisha"))
	require.NotNil(t, res.Exclusion)
	assert.Equal(t, ReasonInvalidInput, res.Exclusion.Reason)
	assert.Equal(t, normalize.Key("odisha:"), res.Key)
	assert.Equal(t, "missing district", res.Exclusion.Note)

	res = p.Resolve(src("...", ""))
	require.NotNil(t, res.Exclusion)
	assert.Equal(t, "missing state and district", res.Exclusion.Note)
}

func TestResolve_ExactlyOneOutcome(t *testing.T) {
	p := newPipeline(t, overrides, targets())
	for _, s := range []catalog.SourceEntity{
		src("Baleshwar", "Odisha"),
		src("Sarangarh Bilaigarh", "Chhattisgarh"),
		src("", ""),
		src("Aurangabad", "Magadh"),
		src("Zzzzzz", "Odisha"),
	} {
		res := p.Resolve(s)
		assert.True(t, (res.Mapping == nil) != (res.Exclusion == nil), "%+v", s)
	}
}

func TestResolve_ConcurrentUse(t *testing.T) {
	p := newPipeline(t, overrides, targets())
	want := p.Resolve(src("Ahmadnagar", "Maharashtra"))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := p.Resolve(src("Ahmadnagar", "Maharashtra"))
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestTargetIndex(t *testing.T) {
	tgts := append(targets(),
		catalog.TargetEntity{District: "", State: "X", StableID: "1"},
		catalog.TargetEntity{District: "Nameless", State: "X", StableID: ""},
	)
	idx := NewTargetIndex(tgts, nil)

	assert.Equal(t, len(targets()), idx.Len())
	assert.Len(t, idx.Invalid(), 2)
	assert.True(t, idx.HasID("42"))
	assert.False(t, idx.HasID("1"))
	assert.True(t, idx.HasDistrict("odisha", "balasore"))
	assert.True(t, idx.HasDistrict("", "balasore"))
	assert.False(t, idx.HasDistrict("assam", "balasore"))
	assert.True(t, idx.HasDistrict("west bengal", "north twentyfour parganas"))

	tg, ok := idx.Target("265")
	require.True(t, ok)
	assert.Equal(t, "North Twenty-Four Parganas", tg.District)
	assert.Equal(t, "42", idx.IDs()[0])
}

func TestTargetIndex_ValidatesAliasesLikeResolve(t *testing.T) {
	tgts := []catalog.TargetEntity{
		{District: "Sri Potti Sriramulu Nellore", State: "ANDHRA PRADESH", StableID: "502"},
	}
	tbl, err := alias.Build(&alias.Document{Aliases: []alias.Entry{
		{Name: "Nellore", Canonical: "Sri Potti Sriramulu-Nellore", State: "Andhra Pradesh"},
	}})
	require.NoError(t, err)

	idx := NewTargetIndex(tgts, tbl)
	assert.Empty(t, tbl.Validate(idx))

	res := New(DefaultConfig(), tbl, idx).Resolve(src("Nellore", "Andhra Pradesh"))
	require.NotNil(t, res.Mapping)
	assert.Equal(t, "502", res.Mapping.TargetID)
	assert.Equal(t, MethodAlias, res.Mapping.Method)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.FuzzyThreshold = 1.5
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.ReviewThreshold = 0.9
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.ContainmentMinLength = 0
	assert.Error(t, bad.Validate())
}
