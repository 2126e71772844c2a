package reconcile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyberkunju/NREGA-sub000/pkg/catalog"
	"github.com/cyberkunju/NREGA-sub000/pkg/matcher"
	"github.com/cyberkunju/NREGA-sub000/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testInputs(t *testing.T) Inputs {
	t.Helper()
	in, err := LoadInputs(context.Background(), Paths{
		Source:    filepath.Join("testdata", "source.csv"),
		Target:    filepath.Join("testdata", "targets.geojson"),
		Overrides: filepath.Join("testdata", "overrides.yaml"),
	})
	require.NoError(t, err)
	return in
}

func run(t *testing.T, in Inputs, workers int) *Outcome {
	t.Helper()
	out, err := Run(context.Background(), in, Options{
		Matcher: matcher.DefaultConfig(),
		Workers: workers,
		Logger:  quietLogger(),
	})
	require.NoError(t, err)
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	out := run(t, testInputs(t), 0)
	a := out.Artifact

	tests := []struct {
		key    string
		id     registry.TargetID
		method string
	}{
		{"odisha:baleshwar", "42", "alias"},
		{"odisha:puri", "43", "exact"},
		{"orissa:keonjhar", "44", "exact"},
		{"west bengal:24 parganas north", "265", "alias"},
		{"assam:kamrup", "15", "exact"},
		{"assam:kamrup metropolitan", "15", "containment"},
		{"maharashtra:ahmadnagar", "480", "fuzzy"},
		{"maharashtra:aurangabad", "482", "alias"},
		{"andhra pradesh:potti sriramulu nellore", "521", "containment"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, ok := a.Mappings[tt.key]
			require.True(t, ok)
			assert.Equal(t, tt.id, m.TargetID)
			assert.Equal(t, tt.method, m.Method)
		})
	}

	assert.Equal(t, 0.9, a.Mappings["maharashtra:ahmadnagar"].Confidence)
	assert.Equal(t, []string{"assam:kamrup", "assam:kamrup metropolitan"}, a.Collisions["15"])

	assert.Equal(t, "non-mappable-entity", a.Excluded["assam:bodoland territorial council"].Reason)
	assert.Equal(t, "new-entity", a.Excluded["chhattisgarh:sarangarh bilaigarh"].Reason)
	assert.Equal(t, "chhattisgarh:raigarh", a.Excluded["chhattisgarh:sarangarh bilaigarh"].ParentAggregationTarget)
	assert.Equal(t, "invalid-input", a.Excluded["telangana:"].Reason)

	s := a.Summary
	assert.Equal(t, 12, s.TotalSource)
	assert.Equal(t, 10, s.TotalTarget)
	assert.Equal(t, 9, s.Mapped)
	assert.Equal(t, 3, s.Excluded)
	assert.Equal(t, 75.0, s.CoveragePercent)
	assert.Equal(t, 1, s.DuplicateSourceRows)
	assert.Equal(t, 1, s.InvalidTargets)
	assert.Equal(t, []registry.TargetID{"130", "590"}, a.UnmappedTargets)

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "haryana/gurgaon", out.Warnings[0].Subject)
	assert.Len(t, out.Results, 12)
}

func TestRun_Partition(t *testing.T) {
	in := testInputs(t)
	a := run(t, in, 0).Artifact

	for key := range a.Mappings {
		assert.NotContains(t, a.Excluded, key)
	}
	assert.Equal(t, a.Summary.TotalSource, len(a.Mappings)+len(a.Excluded))
	assert.NoError(t, a.Check())
}

func TestRun_Idempotent(t *testing.T) {
	in := testInputs(t)

	first, err := run(t, in, 0).Artifact.Marshal()
	require.NoError(t, err)
	second, err := run(t, testInputs(t), 0).Artifact.Marshal()
	require.NoError(t, err)
	sharded, err := run(t, in, 4).Artifact.Marshal()
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second))
	assert.True(t, bytes.Equal(first, sharded), "sharded pass must match the sequential one")
}

func TestRun_TotalFailure(t *testing.T) {
	in := testInputs(t)
	opts := Options{Matcher: matcher.DefaultConfig(), Logger: quietLogger()}

	_, err := Run(context.Background(), Inputs{Targets: in.Targets}, opts)
	assert.True(t, errors.Is(err, ErrEmptySourceCatalog))

	_, err = Run(context.Background(), Inputs{Sources: in.Sources}, opts)
	assert.True(t, errors.Is(err, ErrEmptyTargetCatalog))

	unusable := []catalog.TargetEntity{{District: "Puri", State: "Odisha"}}
	_, err = Run(context.Background(), Inputs{Sources: in.Sources, Targets: unusable}, opts)
	assert.True(t, errors.Is(err, ErrEmptyTargetCatalog))

	bad := opts
	bad.Matcher.FuzzyThreshold = 2
	_, err = Run(context.Background(), in, bad)
	assert.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, testInputs(t), Options{Matcher: matcher.DefaultConfig(), Workers: 2, Logger: quietLogger()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_NilAliases(t *testing.T) {
	in := testInputs(t)
	in.Aliases = nil
	a := run(t, in, 0).Artifact

	_, mapped := a.Mappings["odisha:baleshwar"]
	assert.False(t, mapped)
	assert.Equal(t, "exact", a.Mappings["odisha:puri"].Method)
}

func TestEmit(t *testing.T) {
	dir := t.TempDir()
	out := run(t, testInputs(t), 0)

	artifact := filepath.Join(dir, "out", "mapping.json")
	report := filepath.Join(dir, "out", "report.txt")
	hash, err := Emit(out, artifact, report)
	require.NoError(t, err)

	a, gotHash, err := registry.ReadFile(artifact)
	require.NoError(t, err)
	assert.Equal(t, hash, gotHash)
	assert.Equal(t, out.Artifact.Summary, a.Summary)

	text, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(text), "75.00%")
	assert.Contains(t, string(text), "haryana/gurgaon")

	again, err := Emit(out, artifact, "")
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestEmit_ReportFailureLeavesNoArtifact(t *testing.T) {
	dir := t.TempDir()
	out := run(t, testInputs(t), 0)

	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	artifact := filepath.Join(dir, "mapping.json")
	_, err := Emit(out, artifact, filepath.Join(blocker, "report.txt"))
	require.Error(t, err)

	_, statErr := os.Stat(artifact)
	assert.True(t, os.IsNotExist(statErr), "artifact written despite report failure")
}

func TestLoadInputs_Errors(t *testing.T) {
	_, err := LoadInputs(context.Background(), Paths{Source: "testdata/source.csv"})
	assert.Error(t, err)

	_, err = LoadInputs(context.Background(), Paths{
		Source: "testdata/missing.csv",
		Target: "testdata/targets.geojson",
	})
	assert.Error(t, err)
}
