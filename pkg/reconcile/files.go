package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyberkunju/NREGA-sub000/pkg/alias"
	"github.com/cyberkunju/NREGA-sub000/pkg/catalog"
	"github.com/cyberkunju/NREGA-sub000/pkg/registry"
)

// Paths locates the inputs of a pass. Catalog paths may be http(s) URLs.
type Paths struct {
	Source     string
	Target     string
	Overrides  string
	SourceSpec catalog.Spec
	TargetSpec catalog.Spec
}

// LoadInputs reads both catalogs and the overrides file fully into memory.
// Matching never starts on a partial load.
func LoadInputs(ctx context.Context, p Paths) (Inputs, error) {
	if p.Source == "" || p.Target == "" {
		return Inputs{}, fmt.Errorf("source and target catalogs are required")
	}
	sources, err := catalog.LoadSources(ctx, p.Source, p.SourceSpec)
	if err != nil {
		return Inputs{}, err
	}
	targets, err := catalog.LoadTargets(ctx, p.Target, p.TargetSpec)
	if err != nil {
		return Inputs{}, err
	}
	aliases, err := alias.Load(p.Overrides)
	if err != nil {
		return Inputs{}, err
	}
	return Inputs{Sources: sources, Targets: targets, Aliases: aliases}, nil
}

// Emit writes the artifact, and the text report when reportPath is set.
// It returns the artifact's SHA-256. The report is rendered and written
// first, so a failed report never leaves a fresh artifact behind.
func Emit(out *Outcome, artifactPath, reportPath string) (string, error) {
	data, err := out.Artifact.Marshal()
	if err != nil {
		return "", err
	}

	if reportPath != "" {
		var buf bytes.Buffer
		if err := registry.WriteReport(&buf, out.Artifact, out.Warnings); err != nil {
			return "", fmt.Errorf("render report: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
			return "", fmt.Errorf("create report dir: %w", err)
		}
		if err := os.WriteFile(reportPath, buf.Bytes(), 0o644); err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
	}

	hash, err := registry.WriteFile(artifactPath, data)
	if err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return hash, nil
}
