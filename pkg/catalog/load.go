package catalog

import (
	"context"
	"fmt"
)

// LoadSources reads the statistics provider's catalog. Rows with a missing
// district or state are kept: the engine records them as input defects. A
// catalog whose name columns are absent altogether is malformed.
func LoadSources(ctx context.Context, path string, spec Spec) ([]SourceEntity, error) {
	def := DefaultSourceSpec()
	if spec.DistrictField == "" {
		spec.DistrictField = def.DistrictField
	}
	if spec.StateField == "" {
		spec.StateField = def.StateField
	}

	rows, err := load(ctx, path, spec)
	if err != nil {
		return nil, fmt.Errorf("source catalog %s: %w", path, err)
	}
	if err := requireFields(rows, spec.DistrictField, spec.StateField); err != nil {
		return nil, fmt.Errorf("source catalog %s: %w", path, err)
	}

	out := make([]SourceEntity, 0, len(rows))
	for i, rw := range rows {
		e := SourceEntity{
			District: rw[spec.DistrictField],
			State:    rw[spec.StateField],
			Row:      i + 1,
		}
		if len(rw) > 2 {
			e.Fields = make(map[string]string, len(rw)-2)
			for k, v := range rw {
				if k != spec.DistrictField && k != spec.StateField {
					e.Fields[k] = v
				}
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// LoadTargets reads the mapping authority's boundary catalog.
func LoadTargets(ctx context.Context, path string, spec Spec) ([]TargetEntity, error) {
	def := DefaultTargetSpec()
	if spec.DistrictField == "" {
		spec.DistrictField = def.DistrictField
	}
	if spec.StateField == "" {
		spec.StateField = def.StateField
	}
	if spec.IDField == "" {
		spec.IDField = def.IDField
	}

	rows, err := load(ctx, path, spec)
	if err != nil {
		return nil, fmt.Errorf("target catalog %s: %w", path, err)
	}
	if err := requireFields(rows, spec.DistrictField, spec.StateField, spec.IDField); err != nil {
		return nil, fmt.Errorf("target catalog %s: %w", path, err)
	}

	out := make([]TargetEntity, 0, len(rows))
	for i, rw := range rows {
		out = append(out, TargetEntity{
			District: rw[spec.DistrictField],
			State:    rw[spec.StateField],
			StableID: rw[spec.IDField],
			Row:      i + 1,
		})
	}
	return out, nil
}

func load(ctx context.Context, path string, spec Spec) ([]row, error) {
	local, cleanup, err := localize(ctx, path)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return readRows(ctx, local, spec)
}

// requireFields fails when a field is absent from every row. Individual
// rows may still lack it.
func requireFields(rows []row, fields ...string) error {
	if len(rows) == 0 {
		return nil
	}
	for _, f := range fields {
		found := false
		for _, rw := range rows {
			if _, ok := rw[f]; ok {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("field %q not present in any record", f)
		}
	}
	return nil
}
