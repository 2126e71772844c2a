// CLAUDE:SUMMARY Source and target catalog entities plus the Spec describing which fields carry names and ids.
package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceEntity is one region as reported by the statistics provider.
type SourceEntity struct {
	District string
	State    string
	// Fields holds every other column verbatim. The engine never reads it.
	Fields map[string]string
	// Row is the 1-based position in the input, for reports.
	Row int
}

// TargetEntity is one boundary feature from the mapping authority.
// Geometry is not loaded.
type TargetEntity struct {
	District string
	State    string
	StableID string
	Row      int
}

// Format is a catalog file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatGeoJSON Format = "geojson"
	FormatSQLite  Format = "sqlite"
)

// Spec describes where a catalog's fields live.
type Spec struct {
	Format        Format `yaml:"format"`
	DistrictField string `yaml:"district_field"`
	StateField    string `yaml:"state_field"`
	IDField       string `yaml:"id_field"`
	// Encoding is a WHATWG label for CSV input; empty means UTF-8.
	Encoding  string `yaml:"encoding"`
	Delimiter string `yaml:"delimiter"`
	// Table is the SQLite table to read.
	Table string `yaml:"table"`
}

// DefaultSourceSpec matches the statistics provider's CSV export.
func DefaultSourceSpec() Spec {
	return Spec{
		DistrictField: "district_name",
		StateField:    "state_name",
	}
}

// DefaultTargetSpec matches the mapping authority's GeoJSON properties.
func DefaultTargetSpec() Spec {
	return Spec{
		DistrictField: "dtname",
		StateField:    "stname",
		IDField:       "dt_code",
	}
}

// formatFor resolves the Spec format, falling back to the file extension.
func formatFor(path string, spec Spec) (Format, error) {
	if spec.Format != "" {
		return spec.Format, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".geojson":
		return FormatGeoJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("cannot infer catalog format from %q", path)
}
