package alias

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

// Load reads an overrides file. YAML files (.yaml, .yml) carry the full
// Document; CSV files carry aliases only, with a "name,canonical[,state,note]"
// header. An empty path yields an empty table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Empty(), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open aliases %s: %w", path, err)
		}
		defer f.Close()
		entries, err := ReadCSV(f, "")
		if err != nil {
			return nil, fmt.Errorf("aliases %s: %w", path, err)
		}
		t, err := Build(&Document{Aliases: entries})
		if err != nil {
			return nil, fmt.Errorf("aliases %s: %w", path, err)
		}
		return t, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read overrides %s: %w", path, err)
		}
		t, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("overrides %s: %w", path, err)
		}
		return t, nil
	}
}

// Parse decodes and validates a YAML overrides document.
func Parse(data []byte) (*Table, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	return Build(&doc)
}

// ReadCSV reads alias rows from a spreadsheet export. encoding names a
// WHATWG encoding label (e.g. "windows-1252"); empty means UTF-8.
func ReadCSV(r io.Reader, encoding string) ([]Entry, error) {
	if encoding != "" && !isUTF8(encoding) {
		e, err := htmlindex.Get(encoding)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", encoding, err)
		}
		r = transform.NewReader(r, e.NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameIdx, ok1 := col["name"]
	canonIdx, ok2 := col["canonical"]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("header %v must contain name and canonical", header)
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if nameIdx >= len(rec) || canonIdx >= len(rec) {
			continue
		}
		e := Entry{
			Name:      strings.TrimSpace(rec[nameIdx]),
			Canonical: strings.TrimSpace(rec[canonIdx]),
			State:     field(rec, "state"),
			Note:      field(rec, "note"),
		}
		if e.Name == "" && e.Canonical == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
