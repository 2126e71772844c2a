package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	_ "modernc.org/sqlite"
)

// row is one catalog record with every value rendered as a string.
type row map[string]string

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func readRows(ctx context.Context, path string, spec Spec) ([]row, error) {
	format, err := formatFor(path, spec)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return readCSV(path, spec)
	case FormatJSON:
		return readJSON(path)
	case FormatGeoJSON:
		return readGeoJSON(path)
	case FormatSQLite:
		return readSQLite(ctx, path, spec.Table)
	}
	return nil, fmt.Errorf("unsupported catalog format %q", format)
}

func readCSV(path string, spec Spec) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	// Transcode non-UTF-8 exports.
	var reader io.Reader = f
	if enc := spec.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(f, e.NewDecoder())
	}

	r := csv.NewReader(reader)
	switch {
	case spec.Delimiter != "":
		r.Comma = []rune(spec.Delimiter)[0]
	case strings.EqualFold(filepath.Ext(path), ".tsv"):
		r.Comma = '\t'
	}
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rw := make(row, len(header))
		for i, h := range header {
			if i < len(record) {
				rw[h] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, rw)
	}
	return rows, nil
}

// readJSON accepts a bare array of objects or an API envelope with the
// array under "records" or "data".
func readJSON(path string) ([]row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var objs []map[string]any
	if err := decodeJSON(data, &objs); err != nil {
		var env struct {
			Records []map[string]any `json:"records"`
			Data    []map[string]any `json:"data"`
		}
		if envErr := decodeJSON(data, &env); envErr != nil {
			return nil, fmt.Errorf("parse json catalog: %w", err)
		}
		objs = env.Records
		if objs == nil {
			objs = env.Data
		}
	}

	rows := make([]row, 0, len(objs))
	for _, o := range objs {
		rows = append(rows, flatten(o))
	}
	return rows, nil
}

// readGeoJSON reads feature properties and ignores geometry.
func readGeoJSON(path string) ([]row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID         any             `json:"id"`
			Properties map[string]any  `json:"properties"`
			Geometry   json.RawMessage `json:"geometry"`
		} `json:"features"`
	}
	if err := decodeJSON(data, &fc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("parse geojson: expected FeatureCollection, got %q", fc.Type)
	}

	rows := make([]row, 0, len(fc.Features))
	for _, f := range fc.Features {
		rw := flatten(f.Properties)
		// Feature-level id is addressable as "@id".
		if f.ID != nil {
			rw["@id"] = stringify(f.ID)
		}
		rows = append(rows, rw)
	}
	return rows, nil
}

func readSQLite(ctx context.Context, path, table string) ([]row, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid sqlite table name %q", table)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog: %w", err)
	}
	defer db.Close()

	rs, err := db.QueryContext(ctx, `SELECT * FROM "`+table+`"`)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rs.Close()

	cols, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}

	var rows []row
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rs.Next() {
		if err := rs.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rw := make(row, len(cols))
		for i, c := range cols {
			rw[c] = stringify(vals[i])
		}
		rows = append(rows, rw)
	}
	return rows, rs.Err()
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func flatten(o map[string]any) row {
	rw := make(row, len(o))
	for k, v := range o {
		rw[k] = stringify(v)
	}
	return rw
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case []byte:
		return strings.TrimSpace(string(x))
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
