package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/runger/rselect/internal/picker"
)

// SQLite runs a query against a SQLite database and turns each row into a
// choice. Columns are matched by name: value, name, description, disabled.
// When no column is named value, the first column is used.
type SQLite struct {
	Path  string
	Query string
}

// Compile-time check that SQLite implements picker.Source.
var _ picker.Source[string] = (*SQLite)(nil)

// NewSQLite creates a source querying the database at path.
func NewSQLite(path, query string) *SQLite {
	return &SQLite{Path: path, Query: query}
}

// sqliteDSN builds a read-only URI for path. The path is percent-encoded so
// that '?', '#' and '%' in file names survive URI parsing.
func sqliteDSN(path string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(path),
		// modernc.org/sqlite uses _pragma=name(value) syntax
		RawQuery: "mode=ro&_pragma=busy_timeout(5000)",
	}
	return u.String()
}

// Fetch implements picker.Source. The database is opened read-only.
func (s *SQLite) Fetch(ctx context.Context) ([]picker.Item[string], error) {
	if strings.TrimSpace(s.Query) == "" {
		return nil, errors.New("sqlite source: empty query")
	}

	db, err := sql.Open("sqlite", sqliteDSN(s.Path))
	if err != nil {
		return nil, fmt.Errorf("sqlite source: open: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("sqlite source: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite source: columns: %w", err)
	}
	idx := columnIndex(cols)

	var records []Record
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite source: scan: %w", err)
		}
		records = append(records, rowRecord(vals, idx))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite source: rows: %w", err)
	}
	return Items(records), nil
}

// columns holds the positions of recognised columns, -1 when absent.
type columns struct {
	value, name, description, disabled int
}

func columnIndex(cols []string) columns {
	idx := columns{value: -1, name: -1, description: -1, disabled: -1}
	for i, c := range cols {
		switch strings.ToLower(c) {
		case "value":
			idx.value = i
		case "name":
			idx.name = i
		case "description":
			idx.description = i
		case "disabled":
			idx.disabled = i
		}
	}
	if idx.value < 0 && len(cols) > 0 {
		idx.value = 0
	}
	return idx
}

func rowRecord(vals []sql.NullString, idx columns) Record {
	get := func(i int) string {
		if i < 0 || !vals[i].Valid {
			return ""
		}
		return vals[i].String
	}

	rec := Record{
		Value:       get(idx.value),
		Name:        get(idx.name),
		Description: get(idx.description),
	}
	// SQLite has no boolean type: 0/1 and "true"/"false" are flags, any
	// other text is a reason.
	if d := get(idx.disabled); d != "" {
		if b, err := strconv.ParseBool(d); err == nil {
			rec.Disabled = b
		} else {
			rec.DisabledReason = d
		}
	}
	return rec
}
