// Package catalog loads title catalogs from delimited files.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/verte-zerg/reelstats/internal/model"
)

const (
	colShowID      = "show_id"
	colKind        = "type"
	colTitle       = "title"
	colReleaseYear = "release_year"
	colDuration    = "duration"
	colGenre       = "genre"
)

var requiredColumns = []string{colReleaseYear, colDuration, colGenre}

var (
	// ErrEmpty is returned when the catalog has no header row.
	ErrEmpty = errors.New("catalog is empty")
	// ErrNoRows is returned when the catalog has a header but no data rows.
	ErrNoRows = errors.New("catalog has no rows")
)

// RowError describes a row that could not be converted into a TitleRecord.
// Row is 1-based and counts data rows only.
type RowError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Result holds the loaded records and the rows that were dropped.
type Result struct {
	Records []model.TitleRecord
	Skipped []*RowError
}

type options struct {
	delimiter   rune
	kind        string
	skipInvalid bool
}

// Option configures Load.
type Option func(*options)

// WithDelimiter sets the field delimiter (default ',').
func WithDelimiter(r rune) Option {
	return func(o *options) { o.delimiter = r }
}

// WithKind keeps only rows whose type column equals kind.
func WithKind(kind string) Option {
	return func(o *options) { o.kind = kind }
}

// SkipInvalid drops rows that fail conversion instead of failing the load.
func SkipInvalid(skip bool) Option {
	return func(o *options) { o.skipInvalid = skip }
}

// LoadFile reads a catalog from path.
func LoadFile(path string, opts ...Option) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only catalog.
			_ = cerr
		}
	}()
	return Load(file, opts...)
}

// Load reads a catalog with a header row from r.
func Load(r io.Reader, opts ...Option) (Result, error) {
	cfg := options{delimiter: ','}
	for _, opt := range opts {
		opt(&cfg)
	}

	reader := csv.NewReader(r)
	reader.Comma = cfg.delimiter
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	switch len(rows) {
	case 0:
		return Result{}, ErrEmpty
	case 1:
		return Result{}, ErrNoRows
	}

	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return Result{}, fmt.Errorf("failed to read catalog: %w", df.Err)
	}

	cols := columnIndex(df.Names())
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return Result{}, fmt.Errorf("missing required column %q", name)
		}
	}
	if cfg.kind != "" {
		if _, ok := cols[colKind]; !ok {
			return Result{}, fmt.Errorf("cannot filter by kind: missing column %q", colKind)
		}
	}

	values := make(map[string][]string, len(cols))
	for key, raw := range cols {
		values[key] = df.Col(raw).Records()
	}
	cell := func(key string, row int) string {
		col, ok := values[key]
		if !ok {
			return ""
		}
		return strings.TrimSpace(col[row])
	}

	res := Result{Records: make([]model.TitleRecord, 0, df.Nrow())}
	for i := 0; i < df.Nrow(); i++ {
		if cfg.kind != "" && cell(colKind, i) != cfg.kind {
			continue
		}
		rec, rowErr := convertRow(i, cell)
		if rowErr != nil {
			if !cfg.skipInvalid {
				return Result{}, rowErr
			}
			res.Skipped = append(res.Skipped, rowErr)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func convertRow(i int, cell func(string, int) string) (model.TitleRecord, *RowError) {
	yearRaw := cell(colReleaseYear, i)
	year, err := strconv.Atoi(yearRaw)
	if err != nil {
		return model.TitleRecord{}, &RowError{Row: i + 1, Column: colReleaseYear, Value: yearRaw, Err: err}
	}
	durationRaw := cell(colDuration, i)
	duration, err := ParseDuration(durationRaw)
	if err != nil {
		return model.TitleRecord{}, &RowError{Row: i + 1, Column: colDuration, Value: durationRaw, Err: err}
	}
	return model.TitleRecord{
		ShowID:      cell(colShowID, i),
		Kind:        cell(colKind, i),
		Title:       cell(colTitle, i),
		ReleaseYear: year,
		Duration:    duration,
		Genre:       cell(colGenre, i),
	}, nil
}

// ParseDuration accepts minutes as "94", "94.5" or "94 min".
func ParseDuration(raw string) (float64, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimSpace(strings.TrimSuffix(value, "min"))
	if value == "" {
		return 0, fmt.Errorf("empty duration")
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number of minutes")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("duration must be a finite non-negative number")
	}
	return f, nil
}

// NormalizeColumn converts "Release Year" to "release_year".
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

// columnIndex maps normalized column names to the raw header. The first
// occurrence of a name wins.
func columnIndex(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, raw := range names {
		key := NormalizeColumn(raw)
		if _, ok := out[key]; ok {
			continue
		}
		out[key] = raw
	}
	return out
}
