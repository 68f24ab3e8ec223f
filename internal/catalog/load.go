package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/errors"
)

// Source column names, in Movie field order.
const (
	ColumnID       = "show_id"
	ColumnTitle    = "title"
	ColumnYear     = "release_year"
	ColumnCategory = "listed_in"
	ColumnRating   = "rating"
	ColumnOverview = "description"
)

var requiredColumns = []string{ColumnID, ColumnTitle, ColumnYear, ColumnCategory, ColumnRating, ColumnOverview}

// missingMarkers are cell values treated as absent, matching the usual
// tabular-reader NA convention. They load as "".
var missingMarkers = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadError reports a catalog that could not be built. It matches
// apperrors.ErrCatalogLoad under errors.Is.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading catalog from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == apperrors.ErrCatalogLoad
}

// LoadCSV reads the catalog from a CSV file on disk.
func LoadCSV(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return Load(f, path)
}

// Load reads a comma-delimited catalog with a header row from r. source only
// labels errors and logs.
func Load(r io.Reader, source string) (*Store, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("missing header row")
		}
		return nil, &LoadError{Source: source, Err: fmt.Errorf("reading header: %w", err)}
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	movies := make([]Movie, 0, 1024)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("reading row: %w", err)}
		}
		cell := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return normalizeCell(record[i])
		}
		movies = append(movies, Movie{
			ID:       cell(ColumnID),
			Title:    cell(ColumnTitle),
			Year:     ParseYear(cell(ColumnYear)),
			Category: cell(ColumnCategory),
			Rating:   cell(ColumnRating),
			Overview: cell(ColumnOverview),
		})
	}

	store := NewStore(movies)
	slog.Default().With("component", "catalog").Info("catalog loaded",
		"source", source,
		"movies", store.Len(),
		"fingerprint", store.Fingerprint(),
	)
	return store, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(requiredColumns))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func normalizeCell(v string) string {
	if _, missing := missingMarkers[v]; missing {
		return ""
	}
	return v
}
