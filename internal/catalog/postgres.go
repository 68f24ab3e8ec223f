package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/lib/pq"
)

// Querier is the subset of *sql.DB the PostgreSQL loader needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadPostgres reads the catalog from a table holding the six source columns.
// NULLs load as "". Rows keep the order the table scan returns them in.
func LoadPostgres(ctx context.Context, db Querier, table string) (*Store, error) {
	source := "postgres:" + table
	query := fmt.Sprintf(
		`SELECT %s, %s, %s, %s, %s, %s FROM %s`,
		ColumnID, ColumnTitle, ColumnYear, ColumnCategory, ColumnRating, ColumnOverview,
		pq.QuoteIdentifier(table),
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("querying catalog: %w", err)}
	}
	defer rows.Close()

	movies := make([]Movie, 0, 1024)
	for rows.Next() {
		var (
			id, title, category, rating, overview sql.NullString
			year                                  sql.NullInt64
		)
		if err := rows.Scan(&id, &title, &year, &category, &rating, &overview); err != nil {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("scanning row: %w", err)}
		}
		m := Movie{
			ID:       id.String,
			Title:    title.String,
			Category: category.String,
			Rating:   rating.String,
			Overview: overview.String,
		}
		if year.Valid {
			m.Year = Year(strconv.FormatInt(year.Int64, 10))
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("iterating rows: %w", err)}
	}

	store := NewStore(movies)
	slog.Default().With("component", "catalog").Info("catalog loaded",
		"source", source,
		"movies", store.Len(),
		"fingerprint", store.Fingerprint(),
	)
	return store, nil
}
