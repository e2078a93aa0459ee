// internal/infra/database/sql_progress_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"deadline_bot/internal/domain/progress"
)

const DefaultProgressTable = "progress"

// SQLiteRowOrder orders same-day rows by insertion in SQLite tables.
const SQLiteRowOrder = "rowid"

var (
	tableNamePattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	columnNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ErrInvalidTableName is returned by NewSQLProgressRepository for table names that are not plain identifiers.
var ErrInvalidTableName = fmt.Errorf("invalid progress table name")

// ErrInvalidColumnName is returned for a tiebreak column that is not a plain identifier.
var ErrInvalidColumnName = fmt.Errorf("invalid progress column name")

// Option configures a SQLProgressRepository.
type Option func(*SQLProgressRepository)

// WithTiebreak orders rows sharing a date by column, so the last row of a day is the latest count.
// Use an increasing id column, or SQLiteRowOrder for SQLite. Without it one row per date is expected.
func WithTiebreak(column string) Option {
	return func(r *SQLProgressRepository) { r.tiebreak = column }
}

// SQLProgressRepository reads the progress log from a table with `date` and `pages` columns.
// It works with both the Postgres and the SQLite connections from this package.
type SQLProgressRepository struct {
	db       *sql.DB
	query    string
	tiebreak string
}

func NewSQLProgressRepository(db *sql.DB, table string, opts ...Option) (*SQLProgressRepository, error) {
	if table == "" {
		table = DefaultProgressTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	r := &SQLProgressRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}

	orderBy := "date"
	if r.tiebreak != "" {
		if !columnNamePattern.MatchString(r.tiebreak) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColumnName, r.tiebreak)
		}
		orderBy += ", " + r.tiebreak
	}
	r.query = fmt.Sprintf(`SELECT date, pages FROM %s ORDER BY %s`, table, orderBy)
	return r, nil
}

func (r *SQLProgressRepository) Load(ctx context.Context) (progress.Record, error) {
	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return progress.Record{}, fmt.Errorf("%w: error querying progress log: %v", progress.ErrDataUnavailable, err)
	}
	defer rows.Close()

	entries := make([]progress.Entry, 0)
	for rows.Next() {
		var rawDate any
		var pages int64
		if err := rows.Scan(&rawDate, &pages); err != nil {
			return progress.Record{}, fmt.Errorf("%w: error scanning progress row: %v", progress.ErrDataUnavailable, err)
		}
		date, err := toDate(rawDate)
		if err != nil {
			return progress.Record{}, fmt.Errorf("%w: row %d: %v", progress.ErrDataUnavailable, len(entries)+1, err)
		}
		entries = append(entries, progress.Entry{Date: date, Pages: int(pages)})
	}
	if err = rows.Err(); err != nil {
		return progress.Record{}, fmt.Errorf("%w: error iterating progress rows: %v", progress.ErrDataUnavailable, err)
	}
	if len(entries) == 0 {
		return progress.Record{}, fmt.Errorf("%w: progress table is empty", progress.ErrDataUnavailable)
	}

	return progress.Record{Entries: entries}, nil
}

// toDate accepts what the drivers hand back for a date column:
// time.Time from lib/pq, text or bytes from SQLite TEXT columns.
func toDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return progress.DateOf(d), nil
	case string:
		return parseDateText(d)
	case []byte:
		return parseDateText(string(d))
	case nil:
		return time.Time{}, fmt.Errorf("date is NULL")
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}

func parseDateText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len("2006-01-02") {
		if t, err := time.Parse("2006-01-02", s[:len("2006-01-02")]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
