package sink

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSink writes rows into a single flat table, `row_id` keeps the order
// rows were appended in.
type SQLiteSink[R Row] struct {
	mutex  sync.Mutex
	db     *sql.DB
	insert string
	closed bool
}

// OpenSQLite opens the database at path and recreates `table` with one TEXT
// column per column of R.
func OpenSQLite[R Row](path, table string) (*SQLiteSink[R], error) {
	if !identifierRegex.MatchString(table) {
		return nil, fmt.Errorf("open sqlite sink: invalid table name %q", table)
	}
	var zero R
	columns := zero.Columns()
	for _, c := range columns {
		if !identifierRegex.MatchString(c) {
			return nil, fmt.Errorf("open sqlite sink: invalid column name %q", c)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite sink: %w", err)
	}
	// a single connection keeps ":memory:" databases alive between calls
	db.SetMaxOpenConns(1)

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%s text not null", c)
	}
	_, err = db.Exec(fmt.Sprintf("drop table if exists %s", table))
	if err == nil {
		_, err = db.Exec(fmt.Sprintf(
			"create table %s (\n\trow_id integer primary key autoincrement,\n\t%s\n)",
			table, strings.Join(defs, ",\n\t"),
		))
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return &SQLiteSink[R]{
		db: db,
		insert: fmt.Sprintf(
			"insert into %s (%s) values (%s)",
			table, strings.Join(columns, ", "), placeholders,
		),
	}, nil
}

// Append inserts the batch in a single transaction.
func (s *SQLiteSink[R]) Append(rows []R) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return ErrClosed
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(s.insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		record := r.Record()
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		_, err = stmt.Exec(args...)
		if err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteSink[R]) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// DB exposes the underlying database, it is meant for reading back what was
// written.
func (s *SQLiteSink[R]) DB() *sql.DB {
	return s.db
}
