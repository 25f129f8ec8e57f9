// Package journal records wwanctl connection attempts in an append-only
// sqlite database.
package journal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "embed" // for side effect

	_ "modernc.org/sqlite" // for side effect

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// ErrInvalidLimit is returned by List for a negative limit.
var ErrInvalidLimit = errors.New("limit must not be negative")

var (
	//go:embed schema.sql
	schema string

	// regexp for matching comments and empty lines
	commentsAndEmptyLinesRegex = regexp.MustCompile("--.*?\n$|^\\s+$")
)

// An Entry is one recorded connection attempt.
type Entry struct {
	ID        string
	Time      time.Time
	Op        string
	Modem     string
	APN       string
	Interface string
	Address   string
	// Error is empty if the attempt succeeded.
	Error string
}

// row is the database representation of an Entry.
type row struct {
	ID        string `db:"id"`
	CreatedNS int64  `db:"created_ns"`
	Op        string `db:"op"`
	Modem     string `db:"modem"`
	APN       string `db:"apn"`
	Interface string `db:"interface"`
	Address   string `db:"address"`
	Error     string `db:"error"`
}

// A Store is a journal backed by sqlite.
type Store struct {
	mu  sync.RWMutex
	db  *sqlx.DB
	now func() time.Time
}

// Open opens the journal at dbSpec, creating its schema if it is missing.
// dbSpec may be ":memory:".
func Open(dbSpec string, log logrus.FieldLogger) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	db, err := sqlx.Open("sqlite", dbSpec)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Every connection to ":memory:" is a distinct database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	// Every statement is idempotent, so existing databases and empty files
	// are handled alike.
	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to create schema: %w", err)
	}
	log.WithField("journal", dbSpec).Debug("opened journal database")

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends e to the journal and returns it with its ID and Time set.
// A caller-provided ID or Time is kept.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO entries (
			id,
			created_ns,
			op,
			modem,
			apn,
			interface,
			address,
			error)
		 VALUES(
			:id,
			:created_ns,
			:op,
			:modem,
			:apn,
			:interface,
			:address,
			:error)`, toRow(e))
	if err != nil {
		return Entry{}, fmt.Errorf("record journal entry: %w", err)
	}

	return e, nil
}

// List returns up to limit entries, newest first. A zero limit returns every
// entry.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q := "SELECT * FROM entries ORDER BY created_ns DESC, rowid DESC"
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}

	es := make([]Entry, 0, len(rows))
	for _, r := range rows {
		es = append(es, r.entry())
	}

	return es, nil
}

func toRow(e Entry) row {
	return row{
		ID:        e.ID,
		CreatedNS: e.Time.UnixNano(),
		Op:        e.Op,
		Modem:     e.Modem,
		APN:       e.APN,
		Interface: e.Interface,
		Address:   e.Address,
		Error:     e.Error,
	}
}

func (r row) entry() Entry {
	return Entry{
		ID:        r.ID,
		Time:      time.Unix(0, r.CreatedNS).UTC(),
		Op:        r.Op,
		Modem:     r.Modem,
		APN:       r.APN,
		Interface: r.Interface,
		Address:   r.Address,
		Error:     r.Error,
	}
}

// createSchema populates a schema into an sqlx database handle
func createSchema(db *sqlx.DB) error {
	for n, statement := range strings.Split(schema, ";") {
		statement = trimCommentsAndWhitespace(statement)

		if statement == "" {
			continue
		}

		if _, err := db.Exec(statement); err != nil {
			return fmt.Errorf("statement %d failed: %q: %w", n+1, statement, err)
		}
	}

	return nil
}

// trimCommentsAndWhitespace removes comments and superfluous whitespace
func trimCommentsAndWhitespace(s string) string {
	var sb strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		line := scanner.Text() + "\n"
		sb.Write(commentsAndEmptyLinesRegex.ReplaceAll([]byte(line), nil))
	}

	return sb.String()
}
