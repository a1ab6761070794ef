// Package storage persists the answer library in a local SQLite database.
// The resolver only ever sees read snapshots assembled here; the single write
// path is UpsertAnswer, which the learning capture drives.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/magicfill/magicfill/internal/learning"
	"github.com/magicfill/magicfill/internal/profile"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a requested answer does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a SQLite database holding the profile and learned answers.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database in dataDir and applies pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "magicfill.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent use.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(name string) (int, error) {
	base := strings.SplitN(name, "_", 2)[0]
	version, err := strconv.Atoi(base)
	if err != nil {
		return 0, fmt.Errorf("migration %q has no numeric version prefix", name)
	}
	return version, nil
}

// PersonalData assembles a read snapshot: the stored profile document plus
// all learned answers, global and site-scoped. Field mappings are not stored
// here; the caller attaches them from its mapping file.
func (s *Store) PersonalData(ctx context.Context) (*profile.PersonalData, error) {
	data := &profile.PersonalData{}

	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM profile WHERE id = 1").Scan(&doc)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// No profile saved yet; answers may still exist.
	case err != nil:
		return nil, fmt.Errorf("reading profile: %w", err)
	default:
		if err := json.Unmarshal([]byte(doc), data); err != nil {
			return nil, fmt.Errorf("parsing stored profile: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, hostname, value FROM answers")
	if err != nil {
		return nil, fmt.Errorf("reading answers: %w", err)
	}
	defer rows.Close()

	data.CustomAnswers = make(map[string]string)
	data.SiteSpecificAnswers = make(map[string]map[string]string)

	for rows.Next() {
		var key, hostname, value string
		if err := rows.Scan(&key, &hostname, &value); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		if hostname == "" {
			data.CustomAnswers[key] = value
			continue
		}
		if data.SiteSpecificAnswers[hostname] == nil {
			data.SiteSpecificAnswers[hostname] = make(map[string]string)
		}
		data.SiteSpecificAnswers[hostname][key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating answers: %w", err)
	}

	return data, nil
}

// SaveProfile stores the standard attributes of the snapshot as the profile
// document. Custom and site answers in the snapshot are upserted as answer
// rows, so a full import lands in the same tables organic learning writes to.
func (s *Store) SaveProfile(ctx context.Context, data *profile.PersonalData) error {
	doc := *data
	custom := doc.CustomAnswers
	site := doc.SiteSpecificAnswers
	doc.CustomAnswers = nil
	doc.SiteSpecificAnswers = nil
	doc.FieldMappings = nil

	raw, err := json.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, data, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`, string(raw)); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}

	for key, value := range custom {
		if _, err := s.UpsertAnswer(ctx, key, value, learning.Scope{}); err != nil {
			return err
		}
	}
	for hostname, answers := range site {
		for key, value := range answers {
			if _, err := s.UpsertAnswer(ctx, key, value, learning.Scope{Site: true, Hostname: hostname}); err != nil {
				return err
			}
		}
	}

	return nil
}

// UpsertAnswer writes one learned answer with last-write-wins semantics and
// reports whether the key was new in its scope. Implements learning.Store.
func (s *Store) UpsertAnswer(ctx context.Context, key, value string, scope learning.Scope) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, errors.New("answer key must not be empty")
	}

	hostname := ""
	if scope.Site {
		hostname = strings.TrimSpace(scope.Hostname)
		if hostname == "" {
			return false, errors.New("site scope requires a hostname")
		}
	}

	var existing int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM answers WHERE key = ? AND hostname = ?", key, hostname,
	).Scan(&existing); err != nil {
		return false, fmt.Errorf("checking answer %q: %w", key, err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO answers (id, key, hostname, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (key, hostname) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), key, hostname, value); err != nil {
		return false, fmt.Errorf("upserting answer %q: %w", key, err)
	}

	return existing == 0, nil
}

// DeleteAnswer removes a learned answer from its scope.
func (s *Store) DeleteAnswer(ctx context.Context, key string, scope learning.Scope) error {
	hostname := ""
	if scope.Site {
		hostname = strings.TrimSpace(scope.Hostname)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM answers WHERE key = ? AND hostname = ?", key, hostname)
	if err != nil {
		return fmt.Errorf("deleting answer %q: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting answer %q: %w", key, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Answer is one stored learned answer.
type Answer struct {
	ID        string
	Key       string
	Hostname  string
	Value     string
	UpdatedAt time.Time
}

// ListAnswers returns learned answers ordered by hostname then key. An empty
// hostname filter returns everything.
func (s *Store) ListAnswers(ctx context.Context, hostname string) ([]Answer, error) {
	query := "SELECT id, key, hostname, value, updated_at FROM answers ORDER BY hostname, key"
	args := []any{}
	if hostname != "" {
		query = "SELECT id, key, hostname, value, updated_at FROM answers WHERE hostname = ? ORDER BY key"
		args = append(args, hostname)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.Key, &a.Hostname, &a.Value, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating answers: %w", err)
	}

	return answers, nil
}
