// Package verses persists the ingested source text in SQLite and answers
// lookup, listing and keyword-search queries for the research pipeline.
package verses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a verse ID does not exist in the store.
var ErrNotFound = errors.New("verse not found")

// Store manages the verses SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the SQLite database at dbPath and creates the
// schema if it does not exist.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS verses (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			verse_id TEXT NOT NULL UNIQUE,
			chapter INTEGER NOT NULL,
			verse_number INTEGER NOT NULL,
			sanskrit TEXT,
			transliteration TEXT,
			word_meanings TEXT,
			translation TEXT NOT NULL,
			purport TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verses_chapter ON verses(chapter)`,
		`CREATE INDEX IF NOT EXISTS idx_verses_chapter_number ON verses(chapter, verse_number)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over translation and purport, kept in sync with
	// triggers. Serves the purport fallback search.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='verses_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE verses_fts USING fts5(translation, purport, content=verses, content_rowid=rowid)`,
			`CREATE TRIGGER verses_ai AFTER INSERT ON verses BEGIN
				INSERT INTO verses_fts(rowid, translation, purport) VALUES (new.rowid, new.translation, new.purport);
			END`,
			`CREATE TRIGGER verses_ad AFTER DELETE ON verses BEGIN
				INSERT INTO verses_fts(verses_fts, rowid, translation, purport) VALUES('delete', old.rowid, old.translation, old.purport);
			END`,
			`CREATE TRIGGER verses_au AFTER UPDATE ON verses BEGIN
				INSERT INTO verses_fts(verses_fts, rowid, translation, purport) VALUES('delete', old.rowid, old.translation, old.purport);
				INSERT INTO verses_fts(rowid, translation, purport) VALUES (new.rowid, new.translation, new.purport);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Upsert inserts the verse or replaces an existing row with the same ID.
func (s *Store) Upsert(ctx context.Context, v Verse) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verses (verse_id, chapter, verse_number, sanskrit, transliteration, word_meanings, translation, purport)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(verse_id) DO UPDATE SET
			chapter = excluded.chapter,
			verse_number = excluded.verse_number,
			sanskrit = excluded.sanskrit,
			transliteration = excluded.transliteration,
			word_meanings = excluded.word_meanings,
			translation = excluded.translation,
			purport = excluded.purport`,
		v.ID, v.Chapter, v.VerseNumber, v.Sanskrit, v.Transliteration, v.WordMeanings, v.Translation, v.Purport)
	if err != nil {
		return fmt.Errorf("upserting verse %s: %w", v.ID, err)
	}
	return nil
}

// GetByID returns the verse with the given identifier or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (Verse, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT verse_id, chapter, verse_number, sanskrit, transliteration, word_meanings, translation, purport
		FROM verses WHERE verse_id = ?`, id)

	v, err := scanVerse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Verse{}, ErrNotFound
	}
	if err != nil {
		return Verse{}, fmt.Errorf("fetching verse %s: %w", id, err)
	}
	return v, nil
}

// List returns verses matching the filter, ordered by chapter then verse number.
func (s *Store) List(ctx context.Context, f Filter) ([]Verse, error) {
	query := `
		SELECT verse_id, chapter, verse_number, sanskrit, transliteration, word_meanings, translation, purport
		FROM verses WHERE 1=1`
	var args []any
	if f.VerseID != "" {
		query += " AND verse_id = ?"
		args = append(args, f.VerseID)
	}
	if f.Chapter > 0 {
		query += " AND chapter = ?"
		args = append(args, f.Chapter)
	}
	if f.VerseNumber > 0 {
		query += " AND verse_number = ?"
		args = append(args, f.VerseNumber)
	}
	query += " ORDER BY chapter, verse_number"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing verses: %w", err)
	}
	defer rows.Close()

	var result []Verse
	for rows.Next() {
		v, err := scanVerse(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning verse row: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating verse rows: %w", err)
	}
	return result, nil
}

// All returns every verse in the store, ordered by chapter then verse number.
func (s *Store) All(ctx context.Context) ([]Verse, error) {
	return s.List(ctx, Filter{})
}

// PurportMatch is a keyword-search hit with its FTS rank. Rank is the raw
// bm25 value from SQLite: lower (more negative) means a better match.
type PurportMatch struct {
	Verse Verse
	Rank  float64
}

// SearchPurports runs an FTS5 keyword search over translations and purports.
// Used as the broader fallback when vector retrieval yields too few verses.
func (s *Store) SearchPurports(ctx context.Context, query string, limit int) ([]PurportMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT v.verse_id, v.chapter, v.verse_number, v.sanskrit, v.transliteration, v.word_meanings, v.translation, v.purport,
		       bm25(verses_fts) AS rank
		FROM verses_fts
		JOIN verses v ON v.rowid = verses_fts.rowid
		WHERE verses_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("purport search: %w", err)
	}
	defer rows.Close()

	var matches []PurportMatch
	for rows.Next() {
		var m PurportMatch
		var v Verse
		var sanskrit, transliteration, wordMeanings, purport sql.NullString
		if err := rows.Scan(&v.ID, &v.Chapter, &v.VerseNumber, &sanskrit, &transliteration, &wordMeanings, &v.Translation, &purport, &m.Rank); err != nil {
			return nil, fmt.Errorf("scanning purport match: %w", err)
		}
		v.Sanskrit = sanskrit.String
		v.Transliteration = transliteration.String
		v.WordMeanings = wordMeanings.String
		v.Purport = purport.String
		m.Verse = v
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating purport matches: %w", err)
	}
	return matches, nil
}

// Stats summarizes the store contents.
type Stats struct {
	TotalVerses int `json:"total_verses"`
	Chapters    int `json:"chapters"`
}

// Stats returns verse and chapter counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM verses`).Scan(&st.TotalVerses); err != nil {
		return Stats{}, fmt.Errorf("counting verses: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(DISTINCT chapter) FROM verses`).Scan(&st.Chapters); err != nil {
		return Stats{}, fmt.Errorf("counting chapters: %w", err)
	}
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVerse(row scanner) (Verse, error) {
	var v Verse
	var sanskrit, transliteration, wordMeanings, purport sql.NullString
	err := row.Scan(&v.ID, &v.Chapter, &v.VerseNumber, &sanskrit, &transliteration, &wordMeanings, &v.Translation, &purport)
	if err != nil {
		return Verse{}, err
	}
	v.Sanskrit = sanskrit.String
	v.Transliteration = transliteration.String
	v.WordMeanings = wordMeanings.String
	v.Purport = purport.String
	return v, nil
}
