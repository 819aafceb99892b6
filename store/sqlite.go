package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/zkrdf/zksparql/rdf"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists quads in a SQLite database. Each term is stored
// as its four components so patterns translate directly into WHERE
// clauses.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a quad database at the given path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		s_kind INTEGER NOT NULL, s_value TEXT NOT NULL, s_lang TEXT NOT NULL DEFAULT '', s_dt TEXT NOT NULL DEFAULT '',
		p_kind INTEGER NOT NULL, p_value TEXT NOT NULL, p_lang TEXT NOT NULL DEFAULT '', p_dt TEXT NOT NULL DEFAULT '',
		o_kind INTEGER NOT NULL, o_value TEXT NOT NULL, o_lang TEXT NOT NULL DEFAULT '', o_dt TEXT NOT NULL DEFAULT '',
		g_kind INTEGER NOT NULL, g_value TEXT NOT NULL, g_lang TEXT NOT NULL DEFAULT '', g_dt TEXT NOT NULL DEFAULT '',
		UNIQUE (s_kind, s_value, s_lang, s_dt,
			p_kind, p_value, p_lang, p_dt,
			o_kind, o_value, o_lang, o_dt,
			g_kind, g_value, g_lang, g_dt)
	);

	CREATE INDEX IF NOT EXISTS idx_quads_predicate ON quads(p_value);
	CREATE INDEX IF NOT EXISTS idx_quads_subject ON quads(s_value);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var positionPrefixes = [4]string{"s", "p", "o", "g"}

func (s *SQLiteStore) Add(quads ...rdf.Quad) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO quads (
		 s_kind, s_value, s_lang, s_dt,
		 p_kind, p_value, p_lang, p_dt,
		 o_kind, o_value, o_lang, o_dt,
		 g_kind, g_value, g_lang, g_dt)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, q := range quads {
		args := make([]any, 0, 16)
		for i := range 4 {
			t := q.Position(i)
			args = append(args, int(t.Kind), t.Value, t.Language, t.Datatype)
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Find(pattern Pattern) ([]rdf.Quad, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 16)
	for i, t := range []rdf.Term{pattern.Subject, pattern.Predicate, pattern.Object, pattern.Graph} {
		if t.IsVariable() {
			continue
		}
		pre := positionPrefixes[i]
		where = append(where, fmt.Sprintf(
			"%s_kind = ? AND %s_value = ? AND %s_lang = ? AND %s_dt = ?",
			pre, pre, pre, pre))
		args = append(args, int(t.Kind), t.Value, t.Language, t.Datatype)
	}

	query := `SELECT s_kind, s_value, s_lang, s_dt,
	 p_kind, p_value, p_lang, p_dt,
	 o_kind, o_value, o_lang, o_dt,
	 g_kind, g_value, g_lang, g_dt FROM quads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	return s.queryQuads(query, args...)
}

func (s *SQLiteStore) All() ([]rdf.Quad, error) {
	return s.Find(Pattern{Subject: Wildcard, Predicate: Wildcard, Object: Wildcard, Graph: Wildcard})
}

func (s *SQLiteStore) Len() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM quads`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) queryQuads(query string, args ...any) ([]rdf.Quad, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quads []rdf.Quad
	for rows.Next() {
		var terms [4]rdf.Term
		var kinds [4]int
		err := rows.Scan(
			&kinds[0], &terms[0].Value, &terms[0].Language, &terms[0].Datatype,
			&kinds[1], &terms[1].Value, &terms[1].Language, &terms[1].Datatype,
			&kinds[2], &terms[2].Value, &terms[2].Language, &terms[2].Datatype,
			&kinds[3], &terms[3].Value, &terms[3].Language, &terms[3].Datatype,
		)
		if err != nil {
			return nil, err
		}
		for i := range terms {
			terms[i].Kind = rdf.TermKind(kinds[i])
		}
		quads = append(quads, rdf.Quad{
			Subject:   terms[0],
			Predicate: terms[1],
			Object:    terms[2],
			Graph:     terms[3],
		})
	}
	return quads, rows.Err()
}
