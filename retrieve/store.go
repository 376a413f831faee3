package retrieve

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/smhanov/bughound"
)

// Store is a SQLite-backed corpus of documentation pages. It doubles as a
// keyword retriever: queries are tokenized and pages are ranked by term
// overlap.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the documentation database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open doc store: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS docs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create doc table: %w", err)
	}
	return &Store{db: db}, nil
}

// Add inserts a documentation page and returns its id.
func (s *Store) Add(ctx context.Context, source, text string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO docs (source, text) VALUES (?, ?)`, source, text)
	if err != nil {
		return 0, fmt.Errorf("insert doc: %w", err)
	}
	return res.LastInsertId()
}

// StoredDoc is a documentation page with its database id.
type StoredDoc struct {
	ID     int64
	Source string
	Text   string
}

// Docs returns every stored page in insertion order.
func (s *Store) Docs(ctx context.Context) ([]StoredDoc, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, text FROM docs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query docs: %w", err)
	}
	defer rows.Close()

	var docs []StoredDoc
	for rows.Next() {
		var d StoredDoc
		if err := rows.Scan(&d.ID, &d.Source, &d.Text); err != nil {
			return nil, fmt.Errorf("scan doc: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Retrieve implements bughound.DocRetriever by keyword overlap. A page
// scores by how many distinct query terms it contains; pages with no
// overlap are excluded.
func (s *Store) Retrieve(ctx context.Context, queries []string) ([]bughound.DocResult, error) {
	terms := queryTerms(queries)
	if len(terms) == 0 {
		return nil, nil
	}

	docs, err := s.Docs(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		doc   StoredDoc
		score int
	}
	var ranked []scored
	for _, d := range docs {
		lower := strings.ToLower(d.Text)
		score := 0
		for term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{doc: d, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > maxDocsPerQuery {
		ranked = ranked[:maxDocsPerQuery]
	}

	results := make([]bughound.DocResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, bughound.DocResult{
			Text:  r.doc.Text,
			Score: strconv.Itoa(r.score),
		})
	}
	return results, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func queryTerms(queries []string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, q := range queries {
		for _, field := range strings.Fields(strings.ToLower(q)) {
			field = strings.Trim(field, "().,;")
			if len(field) > 2 {
				terms[field] = struct{}{}
			}
		}
	}
	return terms
}
