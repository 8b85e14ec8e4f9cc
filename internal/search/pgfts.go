package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true; if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs plainto_tsquery against the pitches table, ranking with
// ts_rank and using ts_headline for the snippet.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := "search @@ plainto_tsquery('english', $1)"
	args := []any{q.Text}
	if q.FilterStatus != "" {
		args = append(args, q.FilterStatus)
		where += fmt.Sprintf(" AND status=$%d", len(args))
	}
	if !q.IncludeInternal {
		where += " AND is_internal = FALSE"
	}

	ctx := context.Background()

	var total int
	countSQL := "SELECT count(*) FROM pitches WHERE " + where
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT id, title,
			ts_headline('english', coalesce(doc->>'description', ''), plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			status, is_internal
		FROM pitches
		WHERE %s
		ORDER BY ts_rank(search, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &r.Status, &r.IsInternal); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns every pitch as an index record for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]PitchRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, title, coalesce(doc->>'description', ''), status, is_internal,
			coalesce(doc->'topics', '[]'::jsonb)::text, coalesce(doc->'neighborhoods', '[]'::jsonb)::text
		FROM pitches
	`)
	if err != nil {
		return nil, fmt.Errorf("load pitches: %w", err)
	}
	defer rows.Close()

	records := make([]PitchRecord, 0)
	for rows.Next() {
		var (
			r             PitchRecord
			topics        string
			neighborhoods string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.Status, &r.IsInternal, &topics, &neighborhoods); err != nil {
			return nil, fmt.Errorf("scan pitch: %w", err)
		}
		r.Topics = decodeStringList(topics)
		r.Neighborhoods = decodeStringList(neighborhoods)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pitches: %w", err)
	}
	return records, nil
}

func decodeStringList(raw string) []string {
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
