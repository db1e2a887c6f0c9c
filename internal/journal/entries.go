package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/fedplan/internal/ir"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("journal entry not found")

// Entry is one recorded compilation.
type Entry struct {
	// ID is assigned by Record.
	ID string `json:"id"`
	// Seq orders entries; assigned by Record.
	Seq int64 `json:"seq"`

	Source          string          `json:"source"`
	QueryHash       string          `json:"query_hash"`
	PlanHash        string          `json:"plan_hash"`
	Collection      string          `json:"collection"`
	Connector       string          `json:"connector"`
	RemoteJoins     int             `json:"remote_joins"`
	Plan            json.RawMessage `json:"plan,omitempty"`
	CompilerVersion string          `json:"compiler_version"`
	PlanFormat      string          `json:"plan_format"`
}

// Record appends e to the journal and returns the stored entry.
//
// The plan is stored as canonical JSON. If an entry with the same query and
// plan hashes exists, nothing is written and the existing entry is returned
// with recorded == false. An id is drawn from the generator only for a new
// entry.
func (j *Journal) Record(ctx context.Context, e Entry) (stored Entry, recorded bool, err error) {
	if e.QueryHash == "" || e.PlanHash == "" {
		return Entry{}, false, fmt.Errorf("record: query and plan hashes are required")
	}
	plan, err := ir.CanonicalizeJSON(e.Plan)
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: plan: %w", err)
	}
	e.Plan = plan
	if e.CompilerVersion == "" {
		e.CompilerVersion = ir.CompilerVersion
	}
	if e.PlanFormat == "" {
		e.PlanFormat = ir.PlanFormatVersion
	}

	existing, err := j.lookup(ctx, "query_hash = ? AND plan_hash = ?", e.QueryHash, e.PlanHash)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Entry{}, false, fmt.Errorf("record: %w", err)
	}
	e.ID = j.ids.Generate()

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO plans
		(id, source, query_hash, plan_hash, collection, connector, remote_joins, plan, compiler_version, plan_format)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(query_hash, plan_hash) DO NOTHING
	`,
		e.ID,
		e.Source,
		e.QueryHash,
		e.PlanHash,
		e.Collection,
		e.Connector,
		e.RemoteJoins,
		string(e.Plan),
		e.CompilerVersion,
		e.PlanFormat,
	)
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: %w", err)
	}
	if n == 0 {
		existing, err := j.lookup(ctx, "query_hash = ? AND plan_hash = ?", e.QueryHash, e.PlanHash)
		if err != nil {
			return Entry{}, false, fmt.Errorf("record: %w", err)
		}
		return existing, false, nil
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return Entry{}, false, fmt.Errorf("record: %w", err)
	}
	e.Seq = seq
	return e, true, nil
}

// Get returns the entry with the given id, or ErrNotFound.
func (j *Journal) Get(ctx context.Context, id string) (Entry, error) {
	e, err := j.lookup(ctx, "id = ?", id)
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", id, err)
	}
	return e, nil
}

// List returns the most recent entries first, without plan bodies.
// limit <= 0 returns every entry.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, id, source, query_hash, plan_hash, collection, connector,
		       remote_joins, compiler_version, plan_format
		FROM plans
		ORDER BY seq DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.ID, &e.Source, &e.QueryHash, &e.PlanHash, &e.Collection,
			&e.Connector, &e.RemoteJoins, &e.CompilerVersion, &e.PlanFormat); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return entries, nil
}

func (j *Journal) lookup(ctx context.Context, where string, args ...any) (Entry, error) {
	var e Entry
	var plan string
	err := j.db.QueryRowContext(ctx, `
		SELECT seq, id, source, query_hash, plan_hash, collection, connector,
		       remote_joins, plan, compiler_version, plan_format
		FROM plans
		WHERE `+where+`
		ORDER BY seq ASC, id COLLATE BINARY ASC
		LIMIT 1
	`, args...).Scan(&e.Seq, &e.ID, &e.Source, &e.QueryHash, &e.PlanHash, &e.Collection,
		&e.Connector, &e.RemoteJoins, &plan, &e.CompilerVersion, &e.PlanFormat)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	e.Plan = json.RawMessage(plan)
	return e, nil
}
