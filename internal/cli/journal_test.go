package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fedplan/internal/journal"
)

// seedJournal records two entries with fixed ids and returns the database path.
func seedJournal(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "plans.db")
	j, err := journal.Open(db, journal.WithIDGenerator(journal.NewFixedGenerator("plan-a", "plan-b")))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	_, _, err = j.Record(ctx, journal.Entry{
		Source:      "queries/authors.yaml",
		QueryHash:   strings.Repeat("1", 64),
		PlanHash:    strings.Repeat("a", 64),
		Collection:  "authors",
		Connector:   "postgres",
		RemoteJoins: 1,
		Plan:        json.RawMessage(`{"join_locations":{},"plan":{"collection":"authors"}}`),
	})
	require.NoError(t, err)
	_, _, err = j.Record(ctx, journal.Entry{
		Source:     "queries/articles.yaml",
		QueryHash:  strings.Repeat("2", 64),
		PlanHash:   strings.Repeat("b", 64),
		Collection: "articles",
		Connector:  "postgres",
		Plan:       json.RawMessage(`{"join_locations":{},"plan":{"collection":"articles"}}`),
	})
	require.NoError(t, err)
	return db
}

func TestJournalList_Golden(t *testing.T) {
	out, err := execute(t, "journal", "list", "--db", seedJournal(t))
	require.NoError(t, err)
	assertGolden(t, "journal_list", out)
}

func TestJournalList_Limit(t *testing.T) {
	out, err := execute(t, "--format", "json", "journal", "list", "--db", seedJournal(t), "-n", "1")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   []journal.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "plan-b", resp.Data[0].ID)
}

func TestJournalList_Empty(t *testing.T) {
	out, err := execute(t, "journal", "list", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Equal(t, "No plans recorded\n", out)
}

func TestJournalList_NoDatabase(t *testing.T) {
	_, err := execute(t, "--config", testConfig, "journal", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no journal configured")
}

func TestJournalShow(t *testing.T) {
	out, err := execute(t, "journal", "show", "--db", seedJournal(t), "plan-a")
	require.NoError(t, err)

	assert.Contains(t, out, "id:               plan-a\n")
	assert.Contains(t, out, "seq:              1\n")
	assert.Contains(t, out, "source:           queries/authors.yaml\n")
	assert.Contains(t, out, "remote joins:     1\n")
	assert.Contains(t, out, "plan hash:        "+strings.Repeat("a", 64)+"\n")
	assert.Contains(t, out, "\"collection\": \"authors\"")
}

func TestJournalShow_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "journal", "show", "--db", seedJournal(t), "plan-b")
	require.NoError(t, err)

	var resp struct {
		Data journal.Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "articles", resp.Data.Collection)
	assert.JSONEq(t, `{"join_locations":{},"plan":{"collection":"articles"}}`, string(resp.Data.Plan))
}

func TestJournalShow_NotFound(t *testing.T) {
	out, err := execute(t, "journal", "show", "--db", seedJournal(t), "plan-z")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E021]")
	assert.Contains(t, out, `no journal entry "plan-z"`)
}
