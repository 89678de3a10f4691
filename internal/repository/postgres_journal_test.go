package repository

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGParamsDSN(t *testing.T) {
	p := PGParams{Host: "db", Port: 5432, User: "cs", Password: "secret", DBName: "candlescope", SSLMode: "disable"}
	assert.Equal(t, "postgres://cs:secret@db:5432/candlescope?sslmode=disable", p.dsn())
}

func TestPGParamsDSNEscapesCredentials(t *testing.T) {
	p := PGParams{Host: "db", Port: 5432, User: "cs", Password: `it's a "pass"@/word`, DBName: "candlescope", SSLMode: "require"}

	u, err := url.Parse(p.dsn())
	require.NoError(t, err)
	pass, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, `it's a "pass"@/word`, pass)
	assert.Equal(t, "cs", u.User.Username())
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/candlescope", u.Path)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestPGStatementsMatchColumns(t *testing.T) {
	schema := pgJournalSchema("analysis_journal")
	insert := pgInsert("analysis_journal")

	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS analysis_journal")
	assert.Contains(t, insert, "INSERT INTO analysis_journal")
	for _, col := range []string{"at", "session_id", "method", "exchange", "currency", "start_date",
		"end_date", "outcome", "anomalies", "error", "duration_ms", "stale"} {
		assert.Contains(t, schema, "\t"+col+" ", col)
	}
	assert.Equal(t, 12, strings.Count(insert, "$"))
}

func TestNullDate(t *testing.T) {
	assert.False(t, nullDate("").Valid)
	d := nullDate("2024-03-01")
	assert.True(t, d.Valid)
	assert.Equal(t, "2024-03-01", d.String)
}
