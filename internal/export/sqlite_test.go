package export

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nocoview/internal/table"
)

func TestToSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	tbl := table.FromRecords([]table.Record{
		{"Id": float64(1), "Full Name": "Alice", "Amount": 600.5},
		{"Id": float64(2), "Full Name": "Bob", "Amount": nil},
	})

	require.NoError(t, ToSQLite(context.Background(), path, "", tbl))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "records"`).Scan(&count))
	assert.Equal(t, 2, count)

	var name string
	require.NoError(t, db.QueryRow(`SELECT "Full Name" FROM "records" WHERE "Id" = '1'`).Scan(&name))
	assert.Equal(t, "Alice", name)

	var amount sql.NullString
	require.NoError(t, db.QueryRow(`SELECT "Amount" FROM "records" WHERE "Id" = '2'`).Scan(&amount))
	assert.False(t, amount.Valid, "nil cells stay NULL")
}

func TestToSQLiteReplacesExistingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	first := table.FromRecords([]table.Record{{"A": "1"}, {"A": "2"}})
	second := table.FromRecords([]table.Record{{"B": "only"}})

	require.NoError(t, ToSQLite(context.Background(), path, "snap", first))
	require.NoError(t, ToSQLite(context.Background(), path, "snap", second))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "snap"`).Scan(&count))
	assert.Equal(t, 1, count)

	var b string
	require.NoError(t, db.QueryRow(`SELECT "B" FROM "snap"`).Scan(&b))
	assert.Equal(t, "only", b)
}

func TestToSQLiteEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	err := ToSQLite(context.Background(), path, "", table.New())
	require.Error(t, err)
}
