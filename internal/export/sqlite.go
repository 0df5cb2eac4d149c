// Package export writes a fetched Table to a local SQLite database so a
// snapshot can be inspected with ordinary SQL tooling after the viewer exits.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"nocoview/internal/table"
)

// DefaultTableName is used when the caller does not pick one.
const DefaultTableName = "records"

// ToSQLite writes t to a SQLite database at path. All columns are TEXT, using
// the same display rendering as the viewer; rows keep their fetch order. An
// existing table of the same name is replaced so repeated exports stay
// idempotent.
func ToSQLite(ctx context.Context, path, tableName string, t *table.Table) error {
	cols := t.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("nothing to export: table has no columns")
	}
	if strings.TrimSpace(tableName) == "" {
		tableName = DefaultTableName
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(tableName))); err != nil {
		return fmt.Errorf("drop existing table: %w", err)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c) + " TEXT"
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableName), strings.Join(quoted, ", "))
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insertStmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(tableName), placeholders)
	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		args := make([]any, len(cols))
		for j, col := range cols {
			v := t.Value(i, col)
			if v == nil {
				args[j] = nil
			} else {
				args[j] = table.CellString(v)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// quoteIdent quotes a SQLite identifier; column names from NocoDB routinely
// contain spaces.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
