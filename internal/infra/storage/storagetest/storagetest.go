// Package storagetest открывает временное SQLite-хранилище для тестов
package storagetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-WashSync/internal/infra/storage/schema"
	"github.com/m04kA/SMC-WashSync/pkg/dbmetrics"
)

// Open создаёт файл БД во временной директории теста и применяет схему
func Open(t testing.TB) *dbmetrics.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "washsync.db") + "?_busy_timeout=5000&_foreign_keys=on"
	raw, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	raw.SetMaxOpenConns(1)

	db := dbmetrics.Wrap(raw, nil)
	require.NoError(t, schema.Migrate(context.Background(), db))

	t.Cleanup(func() { _ = db.Close() })
	return db
}
