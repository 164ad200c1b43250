package sqlbuilder

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Placeholders(t *testing.T) {
	query, _, err := New(DialectPostgres).Select("local_id").From("bookings").
		Where(squirrel.Eq{"server_id": "srv-1"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT local_id FROM bookings WHERE server_id = $1", query)

	query, _, err = New(DialectSQLite).Select("local_id").From("bookings").
		Where(squirrel.Eq{"server_id": "srv-1"}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT local_id FROM bookings WHERE server_id = ?", query)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, d)

	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}

func TestUpsertSuffix(t *testing.T) {
	got := UpsertSuffix("bookings", "local_id", []string{"local_id", "server_id", "amount"}, "server_id")
	assert.Equal(t,
		"ON CONFLICT (local_id) DO UPDATE SET server_id = COALESCE(bookings.server_id, excluded.server_id), amount = excluded.amount",
		got)
}
