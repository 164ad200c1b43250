// Package sqlbuilder squirrel-билдер с плейсхолдерами под выбранный драйвер
package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
)

// Dialect драйвер локального хранилища
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect проверяет имя драйвера из конфигурации
func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(driver) {
	case DialectSQLite, DialectPostgres:
		return Dialect(driver), nil
	default:
		return "", fmt.Errorf("sqlbuilder: unsupported driver %q", driver)
	}
}

// New возвращает билдер запросов для диалекта
func New(d Dialect) squirrel.StatementBuilderType {
	if d == DialectPostgres {
		return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

// UpsertSuffix строит "ON CONFLICT (key) DO UPDATE SET ..." для INSERT.
// Синтаксис одинаково поддерживается SQLite (3.24+) и PostgreSQL.
// Колонки из keepExisting не перезаписываются, если в строке уже есть значение.
func UpsertSuffix(table, key string, columns []string, keepExisting ...string) string {
	keep := make(map[string]bool, len(keepExisting))
	for _, c := range keepExisting {
		keep[c] = true
	}

	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		switch {
		case c == key:
			continue
		case keep[c]:
			sets = append(sets, fmt.Sprintf("%s = COALESCE(%s.%s, excluded.%s)", c, table, c, c))
		default:
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}

	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(sets, ", "))
}
