package attendant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/pkg/dbmetrics"
	"github.com/m04kA/SMC-WashSync/pkg/sqlbuilder"
)

const table = "attendants"

var columns = []string{
	"local_id",
	"server_id",
	"name",
	"email",
	"role",
	"photo",
	"is_available",
	"created_at",
	"updated_at",
	"is_synced",
	"sync_status",
}

// is_available хранится только на устройстве: upsert не трогает его у существующей записи
var upsertSuffix = sqlbuilder.UpsertSuffix(
	table, "local_id",
	without(columns, "is_available", "created_at"),
	"server_id",
)

// Repository репозиторий сотрудников
type Repository struct {
	db DBExecutor
	sb squirrel.StatementBuilderType
}

// NewRepository создает новый экземпляр репозитория сотрудников
func NewRepository(db DBExecutor, dialect sqlbuilder.Dialect) *Repository {
	return &Repository{db: db, sb: sqlbuilder.New(dialect)}
}

// Upsert вставляет или обновляет сотрудника по local_id
func (r *Repository) Upsert(ctx context.Context, a *domain.Attendant) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Insert(table).
		Columns(columns...).
		Values(
			a.LocalID,
			a.ServerID,
			a.Name,
			a.Email,
			a.Role,
			a.Photo,
			a.IsAvailable,
			a.CreatedAt.UTC(),
			a.UpdatedAt.UTC(),
			a.IsSynced,
			a.SyncStatus,
		).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}
	return nil
}

// GetByLocalID получает сотрудника по локальному ID
func (r *Repository) GetByLocalID(ctx context.Context, localID string) (*domain.Attendant, error) {
	return r.getOne(ctx, "GetByLocalID", squirrel.Eq{"local_id": localID})
}

// GetByServerID получает сотрудника по серверному ID
func (r *Repository) GetByServerID(ctx context.Context, serverID string) (*domain.Attendant, error) {
	return r.getOne(ctx, "GetByServerID", squirrel.Eq{"server_id": serverID})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*domain.Attendant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select(columns...).From(table).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	a, err := scanAttendant(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttendantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan attendant: %v", ErrScanRow, op, err)
	}
	return a, nil
}

// List получает сотрудников по фильтру, упорядоченных по имени
func (r *Repository) List(ctx context.Context, filter domain.AttendantsFilter) ([]*domain.Attendant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.sb.Select(columns...).From(table)
	if filter.Role != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"role": *filter.Role})
	}
	if filter.AvailableOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_available": true})
	}

	query, args, err := selectBuilder.OrderBy("name ASC", "local_id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	attendants := make([]*domain.Attendant, 0)
	for rows.Next() {
		a, err := scanAttendant(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan attendant: %v", ErrScanRow, err)
		}
		attendants = append(attendants, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - iterate rows: %v", ErrScanRow, err)
	}
	return attendants, nil
}

// SetAvailability меняет локальный признак доступности сотрудника
func (r *Repository) SetAvailability(ctx context.Context, localID string, available bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Update(table).
		Set("is_available", available).
		Where(squirrel.Eq{"local_id": localID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetAvailability - build update query: %v", ErrBuildQuery, err)
	}

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetAvailability - execute update: %v", ErrExecQuery, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAttendantNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAttendant(row scanner) (*domain.Attendant, error) {
	var a domain.Attendant
	err := row.Scan(
		&a.LocalID,
		&a.ServerID,
		&a.Name,
		&a.Email,
		&a.Role,
		&a.Photo,
		&a.IsAvailable,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.IsSynced,
		&a.SyncStatus,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func without(list []string, excluded ...string) []string {
	out := make([]string, 0, len(list))
outer:
	for _, c := range list {
		for _, e := range excluded {
			if c == e {
				continue outer
			}
		}
		out = append(out, c)
	}
	return out
}
