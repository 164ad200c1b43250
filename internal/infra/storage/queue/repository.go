package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/pkg/dbmetrics"
	"github.com/m04kA/SMC-WashSync/pkg/sqlbuilder"
)

const table = "sync_queue"

var columns = []string{
	"id",
	"operation",
	"entity_type",
	"local_id",
	"kind",
	"payload",
	"retry_count",
	"last_error",
	"enqueued_at",
}

// Repository персистентная очередь операций синхронизации
type Repository struct {
	db DBExecutor
	sb squirrel.StatementBuilderType
}

// NewRepository создает новый экземпляр репозитория очереди
func NewRepository(db DBExecutor, dialect sqlbuilder.Dialect) *Repository {
	return &Repository{db: db, sb: sqlbuilder.New(dialect)}
}

// Add добавляет запись в конец очереди
func (r *Repository) Add(ctx context.Context, e *domain.QueueEntry) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	payload, err := e.Payload.Encode()
	if err != nil {
		return err
	}

	query, args, err := r.sb.Insert(table).
		Columns(columns...).
		Values(
			e.ID,
			e.Operation,
			e.EntityType,
			e.LocalID,
			e.Payload.Kind,
			string(payload),
			e.RetryCount,
			e.LastError,
			e.EnqueuedAt.UnixNano(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Add - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Add - execute insert: %v", ErrExecQuery, err)
	}
	return nil
}

// List возвращает все записи в порядке постановки (FIFO)
func (r *Repository) List(ctx context.Context) ([]*domain.QueueEntry, error) {
	return r.list(ctx, "List", nil)
}

// ListByEntity возвращает записи, относящиеся к одной сущности, в порядке постановки
func (r *Repository) ListByEntity(ctx context.Context, entityType domain.EntityType, localID string) ([]*domain.QueueEntry, error) {
	return r.list(ctx, "ListByEntity", squirrel.Eq{"entity_type": entityType, "local_id": localID})
}

func (r *Repository) list(ctx context.Context, op string, where squirrel.Sqlizer) ([]*domain.QueueEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.sb.Select(columns...).From(table)
	if where != nil {
		selectBuilder = selectBuilder.Where(where)
	}

	query, args, err := selectBuilder.OrderBy("enqueued_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	entries := make([]*domain.QueueEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan entry: %v", ErrScanRow, op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - iterate rows: %v", ErrScanRow, op, err)
	}
	return entries, nil
}

// Remove удаляет запись из очереди. Отсутствие записи не считается ошибкой.
func (r *Repository) Remove(ctx context.Context, id string) error {
	return r.remove(ctx, "Remove", squirrel.Eq{"id": id})
}

// RemoveByEntity удаляет все записи, относящиеся к сущности
func (r *Repository) RemoveByEntity(ctx context.Context, entityType domain.EntityType, localID string) error {
	return r.remove(ctx, "RemoveByEntity", squirrel.Eq{"entity_type": entityType, "local_id": localID})
}

func (r *Repository) remove(ctx context.Context, op string, where squirrel.Sqlizer) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Delete(table).Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build delete query: %v", ErrBuildQuery, op, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %s - execute delete: %v", ErrExecQuery, op, err)
	}
	return nil
}

// UpdateError увеличивает счётчик попыток, сохраняет текст ошибки
// и возвращает новое значение счётчика
func (r *Repository) UpdateError(ctx context.Context, id string, message string) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Update(table).
		Set("retry_count", squirrel.Expr("retry_count + 1")).
		Set("last_error", message).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING retry_count").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: UpdateError - build update query: %v", ErrBuildQuery, err)
	}

	var retryCount int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&retryCount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrEntryNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: UpdateError - scan retry count: %v", ErrExecQuery, err)
	}
	return retryCount, nil
}

// Count количество записей в очереди
func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "Count", nil)
}

// HasPendingForEntity проверяет, есть ли в очереди записи для сущности
func (r *Repository) HasPendingForEntity(ctx context.Context, entityType domain.EntityType, localID string) (bool, error) {
	n, err := r.count(ctx, "HasPendingForEntity", squirrel.Eq{"entity_type": entityType, "local_id": localID})
	return n > 0, err
}

func (r *Repository) count(ctx context.Context, op string, where squirrel.Sqlizer) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.sb.Select("COUNT(*)").From(table)
	if where != nil {
		selectBuilder = selectBuilder.Where(where)
	}
	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %s - build count query: %v", ErrBuildQuery, op, err)
	}

	var n int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %s - scan count: %v", ErrScanRow, op, err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*domain.QueueEntry, error) {
	var (
		e          domain.QueueEntry
		kind       string
		payload    string
		enqueuedAt int64
	)
	err := row.Scan(
		&e.ID,
		&e.Operation,
		&e.EntityType,
		&e.LocalID,
		&kind,
		&payload,
		&e.RetryCount,
		&e.LastError,
		&enqueuedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Payload, err = domain.DecodeQueuePayload([]byte(payload))
	if err != nil {
		return nil, err
	}
	e.EnqueuedAt = time.Unix(0, enqueuedAt).UTC()
	return &e, nil
}
