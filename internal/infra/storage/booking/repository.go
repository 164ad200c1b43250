package booking

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

const table = "bookings"

var columns = []string{
	"local_id",
	"server_id",
	"category",
	"registration_number",
	"phone",
	"color",
	"attendant_id",
	"attendant_server_id",
	"attendant_name",
	"attendant_email",
	"amount",
	"payment_type",
	"status",
	"attendant_paid",
	"note",
	"created_at",
	"updated_at",
	"is_synced",
	"sync_status",
	"deleted",
}

// server_id после привязки не перезаписывается
var upsertSuffix = sqlbuilder.UpsertSuffix(table, "local_id", columns, "server_id")

// Repository репозиторий для работы с бронированиями в локальном хранилище
type Repository struct {
	db DBExecutor
	sb squirrel.StatementBuilderType
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor, dialect sqlbuilder.Dialect) *Repository {
	return &Repository{db: db, sb: sqlbuilder.New(dialect)}
}

// Upsert вставляет или заменяет бронирование по local_id.
// Повторный вызов с теми же значениями не меняет строку.
func (r *Repository) Upsert(ctx context.Context, b *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Insert(table).
		Columns(columns...).
		Values(
			b.LocalID,
			b.ServerID,
			b.Category,
			b.RegistrationNumber,
			b.Phone,
			b.Color,
			b.AttendantID,
			b.AttendantServerID,
			b.AttendantName,
			b.AttendantEmail,
			b.Amount,
			b.PaymentType,
			b.Status,
			b.AttendantPaid,
			b.Note,
			b.CreatedAt.UTC(),
			b.UpdatedAt.UTC(),
			b.IsSynced,
			b.SyncStatus,
			b.Deleted,
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

// GetByLocalID получает бронирование по локальному ID (включая помеченные на удаление)
func (r *Repository) GetByLocalID(ctx context.Context, localID string) (*domain.Booking, error) {
	return r.getOne(ctx, "GetByLocalID", squirrel.Eq{"local_id": localID})
}

// GetByServerID получает бронирование по серверному ID
func (r *Repository) GetByServerID(ctx context.Context, serverID string) (*domain.Booking, error) {
	return r.getOne(ctx, "GetByServerID", squirrel.Eq{"server_id": serverID})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select(columns...).From(table).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan booking: %v", ErrScanRow, op, err)
	}
	return b, nil
}

// List получает бронирования по фильтру, сначала новые.
// Бронирования, ожидающие подтверждения удаления, не возвращаются.
func (r *Repository) List(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.sb.Select(columns...).
		From(table).
		Where(squirrel.Eq{"deleted": false})

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Category != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.AttendantID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"attendant_id": *filter.AttendantID})
	}
	if filter.SyncStatus != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"sync_status": *filter.SyncStatus})
	}
	if filter.CreatedFrom != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
	}
	if filter.CreatedTo != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"created_at": filter.CreatedTo.UTC()})
	}

	selectBuilder = selectBuilder.OrderBy("created_at DESC", "local_id ASC")
	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit == 0 {
			// SQLite не допускает OFFSET без LIMIT
			selectBuilder = selectBuilder.Limit(1 << 31)
		}
		selectBuilder = selectBuilder.Offset(filter.Offset)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan booking: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - iterate rows: %v", ErrScanRow, err)
	}
	return bookings, nil
}

// Delete удаляет бронирование из локального хранилища
func (r *Repository) Delete(ctx context.Context, localID string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Delete(table).Where(squirrel.Eq{"local_id": localID}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// CountPending количество бронирований, не подтверждённых сервером
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	return r.count(ctx, "CountPending", squirrel.Eq{"sync_status": domain.SyncPending})
}

// CountPendingByAttendant количество неподтверждённых бронирований мойщика
func (r *Repository) CountPendingByAttendant(ctx context.Context, attendantID string) (int, error) {
	return r.count(ctx, "CountPendingByAttendant", squirrel.Eq{
		"sync_status":  domain.SyncPending,
		"attendant_id": attendantID,
	})
}

func (r *Repository) count(ctx context.Context, op string, where squirrel.Sqlizer) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select("COUNT(*)").From(table).Where(where).ToSql()
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

func scanBooking(row scanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.LocalID,
		&b.ServerID,
		&b.Category,
		&b.RegistrationNumber,
		&b.Phone,
		&b.Color,
		&b.AttendantID,
		&b.AttendantServerID,
		&b.AttendantName,
		&b.AttendantEmail,
		&b.Amount,
		&b.PaymentType,
		&b.Status,
		&b.AttendantPaid,
		&b.Note,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.IsSynced,
		&b.SyncStatus,
		&b.Deleted,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
