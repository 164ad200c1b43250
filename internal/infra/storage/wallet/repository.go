package wallet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/pkg/dbmetrics"
	"github.com/m04kA/SMC-WashSync/pkg/sqlbuilder"
)

const table = "wallets"

var columns = []string{
	"local_id",
	"server_id",
	"attendant_id",
	"attendant_server_id",
	"attendant_name",
	"attendant_email",
	"balance",
	"total_earnings",
	"total_commission",
	"total_company_share",
	"company_debt",
	"is_paid",
	"last_payment_at",
	"adjustments",
	"created_at",
	"updated_at",
	"is_synced",
	"sync_status",
}

var upsertSuffix = sqlbuilder.UpsertSuffix(table, "local_id", columns, "server_id")

// Repository репозиторий кошельков мойщиков
type Repository struct {
	db DBExecutor
	sb squirrel.StatementBuilderType
}

// NewRepository создает новый экземпляр репозитория кошельков
func NewRepository(db DBExecutor, dialect sqlbuilder.Dialect) *Repository {
	return &Repository{db: db, sb: sqlbuilder.New(dialect)}
}

// Upsert вставляет или заменяет кошелёк по local_id
func (r *Repository) Upsert(ctx context.Context, w *domain.Wallet) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	adjustments := w.Adjustments
	if adjustments == nil {
		adjustments = []domain.Adjustment{}
	}
	rawAdjustments, err := json.Marshal(adjustments)
	if err != nil {
		return fmt.Errorf("%w: Upsert - marshal: %v", ErrAdjustments, err)
	}

	var lastPaymentAt interface{}
	if w.LastPaymentAt != nil {
		lastPaymentAt = w.LastPaymentAt.UTC()
	}

	query, args, err := r.sb.Insert(table).
		Columns(columns...).
		Values(
			w.LocalID,
			w.ServerID,
			w.AttendantID,
			w.AttendantServerID,
			w.AttendantName,
			w.AttendantEmail,
			w.Balance,
			w.TotalEarnings,
			w.TotalCommission,
			w.TotalCompanyShare,
			w.CompanyDebt,
			w.IsPaid,
			lastPaymentAt,
			string(rawAdjustments),
			w.CreatedAt.UTC(),
			w.UpdatedAt.UTC(),
			w.IsSynced,
			w.SyncStatus,
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

// GetByLocalID получает кошелёк по локальному ID
func (r *Repository) GetByLocalID(ctx context.Context, localID string) (*domain.Wallet, error) {
	return r.getOne(ctx, "GetByLocalID", squirrel.Eq{"local_id": localID})
}

// GetByServerID получает кошелёк по серверному ID
func (r *Repository) GetByServerID(ctx context.Context, serverID string) (*domain.Wallet, error) {
	return r.getOne(ctx, "GetByServerID", squirrel.Eq{"server_id": serverID})
}

// GetByAttendantID получает кошелёк по локальному ID мойщика
func (r *Repository) GetByAttendantID(ctx context.Context, attendantID string) (*domain.Wallet, error) {
	return r.getOne(ctx, "GetByAttendantID", squirrel.Eq{"attendant_id": attendantID})
}

// GetByAttendantServerID получает кошелёк по серверному ID мойщика
func (r *Repository) GetByAttendantServerID(ctx context.Context, attendantServerID string) (*domain.Wallet, error) {
	return r.getOne(ctx, "GetByAttendantServerID", squirrel.Eq{"attendant_server_id": attendantServerID})
}

func (r *Repository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*domain.Wallet, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select(columns...).
		From(table).
		Where(where).
		OrderBy("created_at ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	w, err := scanWallet(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan wallet: %v", ErrScanRow, op, err)
	}
	return w, nil
}

// List получает кошельки по фильтру, упорядоченные по имени мойщика
func (r *Repository) List(ctx context.Context, filter domain.WalletsFilter) ([]*domain.Wallet, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := r.sb.Select(columns...).From(table)
	if filter.AttendantID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"attendant_id": *filter.AttendantID})
	}
	if filter.SyncStatus != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"sync_status": *filter.SyncStatus})
	}
	if filter.UnpaidOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_paid": false})
	}

	query, args, err := selectBuilder.OrderBy("attendant_name ASC", "local_id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	wallets := make([]*domain.Wallet, 0)
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan wallet: %v", ErrScanRow, err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - iterate rows: %v", ErrScanRow, err)
	}
	return wallets, nil
}

// CountPending количество кошельков, не подтверждённых сервером
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.sb.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{"sync_status": domain.SyncPending}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountPending - build count query: %v", ErrBuildQuery, err)
	}

	var n int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: CountPending - scan count: %v", ErrScanRow, err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWallet(row scanner) (*domain.Wallet, error) {
	var (
		w              domain.Wallet
		lastPaymentAt  sql.NullTime
		rawAdjustments string
	)
	err := row.Scan(
		&w.LocalID,
		&w.ServerID,
		&w.AttendantID,
		&w.AttendantServerID,
		&w.AttendantName,
		&w.AttendantEmail,
		&w.Balance,
		&w.TotalEarnings,
		&w.TotalCommission,
		&w.TotalCompanyShare,
		&w.CompanyDebt,
		&w.IsPaid,
		&lastPaymentAt,
		&rawAdjustments,
		&w.CreatedAt,
		&w.UpdatedAt,
		&w.IsSynced,
		&w.SyncStatus,
	)
	if err != nil {
		return nil, err
	}

	if lastPaymentAt.Valid {
		t := lastPaymentAt.Time
		w.LastPaymentAt = &t
	}

	w.Adjustments = []domain.Adjustment{}
	if rawAdjustments != "" {
		if err := json.Unmarshal([]byte(rawAdjustments), &w.Adjustments); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAdjustments, err)
		}
	}
	return &w, nil
}
