// Package wallets офлайн-фасад кошельков мойщиков. Финансовые операции
// применяются локально сразу, а на сервер уходят целиком как именованные
// операции со снимком кошелька на момент постановки.
package wallets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	walletRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/wallet"
	"github.com/m04kA/SMC-WashSync/internal/integrations/remoteapi"
	"github.com/m04kA/SMC-WashSync/internal/ledger"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
)

// Service сервис для работы с кошельками
type Service struct {
	walletRepo   WalletRepository
	queue        QueueManager
	remote       RemoteAPI
	connectivity Connectivity
	sync         SyncTrigger
	txManager    TransactionManager
	logger       Logger

	now func() time.Time
}

// NewService создает новый экземпляр сервиса кошельков
func NewService(
	walletRepo WalletRepository,
	queue QueueManager,
	remote RemoteAPI,
	connectivity Connectivity,
	sync SyncTrigger,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		walletRepo:   walletRepo,
		queue:        queue,
		remote:       remote,
		connectivity: connectivity,
		sync:         sync,
		txManager:    txManager,
		logger:       logger,
		now:          time.Now,
	}
}

// List возвращает кошельки. Текущее состояние берётся из локального хранилища,
// срез за прошедший день запрашивается у сервера, если есть сеть.
func (s *Service) List(ctx context.Context, token string, req *models.ListWalletsRequest) (*models.WalletListResponse, error) {
	online := s.connectivity.IsOnline()

	if req.Date != nil && now.With(*req.Date).BeginningOfDay().Before(now.With(s.now()).BeginningOfDay()) {
		day := req.Date.Format(domain.DateFormat)
		if online {
			remote, err := s.remote.ListWallets(ctx, token, req.Date)
			if err == nil {
				resp := &models.WalletListResponse{Date: &day, Source: models.SourceServer, Wallets: make([]models.WalletResponse, 0, len(remote))}
				for _, w := range remote {
					if req.UnpaidOnly && w.IsPaid {
						continue
					}
					resp.Wallets = append(resp.Wallets, models.FromRemoteWallet(w))
				}
				s.logger.Info("List: fetched %d wallets for date=%s from server", len(resp.Wallets), day)
				return resp, nil
			}
			s.logger.Warn("List: failed to fetch wallets for date=%s, serving local state: %v", day, err)
		} else {
			s.logger.Info("List: offline, serving local state instead of date=%s", day)
		}
	}

	wallets, err := s.walletRepo.List(ctx, domain.WalletsFilter{UnpaidOnly: req.UnpaidOnly})
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	if online {
		s.sync.TriggerBackground()
	}

	s.logger.Info("List: fetched %d wallets", len(wallets))
	return &models.WalletListResponse{Source: models.SourceLocal, Wallets: models.FromDomainWalletList(wallets)}, nil
}

// GetByAttendant получает кошелёк мойщика по его локальному или серверному ID
func (s *Service) GetByAttendant(ctx context.Context, attendantID string) (*models.WalletResponse, error) {
	w, err := s.find(ctx, attendantID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			s.logger.Warn("GetByAttendant: wallet for attendant=%s not found", attendantID)
			return nil, err
		}
		s.logger.Error("GetByAttendant: repository error for attendant=%s: %v", attendantID, err)
		return nil, fmt.Errorf("%w: GetByAttendant - repository error: %v", ErrInternal, err)
	}
	return models.FromDomainWallet(w), nil
}

// SettleAttendantBalances обнуляет балансы и долги выбранных мойщиков
func (s *Service) SettleAttendantBalances(ctx context.Context, token string, req *models.SettleRequest) (*models.SettleResponse, error) {
	const op = "SettleAttendantBalances"
	s.logger.Info("%s: settling attendants=%v", op, req.AttendantIDs)

	if err := req.Validate(); err != nil {
		s.logger.Warn("%s: invalid request: %v", op, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	online := s.connectivity.IsOnline()
	entryID := uuid.NewString()

	var (
		settled []*domain.Wallet
		payload = &domain.SettlePayload{Snapshots: make(map[string]domain.WalletSnapshot)}
		queued  bool
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		at := s.now().UTC()
		seen := make(map[string]bool)

		for _, id := range req.AttendantIDs {
			w, err := s.find(txCtx, id)
			if err != nil {
				return err
			}
			if seen[w.LocalID] {
				continue
			}
			seen[w.LocalID] = true

			if w.AttendantServerID != nil && *w.AttendantServerID != "" {
				payload.AttendantServerIDs = append(payload.AttendantServerIDs, *w.AttendantServerID)
				payload.Snapshots[*w.AttendantServerID] = w.Snapshot()
			} else {
				s.logger.Warn("%s: attendant=%s is unknown to the server, settling locally only", op, id)
			}

			w.Settle(at)
			if err := s.walletRepo.Upsert(txCtx, w); err != nil {
				return err
			}
			settled = append(settled, w)
		}

		if online || len(payload.AttendantServerIDs) == 0 {
			return nil
		}
		queued = true
		return s.enqueue(txCtx, entryID, settlePayload(payload))
	})
	if err != nil {
		return nil, s.failure(op, fmt.Sprint(req.AttendantIDs), err)
	}

	if online && len(payload.AttendantServerIDs) > 0 {
		if err := s.remote.SettleBalances(ctx, token, remoteapi.SettleRequestFrom(payload)); err != nil {
			s.remoteFailed(op, entryID, err)
			queued = s.enqueueAfterFailure(ctx, op, entryID, settlePayload(payload))
		} else {
			s.sync.TriggerBackground()
		}
	}

	s.logger.Info("%s: settled %d wallets, queued=%t", op, len(settled), queued)
	return &models.SettleResponse{Wallets: models.FromDomainWalletList(settled), Queued: queued}, nil
}

// MarkAttendantPaid отмечает выплату мойщику: баланс и долг обнуляются
func (s *Service) MarkAttendantPaid(ctx context.Context, token, attendantID string) (*models.OperationResponse, error) {
	const op = "MarkAttendantPaid"
	s.logger.Info("%s: marking attendant=%s as paid", op, attendantID)

	return s.apply(ctx, op, token, attendantID,
		func(w *domain.Wallet, at time.Time) { w.Settle(at) },
		func(serverID string, snapshot domain.WalletSnapshot) domain.QueuePayload {
			return domain.QueuePayload{
				Kind:     domain.KindWalletMarkPaid,
				MarkPaid: &domain.MarkPaidPayload{AttendantServerID: serverID, Snapshot: snapshot},
			}
		},
		func(ctx context.Context, p domain.QueuePayload) error {
			return s.remote.MarkAttendantPaid(ctx, token, p.MarkPaid.AttendantServerID, remoteapi.MarkPaidRequestFrom(p.MarkPaid))
		},
	)
}

// AdjustWalletBalance применяет ручную корректировку: tip увеличивает баланс, deduction уменьшает
func (s *Service) AdjustWalletBalance(ctx context.Context, token, attendantID string, req *models.AdjustRequest) (*models.OperationResponse, error) {
	const op = "AdjustWalletBalance"
	s.logger.Info("%s: adjusting attendant=%s type=%s amount=%s", op, attendantID, req.Type, req.Amount)

	if err := req.Validate(); err != nil {
		s.logger.Warn("%s: invalid request for attendant=%s: %v", op, attendantID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.apply(ctx, op, token, attendantID,
		func(w *domain.Wallet, at time.Time) { ledger.ApplyAdjustment(w, req.ToDomain(at), at) },
		func(serverID string, snapshot domain.WalletSnapshot) domain.QueuePayload {
			return domain.QueuePayload{
				Kind: domain.KindWalletAdjust,
				Adjust: &domain.AdjustPayload{
					AttendantServerID: serverID,
					Amount:            req.Amount,
					Type:              domain.AdjustmentType(req.Type),
					Reason:            req.Reason,
					Snapshot:          snapshot,
				},
			}
		},
		func(ctx context.Context, p domain.QueuePayload) error {
			return s.remote.AdjustWalletBalance(ctx, token, p.Adjust.AttendantServerID, remoteapi.AdjustRequestFrom(p.Adjust))
		},
	)
}

// apply выполняет операцию над одним кошельком: локально в транзакции,
// затем на сервере или через очередь. Снимок фиксирует состояние до операции.
func (s *Service) apply(
	ctx context.Context,
	op, token, attendantID string,
	mutate func(w *domain.Wallet, at time.Time),
	build func(serverID string, snapshot domain.WalletSnapshot) domain.QueuePayload,
	push func(ctx context.Context, p domain.QueuePayload) error,
) (*models.OperationResponse, error) {
	online := s.connectivity.IsOnline()

	var (
		wallet  *domain.Wallet
		payload *domain.QueuePayload
		queued  bool
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		w, err := s.find(txCtx, attendantID)
		if err != nil {
			return err
		}

		if w.AttendantServerID != nil && *w.AttendantServerID != "" {
			p := build(*w.AttendantServerID, w.Snapshot())
			payload = &p
		} else {
			s.logger.Warn("%s: attendant=%s is unknown to the server, applying locally only", op, attendantID)
		}

		mutate(w, s.now().UTC())
		if err := s.walletRepo.Upsert(txCtx, w); err != nil {
			return err
		}
		wallet = w

		if online || payload == nil {
			return nil
		}
		queued = true
		return s.enqueue(txCtx, w.LocalID, *payload)
	})
	if err != nil {
		return nil, s.failure(op, attendantID, err)
	}

	if online && payload != nil {
		if err := push(ctx, *payload); err != nil {
			s.remoteFailed(op, wallet.LocalID, err)
			queued = s.enqueueAfterFailure(ctx, op, wallet.LocalID, *payload)
		} else {
			s.sync.TriggerBackground()
		}
	}

	s.logger.Info("%s: wallet local_id=%s balance=%s queued=%t", op, wallet.LocalID, wallet.Balance, queued)
	return &models.OperationResponse{Wallet: *models.FromDomainWallet(wallet), Queued: queued}, nil
}

func (s *Service) find(ctx context.Context, attendantID string) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByAttendantID(ctx, attendantID)
	if errors.Is(err, walletRepo.ErrWalletNotFound) {
		w, err = s.walletRepo.GetByAttendantServerID(ctx, attendantID)
	}
	if errors.Is(err, walletRepo.ErrWalletNotFound) {
		return nil, ErrWalletNotFound
	}
	return w, err
}

func (s *Service) enqueue(ctx context.Context, localID string, payload domain.QueuePayload) error {
	if s.queue.Enqueue(ctx, domain.OperationUpdate, domain.EntityWallet, localID, payload) == nil {
		return ErrEnqueue
	}
	return nil
}

func (s *Service) enqueueAfterFailure(ctx context.Context, op, localID string, payload domain.QueuePayload) bool {
	if err := s.enqueue(ctx, localID, payload); err != nil {
		s.logger.Error("%s: %s for local_id=%s is lost: %v", op, payload.Kind, localID, err)
		return false
	}
	return true
}

func (s *Service) remoteFailed(op, localID string, err error) {
	if remoteapi.IsNetworkError(err) {
		s.logger.Warn("%s: server unreachable for local_id=%s, queueing: %v", op, localID, err)
		return
	}
	s.logger.Error("%s: server rejected local_id=%s, queueing: %v", op, localID, err)
}

func (s *Service) failure(op, id string, err error) error {
	if errors.Is(err, ErrWalletNotFound) {
		s.logger.Warn("%s: wallet for attendant=%s not found", op, id)
		return ErrWalletNotFound
	}
	s.logger.Error("%s: repository error for attendant=%s: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
}

func settlePayload(p *domain.SettlePayload) domain.QueuePayload {
	return domain.QueuePayload{Kind: domain.KindWalletSettle, Settle: p}
}
