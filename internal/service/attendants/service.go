// Package attendants фасад сотрудников. Список приходит с сервера при синхронизации,
// доступность мойщика хранится только на устройстве.
package attendants

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	attendantRepo "github.com/m04kA/SMC-WashSync/internal/infra/storage/attendant"
	"github.com/m04kA/SMC-WashSync/internal/service/attendants/models"
)

// Service сервис для работы с сотрудниками
type Service struct {
	attendantRepo AttendantRepository
	connectivity  Connectivity
	sync          SyncTrigger
	logger        Logger
}

// NewService создает новый экземпляр сервиса сотрудников
func NewService(attendantRepo AttendantRepository, connectivity Connectivity, sync SyncTrigger, logger Logger) *Service {
	return &Service{
		attendantRepo: attendantRepo,
		connectivity:  connectivity,
		sync:          sync,
		logger:        logger,
	}
}

// List возвращает сотрудников из локального хранилища
func (s *Service) List(ctx context.Context, req *models.ListAttendantsRequest) (*models.AttendantListResponse, error) {
	if err := req.Validate(); err != nil {
		s.logger.Warn("List: invalid request: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	attendants, err := s.attendantRepo.List(ctx, req.ToDomainFilter())
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	if s.connectivity.IsOnline() {
		s.sync.TriggerBackground()
	}

	s.logger.Info("List: fetched %d attendants", len(attendants))
	return models.FromDomainAttendantList(attendants), nil
}

// Get получает сотрудника по локальному или серверному ID
func (s *Service) Get(ctx context.Context, id string) (*models.AttendantResponse, error) {
	a, err := s.find(ctx, "Get", id)
	if err != nil {
		return nil, err
	}
	return models.FromDomainAttendant(a), nil
}

// SetAvailability меняет доступность мойщика. Изменение на сервер не отправляется.
func (s *Service) SetAvailability(ctx context.Context, id string, req *models.SetAvailabilityRequest) (*models.AttendantResponse, error) {
	if err := req.Validate(); err != nil {
		s.logger.Warn("SetAvailability: invalid request for attendant id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	a, err := s.find(ctx, "SetAvailability", id)
	if err != nil {
		return nil, err
	}

	if err := s.attendantRepo.SetAvailability(ctx, a.LocalID, *req.Available); err != nil {
		if errors.Is(err, attendantRepo.ErrAttendantNotFound) {
			return nil, ErrAttendantNotFound
		}
		s.logger.Error("SetAvailability: repository error for attendant id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: SetAvailability - repository error: %v", ErrInternal, err)
	}
	a.IsAvailable = *req.Available

	s.logger.Info("SetAvailability: attendant local_id=%s available=%t", a.LocalID, a.IsAvailable)
	return models.FromDomainAttendant(a), nil
}

func (s *Service) find(ctx context.Context, op, id string) (*domain.Attendant, error) {
	a, err := s.attendantRepo.GetByLocalID(ctx, id)
	if errors.Is(err, attendantRepo.ErrAttendantNotFound) {
		a, err = s.attendantRepo.GetByServerID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, attendantRepo.ErrAttendantNotFound) {
			s.logger.Warn("%s: attendant id=%s not found", op, id)
			return nil, ErrAttendantNotFound
		}
		s.logger.Error("%s: repository error for attendant id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return a, nil
}
