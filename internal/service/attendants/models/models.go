package models

import (
	"time"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/pkg/ptr"
	"github.com/m04kA/SMC-WashSync/pkg/validate"
)

// ListAttendantsRequest фильтр списка сотрудников
type ListAttendantsRequest struct {
	Role          *string `json:"role,omitempty" validate:"omitempty,oneof=attendant admin"`
	AvailableOnly bool    `json:"availableOnly,omitempty"`
}

// Validate проверяет запрос по тегам
func (r *ListAttendantsRequest) Validate() error {
	return validate.Struct(r)
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListAttendantsRequest) ToDomainFilter() domain.AttendantsFilter {
	filter := domain.AttendantsFilter{AvailableOnly: r.AvailableOnly}
	if r.Role != nil {
		filter.Role = ptr.Ptr(domain.Role(*r.Role))
	}
	return filter
}

// SetAvailabilityRequest переключение доступности мойщика
type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// Validate проверяет запрос по тегам
func (r *SetAvailabilityRequest) Validate() error {
	return validate.Struct(r)
}

// AttendantResponse ответ с данными сотрудника
type AttendantResponse struct {
	LocalID     string    `json:"localId"`
	ServerID    *string   `json:"serverId,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Photo       *string   `json:"photo,omitempty"`
	IsAvailable bool      `json:"isAvailable"`
	UpdatedAt   time.Time `json:"updatedAt"`
	SyncStatus  string    `json:"syncStatus"`
}

// AttendantListResponse ответ со списком сотрудников
type AttendantListResponse struct {
	Attendants []AttendantResponse `json:"attendants"`
}

// FromDomainAttendant конвертирует domain модель в DTO
func FromDomainAttendant(a *domain.Attendant) *AttendantResponse {
	if a == nil {
		return nil
	}
	return &AttendantResponse{
		LocalID:     a.LocalID,
		ServerID:    a.ServerID,
		Name:        a.Name,
		Email:       a.Email,
		Role:        string(a.Role),
		Photo:       a.Photo,
		IsAvailable: a.IsAvailable,
		UpdatedAt:   a.UpdatedAt,
		SyncStatus:  string(a.SyncStatus),
	}
}

// FromDomainAttendantList конвертирует список domain моделей в DTO
func FromDomainAttendantList(attendants []*domain.Attendant) *AttendantListResponse {
	resp := &AttendantListResponse{Attendants: make([]AttendantResponse, 0, len(attendants))}
	for _, a := range attendants {
		if r := FromDomainAttendant(a); r != nil {
			resp.Attendants = append(resp.Attendants, *r)
		}
	}
	return resp
}
