package domain

import "time"

// Role роль сотрудника
type Role string

const (
	RoleAttendant Role = "attendant"
	RoleAdmin     Role = "admin"
)

// Attendant staff member who fulfils bookings
type Attendant struct {
	LocalID  string
	ServerID *string // устойчивая идентичность между устройствами

	Name  string
	Email string
	Role  Role
	Photo *string

	// IsAvailable хранится только на устройстве и на сервер не отправляется
	IsAvailable bool

	CreatedAt time.Time
	UpdatedAt time.Time

	IsSynced   bool
	SyncStatus SyncStatus
}

// HasServerID returns true if the attendant came from the server
func (a *Attendant) HasServerID() bool {
	return a.ServerID != nil && *a.ServerID != ""
}

// AttendantsFilter фильтр для выборки сотрудников
type AttendantsFilter struct {
	Role          *Role
	AvailableOnly bool
}
