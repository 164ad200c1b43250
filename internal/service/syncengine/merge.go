package syncengine

import (
	"github.com/m04kA/SMC-WashSync/internal/domain"
)

// MergeBooking разрешает расхождение локального и серверного бронирования.
//
// Локальные несинхронизированные изменения и изменения, ожидающие в очереди, выигрывают:
// у такой записи может появиться только серверный ID. В остальных случаях выигрывает
// более новый UpdatedAt, при равенстве или отсутствии серверного времени сервер.
// changed=false означает, что локальную запись перезаписывать не нужно.
func MergeBooking(local, server *domain.Booking, localUnsynced, pendingOps bool) (*domain.Booking, bool) {
	if local == nil {
		return server, true
	}

	if localUnsynced || pendingOps {
		if local.HasServerID() || !server.HasServerID() {
			return local, false
		}
		resolved := *local
		resolved.ServerID = server.ServerID
		return &resolved, true
	}

	if !server.UpdatedAt.IsZero() && local.UpdatedAt.After(server.UpdatedAt) {
		return local, false
	}

	resolved := *server
	resolved.LocalID = local.LocalID
	if resolved.AttendantID == "" && sameAttendant(local.AttendantServerID, server.AttendantServerID) {
		resolved.AttendantID = local.AttendantID
	}
	if local.HasServerID() {
		resolved.ServerID = local.ServerID
	}
	if resolved.UpdatedAt.IsZero() {
		resolved.UpdatedAt = local.UpdatedAt
	}
	resolved.Deleted = false
	resolved.MarkSynced()
	return &resolved, true
}

// MergeWallet разрешает расхождение локального и серверного кошелька.
//
// Если кошелёк изменён локально или в очереди есть финансовая операция для него,
// финансовые поля и корректировки не трогаются: может появиться только серверный ID.
// Иначе выигрывает более новый UpdatedAt, при равенстве сервер.
func MergeWallet(local, server *domain.Wallet, localUnsynced, pendingOps bool) (*domain.Wallet, bool) {
	if local == nil {
		return server, true
	}

	if localUnsynced || pendingOps {
		if local.HasServerID() || !server.HasServerID() {
			return local, false
		}
		resolved := *local
		resolved.ServerID = server.ServerID
		return &resolved, true
	}

	if !server.UpdatedAt.IsZero() && local.UpdatedAt.After(server.UpdatedAt) {
		return local, false
	}

	resolved := *server
	resolved.LocalID = local.LocalID
	if resolved.AttendantID == "" {
		resolved.AttendantID = local.AttendantID
	}
	if resolved.AttendantServerID == nil {
		resolved.AttendantServerID = local.AttendantServerID
	}
	if local.HasServerID() {
		resolved.ServerID = local.ServerID
	}
	resolved.CreatedAt = local.CreatedAt
	if resolved.UpdatedAt.IsZero() {
		resolved.UpdatedAt = local.UpdatedAt
	}
	resolved.MarkSynced()
	return &resolved, true
}

func sameAttendant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
