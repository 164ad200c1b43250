package list_bookings

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/internal/service/bookings/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(q url.Values) (*models.ListBookingsRequest, error) {
	req := &models.ListBookingsRequest{}

	for key, dst := range map[string]**string{
		"status":      &req.Status,
		"category":    &req.Category,
		"attendantId": &req.AttendantID,
		"syncStatus":  &req.SyncStatus,
	} {
		if v := q.Get(key); v != "" {
			*dst = &v
		}
	}

	for key, dst := range map[string]**time.Time{
		"date": &req.Date,
		"from": &req.From,
		"to":   &req.To,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := parseTime(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", key, err)
		}
		*dst = &t
	}

	for key, dst := range map[string]*uint64{
		"offset": &req.Offset,
		"limit":  &req.Limit,
	} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", key, err)
		}
		*dst = n
	}

	return req, nil
}

// parseTime принимает дату YYYY-MM-DD или метку RFC3339
func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(domain.DateFormat, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
