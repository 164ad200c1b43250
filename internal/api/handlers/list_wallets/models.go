package list_wallets

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-WashSync/internal/domain"
	"github.com/m04kA/SMC-WashSync/internal/service/wallets/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(q url.Values) (*models.ListWalletsRequest, error) {
	req := &models.ListWalletsRequest{}

	if v := q.Get("date"); v != "" {
		date, err := time.Parse(domain.DateFormat, v)
		if err != nil {
			return nil, fmt.Errorf("invalid date value: %w", err)
		}
		req.Date = &date
	}

	if v := q.Get("unpaidOnly"); v != "" {
		unpaidOnly, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid unpaidOnly value: %w", err)
		}
		req.UnpaidOnly = unpaidOnly
	}

	return req, nil
}
