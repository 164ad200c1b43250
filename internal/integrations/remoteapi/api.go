package remoteapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Эндпоинты бизнес-сервера
const (
	EndpointBookings        = "/bookings"
	EndpointVehicleBookings = "/bookings/vehicle"
	EndpointCarpetBookings  = "/bookings/carpet"
	EndpointWallets         = "/wallets"
	EndpointSettle          = "/wallets/settle"
	EndpointUsers           = "/users"
)

const dateFormat = "2006-01-02"

// sortNewestFirst порядок выборки бронирований: сначала новые
const sortNewestFirst = "-createdAt"

func bookingPath(serverID string) string {
	return EndpointBookings + "/" + url.PathEscape(serverID)
}

func walletPath(attendantServerID, action string) string {
	return EndpointWallets + "/" + url.PathEscape(attendantServerID) + "/" + action
}

// ListBookings получает последние бронирования, новые первыми (limit > 0 ограничивает выборку)
func (c *Client) ListBookings(ctx context.Context, token string, limit int) ([]Booking, error) {
	params := map[string]string{"sort": sortNewestFirst}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	var out []Booking
	err := c.do(ctx, EndpointBookings, RequestOptions{Method: http.MethodGet, Params: params, Token: token}, &out)
	return out, err
}

// CreateVehicleBooking создаёт бронирование мойки автомобиля
func (c *Client) CreateVehicleBooking(ctx context.Context, token string, req BookingRequest) (*Booking, error) {
	var out Booking
	if err := c.do(ctx, EndpointVehicleBookings, RequestOptions{Method: http.MethodPost, Data: req, Token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCarpetBooking создаёт бронирование чистки ковра
func (c *Client) CreateCarpetBooking(ctx context.Context, token string, req BookingRequest) (*Booking, error) {
	var out Booking
	if err := c.do(ctx, EndpointCarpetBookings, RequestOptions{Method: http.MethodPost, Data: req, Token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBooking обновляет бронирование по серверному ID
func (c *Client) UpdateBooking(ctx context.Context, token, serverID string, req BookingRequest) (*Booking, error) {
	var out Booking
	if err := c.do(ctx, bookingPath(serverID), RequestOptions{Method: http.MethodPut, Data: req, Token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBooking удаляет бронирование по серверному ID
func (c *Client) DeleteBooking(ctx context.Context, token, serverID string) error {
	return c.do(ctx, bookingPath(serverID), RequestOptions{Method: http.MethodDelete, Token: token}, nil)
}

// ListWallets получает кошельки мойщиков. date == nil означает текущее состояние.
func (c *Client) ListWallets(ctx context.Context, token string, date *time.Time) ([]Wallet, error) {
	var params map[string]string
	if date != nil {
		params = map[string]string{"date": date.Format(dateFormat)}
	}
	var out []Wallet
	err := c.do(ctx, EndpointWallets, RequestOptions{Method: http.MethodGet, Params: params, Token: token}, &out)
	return out, err
}

// SettleBalances закрывает балансы перечисленных мойщиков
func (c *Client) SettleBalances(ctx context.Context, token string, req SettleRequest) error {
	return c.do(ctx, EndpointSettle, RequestOptions{Method: http.MethodPost, Data: req, Token: token}, nil)
}

// MarkAttendantPaid отмечает выплату мойщику
func (c *Client) MarkAttendantPaid(ctx context.Context, token, attendantServerID string, req MarkPaidRequest) error {
	return c.do(ctx, walletPath(attendantServerID, "mark-paid"), RequestOptions{Method: http.MethodPost, Data: req, Token: token}, nil)
}

// AdjustWalletBalance применяет ручную корректировку баланса мойщика
func (c *Client) AdjustWalletBalance(ctx context.Context, token, attendantServerID string, req AdjustRequest) error {
	return c.do(ctx, walletPath(attendantServerID, "adjust"), RequestOptions{Method: http.MethodPost, Data: req, Token: token}, nil)
}

// ListUsers получает пользователей с указанной ролью
func (c *Client) ListUsers(ctx context.Context, token, role string) ([]User, error) {
	var params map[string]string
	if role != "" {
		params = map[string]string{"role": role}
	}
	var out []User
	err := c.do(ctx, EndpointUsers, RequestOptions{Method: http.MethodGet, Params: params, Token: token}, &out)
	return out, err
}

// Ping проверяет доступность сервера: любой HTTP-ответ означает, что сеть есть
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+EndpointUsers, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
