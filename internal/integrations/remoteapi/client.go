package remoteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 4 << 10

// Client клиент бизнес-сервера
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
	observer   CallObserver
}

// NewClient создает новый экземпляр клиента. observer может быть nil.
func NewClient(baseURL string, timeout time.Duration, log Logger, observer CallObserver) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log:      log,
		observer: observer,
	}
}

// Request выполняет запрос и возвращает конверт ответа.
// Транспортные ошибки оборачиваются в ErrNetwork, конверт со статусом error в ErrServer
// (в этом случае конверт тоже возвращается).
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) (*Envelope, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.baseURL + endpoint
	if len(opts.Params) > 0 {
		q := url.Values{}
		for k, v := range opts.Params {
			q.Set(k, v)
		}
		target += "?" + q.Encode()
	}

	var body io.Reader
	if opts.Data != nil {
		raw, err := json.Marshal(opts.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal request body: %v", ErrInternal, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, endpoint, "network_error", start)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, endpoint, err)
	}
	defer resp.Body.Close()
	c.observe(method, endpoint, strconv.Itoa(resp.StatusCode), start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: read body: %v", ErrNetwork, method, endpoint, err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Status == "" {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: %s %s: status %d", ErrServer, method, endpoint, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s %s: status %d: %s", ErrInvalidResponse, method, endpoint, resp.StatusCode, truncate(raw))
	}

	if !env.IsSuccess() {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &env, fmt.Errorf("%w: %s", ErrServer, msg)
	}

	return &env, nil
}

// do выполняет запрос и декодирует data в out (out может быть nil)
func (c *Client) do(ctx context.Context, endpoint string, opts RequestOptions, out interface{}) error {
	env, err := c.Request(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %s: failed to decode data: %v", ErrInvalidResponse, endpoint, err)
	}
	return nil
}

func (c *Client) observe(method, endpoint, status string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveRemoteCall(method+" "+routeOf(endpoint), status, time.Since(start))
}

// IsNetworkError returns true if the error means the server was unreachable
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// routeOf заменяет идентификаторы в пути на плейсхолдер, чтобы не раздувать метки метрик
func routeOf(endpoint string) string {
	parts := strings.Split(endpoint, "/")
	for i, p := range parts {
		if i > 0 && parts[i-1] != "" && looksLikeID(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func looksLikeID(segment string) bool {
	switch segment {
	case "", "vehicle", "carpet", "settle", "mark-paid", "adjust":
		return false
	}
	return true
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
