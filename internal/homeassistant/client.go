// Пакет homeassistant — адаптер REST API Home Assistant:
// один вызов сервиса на заказ, любой исход нормализуется в domain.Outcome.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Gunvolt24/mcp_server/internal/domain"
	"github.com/Gunvolt24/mcp_server/internal/ports"
	"github.com/Gunvolt24/mcp_server/pkg/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// CallTimeout — фиксированный таймаут одного вызова.
	CallTimeout = 10 * time.Second
	// maxResponseSize — предел чтения тела ответа (10 МБ).
	maxResponseSize = 10 * 1024 * 1024
)

// Config — адрес и токен Home Assistant. Заполняется один раз при старте.
type Config struct {
	BaseURL string // например http://localhost:8123/api
	Token   string // long-lived access token
}

// Client — исполнитель сервисов Home Assistant. Безопасен для конкурентного использования.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        ports.Logger
}

// Option — функциональная опция клиента.
type Option func(*Client)

// WithHTTPClient — подменить http.Client (тесты, особый транспорт).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

var _ ports.HomeAssistantExecutor = (*Client)(nil)

// NewClient — клиент с таймаутом CallTimeout и otelhttp-транспортом (спаны + traceparent).
func NewClient(cfg Config, log ports.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{
			Timeout:   CallTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured — заданы ли адрес и токен.
func (c *Client) Configured() bool { return c.baseURL != "" && c.token != "" }

// Execute — вызывает POST {base}/services/{domain}/{intent} с телом {"entity_id": target}.
// orderCtx в Home Assistant не передаётся. Повторов нет.
func (c *Client) Execute(ctx context.Context, intent, target string, _ map[string]any) domain.Outcome {
	if !c.Configured() {
		return domain.ConfigErrorOutcome(domain.ErrMissingCredentials)
	}

	entityDomain, _, err := domain.SplitTarget(target)
	if err != nil {
		return domain.MalformedTargetOutcome(err)
	}

	start := time.Now()
	outcome := c.call(ctx, entityDomain, intent, target)
	metrics.HomeAssistantRequestDuration.
		WithLabelValues(entityDomain, outcome.Label()).
		Observe(time.Since(start).Seconds())

	if !outcome.OK() {
		c.log.Warnf(ctx, "home assistant %s.%s for %s failed: code=%s msg=%s",
			entityDomain, intent, target, outcome.ErrorCode(), outcome.Message())
	}
	return outcome
}

func (c *Client) call(ctx context.Context, entityDomain, intent, target string) domain.Outcome {
	endpoint := c.baseURL + "/services/" + url.PathEscape(entityDomain) + "/" + url.PathEscape(intent)

	body, err := json.Marshal(map[string]string{"entity_id": target})
	if err != nil {
		return domain.TransportErrorOutcome(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.TransportErrorOutcome(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.TransportErrorOutcome(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return domain.TransportErrorOutcome(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.HTTPErrorOutcome(resp.StatusCode, string(respBody))
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return domain.SuccessOutcome(nil)
	}
	var data any
	if err := json.Unmarshal(respBody, &data); err != nil {
		return domain.TransportErrorOutcome(fmt.Errorf("decode response: %w", err))
	}
	return domain.SuccessOutcome(data)
}
