package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Gunvolt24/mcp_server/internal/domain"
	"github.com/Gunvolt24/mcp_server/internal/ports"
	"github.com/Gunvolt24/mcp_server/pkg/httpx"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Пределы размера тела POST /mcp/order.
const (
	minBodyBytes int64 = 1 << 10
	maxBodyBytes int64 = 10 << 20
)

type Handler struct {
	service      ports.OrderSubmitter
	log          ports.Logger
	reqTimeout   time.Duration
	maxBodyBytes int64
}

// HandlerOption — функциональная опция хендлера.
type HandlerOption func(*Handler)

// WithMaxBodyBytes — предел тела запроса (0 → 1 МБ, границы [1 КБ; 10 МБ]).
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) { h.maxBodyBytes = httpx.ClampBodyLimit(n, minBodyBytes, maxBodyBytes) }
}

// NewHandler — reqTimeout ограничивает обработку заказа целиком (0 — без ограничения).
func NewHandler(service ports.OrderSubmitter, log ports.Logger, reqTimeout time.Duration, opts ...HandlerOption) *Handler {
	h := &Handler{
		service:      service,
		log:          log,
		reqTimeout:   reqTimeout,
		maxBodyBytes: httpx.DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter — gin-роутер; otelServiceName == "" отключает otelgin.
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", h.health)

	r.POST("/mcp/order", httpx.MaxBodyBytes(h.maxBodyBytes), h.postOrder)

	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// postOrder — тело запроса передаётся в конвейер как есть; ответ — конверт Result.
func (h *Handler) postOrder(c *gin.Context) {
	ctx := c.Request.Context()
	if h.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.reqTimeout)
		defer cancel()
	}

	raw, err := c.GetRawData()
	if err != nil {
		msg := "cannot read request body"
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			msg = "request body too large"
		}
		h.log.Warnf(ctx, "read order body failed: %v", err)
		c.JSON(http.StatusUnprocessableEntity, domain.NewValidationErrorResult(domain.CodeShapeError, msg))
		return
	}

	reply := h.service.SubmitJSON(ctx, raw)
	c.JSON(reply.StatusCode, reply.Result)
}
