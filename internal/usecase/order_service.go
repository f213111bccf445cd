package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Gunvolt24/mcp_server/internal/domain"
	"github.com/Gunvolt24/mcp_server/internal/ports"
	"github.com/Gunvolt24/mcp_server/pkg/metrics"
	"github.com/Gunvolt24/mcp_server/pkg/telemetry"
	"github.com/Gunvolt24/mcp_server/pkg/validate"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// OrderService — конвейер обработки заказа (без знаний о транспорте):
// структурная проверка → JSON Schema → вызов Home Assistant → конверт результата.
// Состояния между запросами не хранит.
type OrderService struct {
	schema  ports.SchemaValidator       // строгая проверка по JSON Schema
	backend ports.HomeAssistantExecutor // исполнитель действия
	log     ports.Logger                // прямой доступ к логгеру
	now     func() time.Time            // часы (подменяются в тестах)
	newID   func() string               // генератор request_id
}

// Option — функциональная опция сервиса.
type Option func(*OrderService)

// WithClock — источник времени для timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

// WithIDGenerator — генератор request_id.
func WithIDGenerator(gen func() string) Option {
	return func(s *OrderService) { s.newID = gen }
}

var _ ports.OrderSubmitter = (*OrderService)(nil)

// NewOrderService — DI-конструктор.
func NewOrderService(
	schema ports.SchemaValidator,
	backend ports.HomeAssistantExecutor,
	log ports.Logger,
	opts ...Option,
) *OrderService {
	s := &OrderService{
		schema:  schema,
		backend: backend,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitJSON — разобрать сырой JSON и прогнать через конвейер.
// Тело, не являющееся JSON-объектом, считается структурной ошибкой (422).
func (s *OrderService) SubmitJSON(ctx context.Context, raw []byte) domain.Reply {
	payload, err := validate.DecodePayload(raw)
	if err != nil {
		s.log.Warnf(ctx, "order rejected: %v", err)
		return s.finish(ctx, domain.Reply{
			StatusCode: http.StatusUnprocessableEntity,
			Result:     domain.NewValidationErrorResult(domain.CodeShapeError, err.Error()),
		})
	}
	return s.Submit(ctx, payload)
}

// Submit — обработать один заказ. Ошибок не возвращает: любой исход — это Reply.
// Шаги:
//  1. структурная проверка (обязательные поля, типы) → 422 pydantic_error;
//  2. JSON Schema (intent из списка, формат target и т.д.) → 422 jsonschema_error;
//  3. вызов Home Assistant → 502 с кодом адаптера;
//  4. успех → 200, свежие request_id и timestamp.
func (s *OrderService) Submit(ctx context.Context, payload map[string]any) domain.Reply {
	ctx, span := telemetry.Tracer().Start(ctx, "OrderService.Submit")
	defer span.End()

	order, err := domain.ParseOrder(payload)
	if err != nil {
		s.log.Warnf(ctx, "order shape check failed: %v", err)
		span.SetStatus(codes.Error, "shape check failed")
		return s.finish(ctx, domain.Reply{
			StatusCode: http.StatusUnprocessableEntity,
			Result:     domain.NewValidationErrorResult(domain.CodeShapeError, err.Error()),
		})
	}
	span.SetAttributes(
		attribute.String("mcp.intent", order.Intent),
		attribute.String("mcp.target", order.Target),
	)

	if err := s.schema.Validate(ctx, payload); err != nil {
		var schemaErr *domain.SchemaViolationError
		if !errors.As(err, &schemaErr) {
			// сбой самого валидатора, а не нарушение схемы
			s.log.Errorf(ctx, "schema validator failed: %v", err)
		} else {
			s.log.Warnf(ctx, "order schema check failed intent=%s target=%s: %v", order.Intent, order.Target, err)
		}
		span.SetStatus(codes.Error, "schema check failed")
		return s.finish(ctx, domain.Reply{
			StatusCode: http.StatusUnprocessableEntity,
			Result:     domain.NewValidationErrorResult(domain.CodeSchemaError, err.Error()),
		})
	}

	outcome := s.backend.Execute(ctx, order.Intent, order.Target, order.ContextMap())
	if !outcome.OK() {
		span.SetStatus(codes.Error, outcome.ErrorCode())
		return s.finish(ctx, domain.Reply{
			StatusCode: http.StatusBadGateway,
			Result:     domain.NewBackendErrorResult(order, outcome.ErrorCode(), outcome.Message()),
		})
	}

	result := domain.NewSuccessResult(order, s.newID(), s.now())
	s.log.Infof(ctx, "order executed user=%s intent=%s target=%s request_id=%s",
		order.User, order.Intent, order.Target, result.RequestID)
	return s.finish(ctx, domain.Reply{StatusCode: http.StatusOK, Result: result})
}

// finish — учёт исхода в метриках.
func (s *OrderService) finish(_ context.Context, reply domain.Reply) domain.Reply {
	metrics.OrdersTotal.WithLabelValues(reply.Result.Status, reply.Result.ErrorCode).Inc()
	return reply
}
