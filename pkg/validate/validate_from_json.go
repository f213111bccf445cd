package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Gunvolt24/mcp_server/internal/domain"
	"github.com/Gunvolt24/mcp_server/internal/ports"
)

// ErrInvalidJSON — тело не является одним JSON-объектом.
var ErrInvalidJSON = errors.New("invalid json")

// DecodePayload — разбирает ровно один JSON-объект (числа как json.Number).
func DecodePayload(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: object expected", ErrInvalidJSON)
	}
	// гарантируем отсутствие данных после объекта
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}
	return payload, nil
}

// ValidateOrderFromJSON — валидация заказа из JSON: структура, затем JSON Schema.
func ValidateOrderFromJSON(ctx context.Context, schema ports.SchemaValidator, raw []byte) (*domain.Order, error) {
	payload, err := DecodePayload(raw)
	if err != nil {
		return nil, err
	}
	return ValidateOrder(ctx, schema, payload)
}

// ValidateOrder — обе стадии валидации над уже разобранным payload.
func ValidateOrder(ctx context.Context, schema ports.SchemaValidator, payload map[string]any) (*domain.Order, error) {
	order, err := domain.ParseOrder(payload)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(ctx, payload); err != nil {
		return nil, err
	}
	return order, nil
}
