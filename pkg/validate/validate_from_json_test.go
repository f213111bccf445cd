package validate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gunvolt24/mcp_server/internal/domain"
)

func newTestSchema(t *testing.T) *SchemaValidator {
	t.Helper()
	v, err := NewSchemaValidator()
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return v
}

func TestValidateOrderFromJSON_OK(t *testing.T) {
	ctx := context.Background()
	schema := newTestSchema(t)

	order, err := ValidateOrderFromJSON(ctx, schema, []byte(orderJSON("lucas", "turn_off", "light.king_s_bedroom")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Target != "light.king_s_bedroom" || order.Intent != "turn_off" {
		t.Fatalf("unexpected order: %+v", order)
	}
}

func TestValidateOrderFromJSON_InvalidJSON(t *testing.T) {
	ctx := context.Background()
	schema := newTestSchema(t)

	for _, raw := range []string{`{`, `[]`, `"str"`, `null`, ``} {
		_, err := ValidateOrderFromJSON(ctx, schema, []byte(raw))
		if !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("%q: expected invalid json error, got: %v", raw, err)
		}
	}
}

func TestValidateOrderFromJSON_TrailingData(t *testing.T) {
	ctx := context.Background()
	schema := newTestSchema(t)

	raw := orderJSON("lucas", "turn_off", "light.x") + "{}"
	_, err := ValidateOrderFromJSON(ctx, schema, []byte(raw))
	if err == nil || !strings.Contains(err.Error(), "trailing data") {
		t.Fatalf("expected trailing data error, got: %v", err)
	}
}

func TestValidateOrderFromJSON_ShapeBeforeSchema(t *testing.T) {
	ctx := context.Background()
	schema := newTestSchema(t)

	// intent не строка и не из списка: должна сработать структурная проверка
	raw := `{"user":"lucas","intent":5,"target":"light.x"}`
	_, err := ValidateOrderFromJSON(ctx, schema, []byte(raw))
	var shapeErr *domain.TypeShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected TypeShapeError, got: %v", err)
	}
}

func TestValidateOrderFromJSON_SchemaError(t *testing.T) {
	ctx := context.Background()
	schema := newTestSchema(t)

	_, err := ValidateOrderFromJSON(ctx, schema, []byte(orderJSON("lucas", "explode", "light.x")))
	var schemaErr *domain.SchemaViolationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaViolationError, got: %v", err)
	}
}

func TestDecodePayload_UseNumber(t *testing.T) {
	p, err := DecodePayload([]byte(`{"n": 12345678901234567890}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p["n"]; got == nil {
		t.Fatalf("number lost")
	}
	if s, ok := p["n"].(interface{ String() string }); !ok || s.String() != "12345678901234567890" {
		t.Fatalf("expected json.Number, got %T", p["n"])
	}
}

// ---- helpers ----

func orderJSON(user, intent, target string) string {
	return `{
  "user": "` + user + `",
  "intent": "` + intent + `",
  "target": "` + target + `",
  "context": {"area": "King's Bedroom", "location": "home", "time": "2025-07-22T21:45:00"},
  "version": "1.0.0"
}`
}
