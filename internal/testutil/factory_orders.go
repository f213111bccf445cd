package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func UniqSuffix() string { return randHex(6) }

// OrderOption — модификатор payload заказа.
type OrderOption func(map[string]any)

func WithUser(user string) OrderOption {
	return func(p map[string]any) { p["user"] = user }
}

func WithIntent(intent string) OrderOption {
	return func(p map[string]any) { p["intent"] = intent }
}

func WithTarget(target string) OrderOption {
	return func(p map[string]any) { p["target"] = target }
}

// WithContext — контекст заказа целиком (nil → "context": null).
func WithContext(ctx map[string]any) OrderOption {
	return func(p map[string]any) { p["context"] = ctx }
}

// Without — убрать поле (для проверок "field required").
func Without(field string) OrderOption {
	return func(p map[string]any) { delete(p, field) }
}

// Мини-генератор валидного заказа
func MakeOrderPayload(opts ...OrderOption) map[string]any {
	p := map[string]any{
		"user":   "user-" + UniqSuffix(),
		"intent": "turn_off",
		"target": "light.king_s_bedroom",
		"context": map[string]any{
			"location": "home",
			"area":     "King's Bedroom",
			"time":     "2025-07-22T21:45:00",
		},
		"version": "1.0.0",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MakeOrderJSON — то же, сразу в JSON.
func MakeOrderJSON(opts ...OrderOption) []byte {
	raw, err := json.Marshal(MakeOrderPayload(opts...))
	if err != nil {
		panic(err)
	}
	return raw
}
