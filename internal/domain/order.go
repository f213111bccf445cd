package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultVersion — версия схемы заказа, если клиент её не прислал.
const DefaultVersion = "1.0.0"

// Context — контекст заказа. Бэкенду не передаётся.
type Context struct {
	Location string         `json:"location,omitempty"`
	Time     string         `json:"time,omitempty"` // ISO 8601
	Area     string         `json:"area,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Order — заказ на действие над сущностью умного дома.
type Order struct {
	User    string   `json:"user" validate:"min=1"`
	Intent  string   `json:"intent"`
	Target  string   `json:"target"`
	Context *Context `json:"context,omitempty"`
	Version string   `json:"version,omitempty"`
}

// VersionOrDefault — версия заказа или DefaultVersion.
func (o *Order) VersionOrDefault() string {
	if o.Version == "" {
		return DefaultVersion
	}
	return o.Version
}

// ContextMap — контекст в виде map (пустая map, если контекста нет).
func (o *Order) ContextMap() map[string]any {
	out := make(map[string]any, 4)
	if o.Context == nil {
		return out
	}
	if o.Context.Location != "" {
		out["location"] = o.Context.Location
	}
	if o.Context.Time != "" {
		out["time"] = o.Context.Time
	}
	if o.Context.Area != "" {
		out["area"] = o.Context.Area
	}
	if o.Context.Extra != nil {
		out["extra"] = o.Context.Extra
	}
	return out
}

// orderValidate — общий валидатор; после инициализации только читается.
var orderValidate = newOrderValidate()

func newOrderValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В сообщениях используем имена из json-тегов.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseOrder — быстрая структурная проверка нетипизированного payload.
// Собирает все нарушения и возвращает *TypeShapeError, если они есть.
// Проверяются только наличие полей и их типы (плюс непустой user):
// пустые intent/target проходят дальше, их отклонит JSON Schema.
func ParseOrder(payload map[string]any) (*Order, error) {
	if payload == nil {
		return nil, &TypeShapeError{Violations: []Violation{{Path: "", Message: "object expected"}}}
	}

	var (
		sc    shapeCollector
		order Order
	)
	order.User = sc.required(payload, "user")
	order.Intent = sc.required(payload, "intent")
	order.Target = sc.required(payload, "target")
	order.Context = sc.context(payload)
	order.Version = sc.str(payload, "version", "version")

	if err := orderValidate.Struct(&order); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		for _, fe := range fieldErrs {
			sc.addIfClean(fe.Field(), validationMessage(fe))
		}
	}

	if len(sc.violations) > 0 {
		return nil, &TypeShapeError{Violations: sc.violations}
	}
	return &order, nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		return "must not be empty"
	default:
		return "invalid value (" + fe.Tag() + ")"
	}
}

// shapeCollector — накопитель нарушений типов.
type shapeCollector struct {
	violations []Violation
	dirty      map[string]struct{}
}

func (sc *shapeCollector) add(path, msg string) {
	if sc.dirty == nil {
		sc.dirty = make(map[string]struct{})
	}
	sc.dirty[path] = struct{}{}
	sc.violations = append(sc.violations, Violation{Path: path, Message: msg})
}

// addIfClean — не дублируем ошибку validator для поля, у которого уже есть нарушение.
func (sc *shapeCollector) addIfClean(path, msg string) {
	if _, ok := sc.dirty[path]; ok {
		return
	}
	sc.add(path, msg)
}

// required — обязательное строковое поле: отсутствие и null дают "field required".
func (sc *shapeCollector) required(m map[string]any, key string) string {
	if raw, ok := m[key]; !ok || raw == nil {
		sc.add(key, "field required")
		return ""
	}
	return sc.str(m, key, key)
}

// str — необязательное строковое поле: отсутствие и null допустимы.
func (sc *shapeCollector) str(m map[string]any, key, path string) string {
	raw, ok := m[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		sc.add(path, "str type expected")
		return ""
	}
	return s
}

func (sc *shapeCollector) context(m map[string]any) *Context {
	raw, ok := m["context"]
	if !ok || raw == nil {
		return nil
	}
	cm, ok := raw.(map[string]any)
	if !ok {
		sc.add("context", "object expected")
		return nil
	}

	ctx := &Context{
		Location: sc.str(cm, "location", "context.location"),
		Time:     sc.str(cm, "time", "context.time"),
		Area:     sc.str(cm, "area", "context.area"),
	}
	if extra, ok := cm["extra"]; ok && extra != nil {
		em, ok := extra.(map[string]any)
		if !ok {
			sc.add("context.extra", "object expected")
		} else {
			ctx.Extra = em
		}
	}
	return ctx
}
