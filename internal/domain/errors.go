package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOrder — базовая (sentinel error) ошибка валидации заказа.
// Оборачивается TypeShapeError и SchemaViolationError.
var ErrInvalidOrder = errors.New("order validation failed")

// Violation — одно нарушение: путь до поля (через точку) и описание.
type Violation struct {
	Path    string
	Message string
}

// rootPath — как выводится нарушение на уровне всего документа.
const rootPath = "(root)"

func (v Violation) String() string {
	path := v.Path
	if path == "" {
		path = rootPath
	}
	return path + ": " + v.Message
}

func joinViolations(vs []Violation) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

// TypeShapeError — payload не прошёл быструю структурную проверку
// (нет обязательного поля или неверный примитивный тип).
type TypeShapeError struct {
	Violations []Violation
}

func (e *TypeShapeError) Error() string {
	return "order shape validation failed: " + joinViolations(e.Violations)
}

func (e *TypeShapeError) Unwrap() error { return ErrInvalidOrder }

// SchemaViolationError — payload корректен по типам, но нарушает правила JSON Schema.
// Error() возвращает нарушения в виде "<path>: <описание>", склеенные через "; ".
type SchemaViolationError struct {
	Violations []Violation
}

func (e *SchemaViolationError) Error() string { return joinViolations(e.Violations) }

func (e *SchemaViolationError) Unwrap() error { return ErrInvalidOrder }

// MalformedTargetError — target не делится на "<domain>.<entity>".
type MalformedTargetError struct {
	Target string
}

func (e *MalformedTargetError) Error() string {
	return fmt.Sprintf("malformed target %q: expected <domain>.<entity>", e.Target)
}

// SplitTarget — делит target по первой точке на домен и сущность.
func SplitTarget(target string) (entityDomain, entity string, err error) {
	entityDomain, entity, ok := strings.Cut(target, ".")
	if !ok || entityDomain == "" || entity == "" {
		return "", "", &MalformedTargetError{Target: target}
	}
	return entityDomain, entity, nil
}
