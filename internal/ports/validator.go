package ports

import "context"

// SchemaValidator — проверка нетипизированного payload по JSON Schema.
// Возвращает *domain.SchemaViolationError со всеми нарушениями или nil.
type SchemaValidator interface {
	Validate(ctx context.Context, payload map[string]any) error
}
