package validate

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Gunvolt24/mcp_server/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/mcp_order.schema.json
var embeddedOrderSchema []byte

// schemaURL — условный адрес ресурса внутри компилятора (сеть не используется).
const schemaURL = "mem://schemas/mcp_order.schema.json"

// SchemaValidator — валидатор заказа по JSON Schema (draft-07).
// Схема компилируется один раз и дальше только читается: безопасен для конкурентного использования.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator — валидатор со встроенной схемой.
func NewSchemaValidator() (*SchemaValidator, error) {
	return NewSchemaValidatorFromBytes(embeddedOrderSchema)
}

// LoadSchemaValidator — схема из файла, если путь задан, иначе встроенная.
func LoadSchemaValidator(path string) (*SchemaValidator, error) {
	if strings.TrimSpace(path) == "" {
		return NewSchemaValidator()
	}
	return NewSchemaValidatorFromFile(path)
}

// NewSchemaValidatorFromFile — валидатор со схемой из файла.
func NewSchemaValidatorFromFile(path string) (*SchemaValidator, error) {
	def, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return NewSchemaValidatorFromBytes(def)
}

// NewSchemaValidatorFromBytes — компилирует схему из JSON-определения.
func NewSchemaValidatorFromBytes(def []byte) (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	if err := compiler.AddResource(schemaURL, bytes.NewReader(def)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate — проверяет payload и возвращает *domain.SchemaViolationError со всеми нарушениями.
func (v *SchemaValidator) Validate(_ context.Context, payload map[string]any) error {
	doc, err := toJSONValue(payload)
	if err != nil {
		return &domain.SchemaViolationError{Violations: []domain.Violation{{Message: err.Error()}}}
	}

	err = v.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validate: %w", err)
	}

	leaves := collectLeaves(verr, nil)
	sortLeaves(leaves)

	violations := make([]domain.Violation, 0, len(leaves))
	for _, l := range leaves {
		violations = append(violations, domain.Violation{
			Path:    strings.Join(l.segments, "."),
			Message: l.message,
		})
	}
	return &domain.SchemaViolationError{Violations: violations}
}

// toJSONValue — приводит payload к виду, который ожидает jsonschema
// (числа как json.Number, только map[string]any/[]any).
func toJSONValue(payload map[string]any) (any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payload is not json-serializable: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("payload is not json-serializable: %w", err)
	}
	return doc, nil
}

type leaf struct {
	segments []string
	message  string
}

// collectLeaves — собирает конечные причины (без промежуточных "doesn't validate with ...").
func collectLeaves(e *jsonschema.ValidationError, acc []leaf) []leaf {
	if len(e.Causes) == 0 {
		return append(acc, leaf{segments: pointerSegments(e.InstanceLocation), message: e.Message})
	}
	for _, c := range e.Causes {
		acc = collectLeaves(c, acc)
	}
	return acc
}

// pointerSegments — "/context/time" → ["context", "time"].
func pointerSegments(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}
	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return parts
}

// sortLeaves — стабильная сортировка по пути (лексикографически по сегментам;
// числовые индексы сравниваются как числа). Корень идёт первым.
func sortLeaves(leaves []leaf) {
	sort.SliceStable(leaves, func(i, j int) bool {
		return lessSegments(leaves[i].segments, leaves[j].segments)
	})
}

func lessSegments(a, b []string) bool {
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k] == b[k] {
			continue
		}
		ai, aErr := strconv.Atoi(a[k])
		bi, bErr := strconv.Atoi(b[k])
		if aErr == nil && bErr == nil {
			return ai < bi
		}
		return a[k] < b[k]
	}
	return len(a) < len(b)
}
