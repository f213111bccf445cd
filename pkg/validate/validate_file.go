package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gunvolt24/mcp_server/internal/ports"
)

// InputFormat допустимые значения.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"
	FormatJSONL InputFormat = "jsonl"
)

// ResolveFormat — auto определяется по расширению (по умолчанию JSON), явный формат не меняется.
func ResolveFormat(filePath string, format InputFormat) InputFormat {
	if format != FormatAuto {
		return format
	}
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".jsonl":
		return FormatJSONL
	default:
		return FormatJSON
	}
}

// ValidateFile — валидирует файл с заказами как JSON или JSONL и пишет валидный вывод в writer.
// Возвращает сводку вида "N valid / M invalid".
func ValidateFile(ctx context.Context, schema ports.SchemaValidator, filePath string, format InputFormat, ow io.Writer) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ValidateReader(ctx, schema, file, ResolveFormat(filePath, format), ow)
}

// ValidateReader — то же для произвольного reader'а (stdin и т.п.).
// Формат должен быть явным: auto без имени файла не определить.
func ValidateReader(ctx context.Context, schema ports.SchemaValidator, ir io.Reader, format InputFormat, ow io.Writer) (string, error) {
	resSummary := ""

	switch format {
	case FormatJSON:
		raw, err := io.ReadAll(ir)
		if err != nil {
			return resSummary, fmt.Errorf("read input: %w", err)
		}
		order, err := ValidateOrderFromJSON(ctx, schema, raw)
		if err != nil {
			return "0 valid / 1 invalid", err
		}
		canonical, err := json.Marshal(order)
		if err != nil {
			return resSummary, fmt.Errorf("marshal order: %w", err)
		}
		if _, err := ow.Write(canonical); err != nil {
			return resSummary, fmt.Errorf("write json: %w", err)
		}
		if _, err := ow.Write([]byte("\n")); err != nil {
			return resSummary, fmt.Errorf("write newline: %w", err)
		}
		return "1 valid / 0 invalid", nil

	case FormatJSONL:
		result, err := ValidateJSONLStream(ctx, schema, ir, ow)
		if err != nil {
			return resSummary, err
		}
		return fmt.Sprintf("%d valid / %d invalid", result.ValidLinesCount, result.InvalidLinesCount), nil

	default:
		return resSummary, fmt.Errorf("unsupported format: %s", format)
	}
}
