package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Gunvolt24/mcp_server/pkg/validate"
)

// CLI-приложение для офлайн-валидации заказов (структура + JSON Schema, без вызова Home Assistant).
// Валидные заказы печатаются в stdout в каноническом виде, причины отказа — в stderr.
// Код выхода 1, если хотя бы один заказ невалиден.
func main() {
	inputPath := flag.String("in", "", "path to input (.json or .jsonl). If empty, reads JSONL from stdin.")
	formatStr := flag.String("format", "auto", "input format: auto|json|jsonl")
	schemaPath := flag.String("schema", "", "path to JSON Schema file. If empty, the embedded order schema is used.")
	flag.Parse()

	ctx := context.Background()

	schema, err := validate.LoadSchemaValidator(*schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schema: %v\n", err)
		os.Exit(1)
	}

	format := validate.InputFormat(*formatStr)

	// stdin: без явного формата считаем, что jsonl
	if *inputPath == "" {
		if format == validate.FormatAuto {
			format = validate.FormatJSONL
		}
		os.Exit(run(ctx, schema, os.Stdin, format, os.Stdout, os.Stderr))
	}

	file, err := os.Open(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open file: %v\n", err)
		os.Exit(1)
	}
	code := run(ctx, schema, file, validate.ResolveFormat(*inputPath, format), os.Stdout, os.Stderr)
	_ = file.Close()
	os.Exit(code)
}

// run — валидирует вход в заданном формате и возвращает код выхода.
func run(ctx context.Context, schema *validate.SchemaValidator, in io.Reader, format validate.InputFormat, stdout, stderr io.Writer) int {
	if format != validate.FormatJSONL {
		summary, err := validate.ValidateReader(ctx, schema, in, format, stdout)
		if err != nil {
			fmt.Fprintf(stderr, "validation: %v (%s)\n", err, summary)
			return 1
		}
		fmt.Fprintf(stderr, "validation ok (%s)\n", summary)
		return 0
	}

	res, err := validate.ValidateJSONLStream(ctx, schema, in, stdout)
	for _, lineErr := range res.Errors {
		fmt.Fprintf(stderr, "%v\n", lineErr)
	}
	summary := fmt.Sprintf("%d valid / %d invalid", res.ValidLinesCount, res.InvalidLinesCount)
	if err != nil {
		fmt.Fprintf(stderr, "validation: %v (%s)\n", err, summary)
		return 1
	}
	if res.InvalidLinesCount > 0 {
		fmt.Fprintf(stderr, "validation failed (%s)\n", summary)
		return 1
	}
	fmt.Fprintf(stderr, "validation ok (%s)\n", summary)
	return 0
}
