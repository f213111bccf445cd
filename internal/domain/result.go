package domain

import (
	"fmt"
	"time"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TimestampLayout — RFC 3339 в UTC с наносекундами фиксированной ширины:
// строки timestamp сравниваются лексикографически в том же порядке, что и время.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Коды ошибок валидации (значения совпадают с теми, что уже знают клиенты).
const (
	CodeShapeError   = "pydantic_error"
	CodeSchemaError  = "jsonschema_error"
	CodeBackendError = "ha_error"
)

// Result — конверт ответа на заказ. Action и Target равны null,
// если заказ не прошёл валидацию.
type Result struct {
	Status    string  `json:"status"`
	Action    *string `json:"action"`
	Target    *string `json:"target"`
	Message   string  `json:"message,omitempty"`
	ErrorCode string  `json:"error_code,omitempty"`
	Version   string  `json:"version,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// Reply — результат вместе с HTTP-эквивалентом статуса.
type Reply struct {
	StatusCode int
	Result     Result
}

func (r Result) IsSuccess() bool { return r.Status == StatusSuccess }

// NewSuccessResult — успешный конверт; requestID и at генерирует вызывающий.
func NewSuccessResult(order *Order, requestID string, at time.Time) Result {
	action, target := order.Intent, order.Target
	return Result{
		Status:    StatusSuccess,
		Action:    &action,
		Target:    &target,
		Message:   fmt.Sprintf("Order '%s' for '%s' executed via Home Assistant.", order.Intent, order.Target),
		Version:   order.VersionOrDefault(),
		RequestID: requestID,
		Timestamp: at.UTC().Format(TimestampLayout),
	}
}

// NewValidationErrorResult — конверт для невалидного заказа (action/target = null).
func NewValidationErrorResult(code, message string) Result {
	return Result{
		Status:    StatusError,
		Message:   message,
		ErrorCode: code,
	}
}

// NewBackendErrorResult — конверт для ошибки Home Assistant; пустой code заменяется на ha_error.
func NewBackendErrorResult(order *Order, code, message string) Result {
	if code == "" {
		code = CodeBackendError
	}
	action, target := order.Intent, order.Target
	return Result{
		Status:    StatusError,
		Action:    &action,
		Target:    &target,
		Message:   message,
		ErrorCode: code,
	}
}
