package domain

import (
	"errors"
	"strconv"
)

// ErrMissingCredentials — не задан токен или адрес Home Assistant.
var ErrMissingCredentials = errors.New("home assistant token or base url is not configured")

// OutcomeKind — закрытый набор исходов вызова Home Assistant.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeHTTPError
	OutcomeTransportError
	OutcomeConfigError
	OutcomeMalformedTarget
)

// Outcome — нормализованный исход одного вызова бэкенда.
// Строковые коды ошибок получаются только через ErrorCode().
type Outcome struct {
	Kind       OutcomeKind
	Data       any    // тело успешного ответа
	StatusCode int    // для OutcomeHTTPError
	Body       string // сырое тело ответа для OutcomeHTTPError
	Err        error
}

func SuccessOutcome(data any) Outcome { return Outcome{Kind: OutcomeSuccess, Data: data} }

func HTTPErrorOutcome(status int, body string) Outcome {
	return Outcome{Kind: OutcomeHTTPError, StatusCode: status, Body: body}
}

func TransportErrorOutcome(err error) Outcome {
	return Outcome{Kind: OutcomeTransportError, Err: err}
}

func ConfigErrorOutcome(err error) Outcome { return Outcome{Kind: OutcomeConfigError, Err: err} }

func MalformedTargetOutcome(err error) Outcome {
	return Outcome{Kind: OutcomeMalformedTarget, Err: err}
}

func (o Outcome) OK() bool { return o.Kind == OutcomeSuccess }

// ErrorCode — код ошибки для конверта ("" для успеха).
func (o Outcome) ErrorCode() string {
	switch o.Kind {
	case OutcomeSuccess:
		return ""
	case OutcomeHTTPError:
		return "ha_" + strconv.Itoa(o.StatusCode)
	case OutcomeTransportError:
		return "ha_exception"
	case OutcomeConfigError:
		return "config_error"
	case OutcomeMalformedTarget:
		return "malformed_target"
	default:
		return CodeBackendError
	}
}

// Message — человекочитаемое описание ошибки.
func (o Outcome) Message() string {
	switch {
	case o.Kind == OutcomeSuccess:
		return ""
	case o.Kind == OutcomeHTTPError:
		return o.Body
	case o.Err != nil:
		return o.Err.Error()
	default:
		return "Unknown error from Home Assistant"
	}
}

// Label — метка исхода для метрик (без номера статуса, чтобы не раздувать кардинальность).
func (o Outcome) Label() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "success"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeConfigError:
		return "config_error"
	case OutcomeMalformedTarget:
		return "malformed_target"
	default:
		return "unknown"
	}
}
