package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultPrefix — префикс переменных окружения сервиса.
const DefaultPrefix = "MCP"

type HTTP struct {
	Addr              string        `default:":8080" envconfig:"ADDR"`
	GinMode           string        `default:"debug" envconfig:"GIN_MODE"`
	ReadTimeout       time.Duration `default:"10s" envconfig:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `default:"20s" envconfig:"WRITE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `default:"5s" envconfig:"READ_HEADER_TIMEOUT"`
	IdleTimeout       time.Duration `default:"60s" envconfig:"IDLE_TIMEOUT"`
	// HandlerTimeout — весь конвейер заказа, включая вызов Home Assistant.
	HandlerTimeout  time.Duration `default:"15s" envconfig:"HANDLER_TIMEOUT"`
	GracefulTimeout time.Duration `default:"5s" envconfig:"GRACEFUL_TIMEOUT"`
	MaxBodyBytes    int64         `default:"1048576" envconfig:"MAX_BODY_BYTES"`
}

type Tracing struct {
	Enabled     bool    `default:"false" envconfig:"OTEL_ENABLED"`
	ServiceName string  `default:"mcp-server" envconfig:"OTEL_SERVICE_NAME"`
	Endpoint    string  `default:"jaeger:4318" envconfig:"OTEL_ENDPOINT"`
	SampleRatio float64 `default:"1" envconfig:"OTEL_SAMPLE_RATIO"`
}

type Logger struct {
	IsProd bool `default:"false" envconfig:"IS_PROD"`
}

type Kafka struct {
	Enabled        bool          `default:"false" envconfig:"ENABLED"`
	Brokers        []string      `default:"kafka:9092" envconfig:"BROKERS"`
	Topic          string        `default:"mcp-orders" envconfig:"TOPIC"`
	GroupID        string        `default:"mcp-server" envconfig:"GROUP_ID"`
	StartOffset    string        `default:"last" envconfig:"START_OFFSET"`
	ResultTopic    string        `default:"" envconfig:"RESULT_TOPIC"`
	ProcessTimeout time.Duration `default:"15s" envconfig:"PROCESS_TIMEOUT"`
	RetryInitial   time.Duration `default:"1s" envconfig:"RETRY_INITIAL"`
	RetryMax       time.Duration `default:"30s" envconfig:"RETRY_MAX"`
}

// Schema — "" означает встроенную схему заказа.
type Schema struct {
	File string `default:"" envconfig:"FILE"`
}

// HomeAssistant читается без префикса: имена переменных фиксированы.
// Таймаут вызова не настраивается: он фиксирован в клиенте (10s).
type HomeAssistant struct {
	URL   string `default:"http://localhost:8123/api" envconfig:"HOME_ASSISTANT_URL"`
	Token string `envconfig:"HOME_ASSISTANT_TOKEN"`
}

type Config struct {
	HTTP          HTTP
	Tracing       Tracing
	Logger        Logger
	Kafka         Kafka
	Schema        Schema
	HomeAssistant HomeAssistant `ignored:"true"`
}

func Load() (Config, error) {
	return LoadWithPrefix(DefaultPrefix)
}

// LoadWithPrefix — как Load, но с произвольным префиксом (для тестов).
func LoadWithPrefix(prefix string) (Config, error) {
	var c Config

	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process("", &c.HomeAssistant); err != nil {
		return Config{}, err
	}

	return c, nil
}
