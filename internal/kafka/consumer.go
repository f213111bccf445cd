package kafka

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/Gunvolt24/mcp_server/internal/domain"
	"github.com/Gunvolt24/mcp_server/internal/ports"
	"github.com/Gunvolt24/mcp_server/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// Проверка, что Consumer удовлетворяет интерфейсу верхнего уровня (порт приложения).
var _ ports.MessageConsumer = (*Consumer)(nil)

// reader — минимальный контракт над источником (kafka.Reader),
// чтобы легко подменять его моками в тестах.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// writer — публикация конвертов результатов (kafka.Writer).
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// orderSubmitter — конвейер обработки заказа.
type orderSubmitter interface {
	SubmitJSON(ctx context.Context, raw []byte) domain.Reply
}

// Consumer — обёртка над kafka.Reader/Writer + зависимостями (usecase, logger).
type Consumer struct {
	reader         reader
	writer         writer // nil — результаты не публикуются
	resultTopic    string
	service        orderSubmitter
	log            ports.Logger
	processTimeout time.Duration
	retryInitial   time.Duration
	retryMax       time.Duration
	jitterRand     *rand.Rand
	closeOnce      sync.Once
}

// NewConsumer — конструктор. ReaderConfig() настроен на ручной коммит оффсетов.
func NewConsumer(cfg *ConsumerConfig, service orderSubmitter, log ports.Logger) *Consumer {
	reader := kafka.NewReader(cfg.ReaderConfig())

	// Параметры по умолчанию (если не заданы в конфиге)
	pt := cfg.ProcessTimeout
	if pt <= 0 {
		pt = 15 * time.Second
	}

	rInit := cfg.RetryInitial
	if rInit <= 0 {
		rInit = 1 * time.Second
	}

	rMax := cfg.RetryMax
	if rMax <= 0 {
		rMax = 30 * time.Second
	}

	c := &Consumer{
		reader:         reader,
		resultTopic:    cfg.ResultTopic,
		service:        service,
		log:            log,
		processTimeout: pt,
		retryInitial:   rInit,
		retryMax:       rMax,
		// jitterRand — источник случайности, чтобы рассинхронизировать экспоненциальный backoff.
		jitterRand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	// типизированный nil в интерфейсе не ставим
	if w := cfg.NewResultWriter(); w != nil {
		c.writer = w
	}
	return c
}

// Run — основной цикл:
// 1) читаем сообщение без авто-коммита;
// 2) прогоняем через конвейер и публикуем конверт результата;
// 3) коммитим всегда, в том числе невалидные заказы и ошибки Home Assistant:
// повторная доставка не должна повторно выполнять действие;
// 4) обработка, прерванная остановкой приложения, не коммитится.
func (c *Consumer) Run(ctx context.Context) error {
	rc := c.reader.Config()
	c.log.Infof(ctx, "kafka consumer started topic=%s group_id=%s brokers=%v result_topic=%s",
		rc.Topic, rc.GroupID, rc.Brokers, c.resultTopic)

	// Экспоненциальный backoff на ошибках FetchMessage с equal-jitter
	retry := c.retryInitial

	for {
		// Читаем сообщение (без автокоммита)
		msg, fetchErr := c.reader.FetchMessage(ctx)
		if fetchErr != nil {
			// Если контекст отменен -> выходим
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Иначе - временная ошибка брокера/сети. Ожидаем и повторяем
			sleep := c.withJitterEqual(retry)
			c.log.Warnf(ctx, "fetch failed: %v (will retry in %s)", fetchErr, sleep)
			if !c.sleepWithBackoff(ctx, sleep) {
				return ctx.Err()
			}
			retry = c.nextBackoff(retry)
			continue
		}

		// Успешный FetchMessage -> сбрасываем интервал ожидания и инкрементим метрики
		retry = c.retryInitial
		metrics.KafkaMessagesConsumed.WithLabelValues(rc.Topic).Inc()

		if shouldCommit := c.handleMessage(ctx, rc.Topic, &msg); shouldCommit {
			c.commitSafely(ctx, &msg)
		}
	}
}

// Close - закрывает reader и writer. Вызывается при остановке приложения.
func (c *Consumer) Close() (retErr error) {
	c.closeOnce.Do(func() {
		var errs []error
		if err := c.reader.Close(); err != nil {
			errs = append(errs, err)
		}
		if c.writer != nil {
			if err := c.writer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		retErr = errors.Join(errs...)
	})
	return retErr
}
