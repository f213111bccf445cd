package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Gunvolt24/mcp_server/internal/domain"
	"github.com/Gunvolt24/mcp_server/pkg/ctxmeta"
	"github.com/Gunvolt24/mcp_server/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// statusCodeHeader — заголовок сообщения-результата с HTTP-эквивалентом исхода.
const statusCodeHeader = "status_code"

// handleMessage обрабатывает одно сообщение и определяет нужно ли коммитить оффсет.
func (c *Consumer) handleMessage(ctx context.Context, topic string, msg *kafka.Message) bool {
	// id для логов заказа: у сообщения нет X-Request-ID, его заменяет позиция в топике
	ctx = ctxmeta.WithRequestID(ctx, fmt.Sprintf("%s/%d/%d", topic, msg.Partition, msg.Offset))

	ctxTimeout, cancel := context.WithTimeout(ctx, c.processTimeout)
	reply := c.service.SubmitJSON(ctxTimeout, msg.Value)
	cancel()

	// Остановка приложения: исход недостоверен, сообщение перечитаем после рестарта
	if ctx.Err() != nil {
		c.log.Warnf(ctx, "processing interrupted by shutdown offset=%d (not committed)", msg.Offset)
		return false
	}

	if reply.Result.IsSuccess() {
		metrics.KafkaMessagesProcessed.WithLabelValues(topic).Inc()
	} else {
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		c.log.Warnf(ctx, "order rejected offset=%d status=%d error_code=%s: %s (skipped)",
			msg.Offset, reply.StatusCode, reply.Result.ErrorCode, reply.Result.Message)
	}

	c.publishResult(ctx, topic, msg, reply)
	return true
}

// publishResult — публикует конверт результата; ошибка только логируется.
func (c *Consumer) publishResult(ctx context.Context, topic string, msg *kafka.Message, reply domain.Reply) {
	if c.writer == nil {
		return
	}

	body, err := json.Marshal(reply.Result)
	if err != nil {
		metrics.KafkaResultsPublishFailed.WithLabelValues(topic).Inc()
		c.log.Errorf(ctx, "marshal result offset=%d: %v", msg.Offset, err)
		return
	}

	out := kafka.Message{
		Key:   msg.Key,
		Value: body,
		Headers: []kafka.Header{
			{Key: statusCodeHeader, Value: []byte(strconv.Itoa(reply.StatusCode))},
		},
	}
	if err := c.writer.WriteMessages(ctx, out); err != nil {
		metrics.KafkaResultsPublishFailed.WithLabelValues(topic).Inc()
		c.log.Warnf(ctx, "publish result failed offset=%d: %v", msg.Offset, err)
	}
}

// commitSafely пытается закоммитить оффсет и залогировать ошибку.
func (c *Consumer) commitSafely(ctx context.Context, msg *kafka.Message) {
	if commitErr := c.reader.CommitMessages(ctx, *msg); commitErr != nil {
		c.log.Warnf(ctx, "commit failed offset=%d: %v", msg.Offset, commitErr)
	}
}

// sleepWithBackoff ждет backoff или останавливается по контексту.
func (c *Consumer) sleepWithBackoff(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// nextBackoff возвращает следующее время ожидания повтора с учетом retryMax.
func (c *Consumer) nextBackoff(current time.Duration) time.Duration {
	current *= 2
	if current > c.retryMax {
		return c.retryMax
	}
	return current
}

// withJitterEqual — половина задержки фиксирована, вторая половина случайная.
func (c *Consumer) withJitterEqual(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	jitter := time.Duration(c.jitterRand.Int63n(int64(d-half) + 1))
	return half + jitter
}
