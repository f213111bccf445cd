package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/mcp_server/internal/domain"
	"github.com/Gunvolt24/mcp_server/internal/kafka/mocks"
	"github.com/Gunvolt24/mcp_server/pkg/ctxmeta"
	"github.com/Gunvolt24/mcp_server/pkg/metrics"
)

type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

var testReaderConfig = kafka.ReaderConfig{Topic: "orders", GroupID: "g1", Brokers: []string{"b:9092"}}

// runAsync запускает Consumer.Run в отдельном горутине и возвращает канал с ошибкой.
func runAsync(ctx context.Context, c *Consumer) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	return errCh
}

func newTestConsumer(r reader, w writer, s orderSubmitter) *Consumer {
	return &Consumer{
		reader: r, writer: w, service: s, log: nopLogger{},
		processTimeout: 30 * time.Millisecond,
		retryInitial:   5 * time.Millisecond,
		retryMax:       10 * time.Millisecond,
		jitterRand:     rand.New(rand.NewSource(1)),
	}
}

// blockUntilCancel — 2-й fetch блокируется до отмены контекста
func blockUntilCancel(r *mocks.Mockreader) {
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		})
}

func waitCanceled(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for Run to stop")
	}
}

func successReply() domain.Reply {
	o := &domain.Order{User: "lucas", Intent: "turn_on", Target: "light.kitchen"}
	return domain.Reply{
		StatusCode: http.StatusOK,
		Result:     domain.NewSuccessResult(o, "req-1", time.Date(2025, 7, 22, 21, 45, 0, 0, time.UTC)),
	}
}

// Успешная обработка: результат опубликован с ключом и status_code, оффсет закоммичен
func TestRun_OK_PublishesAndCommits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	w := mocks.NewMockwriter(ctrl)
	s := mocks.NewMockorderSubmitter(ctrl)

	before := testutil.ToFloat64(metrics.KafkaMessagesProcessed.WithLabelValues("orders"))

	r.EXPECT().Config().Return(testReaderConfig).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 1, Key: []byte("k1"), Value: []byte("ok")}, nil)
	s.EXPECT().SubmitJSON(gomock.Any(), []byte("ok")).
		DoAndReturn(func(ctx context.Context, _ []byte) domain.Reply {
			if rid, _ := ctxmeta.RequestIDFromContext(ctx); rid != "orders/0/1" {
				t.Errorf("request id in ctx = %q, want orders/0/1", rid)
			}
			return successReply()
		})

	var published kafka.Message
	w.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			published = msgs[0]
			return nil
		})
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)
	blockUntilCancel(r)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, newTestConsumer(r, w, s))

	time.Sleep(20 * time.Millisecond)
	cancel()
	waitCanceled(t, errCh)

	if string(published.Key) != "k1" {
		t.Fatalf("key: want k1, got %q", published.Key)
	}
	if len(published.Headers) != 1 || published.Headers[0].Key != "status_code" || string(published.Headers[0].Value) != "200" {
		t.Fatalf("unexpected headers: %+v", published.Headers)
	}
	var res map[string]any
	if err := json.Unmarshal(published.Value, &res); err != nil {
		t.Fatalf("result is not json: %v", err)
	}
	if res["status"] != "success" || res["request_id"] != "req-1" {
		t.Fatalf("unexpected result: %v", res)
	}
	if got := testutil.ToFloat64(metrics.KafkaMessagesProcessed.WithLabelValues("orders")); got != before+1 {
		t.Fatalf("processed counter: want %v, got %v", before+1, got)
	}
}

// Невалидный заказ => публикуем конверт ошибки и тоже коммитим (чтобы не ретраить мусор)
func TestRun_InvalidOrder_Commits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	w := mocks.NewMockwriter(ctrl)
	s := mocks.NewMockorderSubmitter(ctrl)

	r.EXPECT().Config().Return(testReaderConfig).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 7, Value: []byte("bad")}, nil)
	s.EXPECT().SubmitJSON(gomock.Any(), []byte("bad")).Return(domain.Reply{
		StatusCode: http.StatusUnprocessableEntity,
		Result:     domain.NewValidationErrorResult(domain.CodeShapeError, "invalid json"),
	})
	w.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			if string(msgs[0].Headers[0].Value) != "422" {
				t.Errorf("status_code header: want 422, got %s", msgs[0].Headers[0].Value)
			}
			return nil
		})
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)
	blockUntilCancel(r)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, newTestConsumer(r, w, s))

	time.Sleep(20 * time.Millisecond)
	cancel()
	waitCanceled(t, errCh)
}

// Ошибка Home Assistant => коммитим: действие не должно выполняться повторно
func TestRun_BackendError_Commits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockorderSubmitter(ctrl)

	r.EXPECT().Config().Return(testReaderConfig).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 2, Value: []byte("x")}, nil)
	o := &domain.Order{Intent: "turn_on", Target: "light.kitchen"}
	s.EXPECT().SubmitJSON(gomock.Any(), []byte("x")).Return(domain.Reply{
		StatusCode: http.StatusBadGateway,
		Result:     domain.NewBackendErrorResult(o, "ha_exception", "connection refused"),
	})
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)
	blockUntilCancel(r)

	// без writer: публикации нет
	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, newTestConsumer(r, nil, s))

	time.Sleep(20 * time.Millisecond)
	cancel()
	waitCanceled(t, errCh)
}

// Ошибка публикации результата не мешает коммиту
func TestRun_PublishFailure_StillCommits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	w := mocks.NewMockwriter(ctrl)
	s := mocks.NewMockorderSubmitter(ctrl)

	before := testutil.ToFloat64(metrics.KafkaResultsPublishFailed.WithLabelValues("orders"))

	r.EXPECT().Config().Return(testReaderConfig).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 4, Value: []byte("ok")}, nil)
	s.EXPECT().SubmitJSON(gomock.Any(), gomock.Any()).Return(successReply())
	w.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker unavailable"))
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)
	blockUntilCancel(r)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, newTestConsumer(r, w, s))

	time.Sleep(20 * time.Millisecond)
	cancel()
	waitCanceled(t, errCh)

	if got := testutil.ToFloat64(metrics.KafkaResultsPublishFailed.WithLabelValues("orders")); got != before+1 {
		t.Fatalf("publish failed counter: want %v, got %v", before+1, got)
	}
}

// Остановка во время обработки => НЕ коммитим и не публикуем
func TestRun_ShutdownDuringProcessing_NoCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	w := mocks.NewMockwriter(ctrl)
	s := mocks.NewMockorderSubmitter(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.EXPECT().Config().Return(testReaderConfig).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 5, Value: []byte("ok")}, nil)
	s.EXPECT().SubmitJSON(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, []byte) domain.Reply {
			cancel()
			return successReply()
		})
	// Ни CommitMessages, ни WriteMessages специально НЕ ожидаем:
	// если Consumer по ошибке их вызовет — тест упадёт как "unexpected call".
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			return kafka.Message{}, ctx.Err()
		})

	if err := newTestConsumer(r, w, s).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

// Ошибки FetchMessage ретраятся; по отмене контекста — корректный выход
func TestRun_FetchError_RetryThenStopOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockorderSubmitter(ctrl)

	r.EXPECT().Config().Return(testReaderConfig).AnyTimes()

	// Всегда возвращаем ошибку брокера; Consumer будет ждать по backoff и ретраить,
	// пока не отменится контекст
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(_ context.Context) (kafka.Message, error) {
			return kafka.Message{}, errors.New("broker error")
		}).AnyTimes()

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	if err := newTestConsumer(r, nil, s).Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}

// CommitMessages вернул ошибку — получаем предупреждение; цикл живёт дальше
func TestRun_CommitWarnOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockorderSubmitter(ctrl)

	r.EXPECT().Config().Return(testReaderConfig).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 3, Value: []byte("ok")}, nil)
	s.EXPECT().SubmitJSON(gomock.Any(), []byte("ok")).Return(successReply())
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).
		Return(errors.New("temporary"))
	blockUntilCancel(r)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, newTestConsumer(r, nil, s))

	time.Sleep(20 * time.Millisecond)
	cancel()
	waitCanceled(t, errCh)
}

// Close() закрывает reader и writer и собирает ошибки
func TestClose_DelegatesToReaderAndWriter(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	w := mocks.NewMockwriter(ctrl)
	s := mocks.NewMockorderSubmitter(ctrl)

	closeErr := errors.New("writer close failed")
	r.EXPECT().Close().Return(nil)
	w.EXPECT().Close().Return(closeErr)

	c := newTestConsumer(r, w, s)
	if err := c.Close(); !errors.Is(err, closeErr) {
		t.Fatalf("expected writer error from Close, got %v", err)
	}
	// повторный вызов — no-op
	if err := c.Close(); err != nil {
		t.Fatalf("second Close must be nil, got %v", err)
	}
}

func TestBackoff(t *testing.T) {
	c := newTestConsumer(nil, nil, nil)

	if got := c.nextBackoff(5 * time.Millisecond); got != 10*time.Millisecond {
		t.Fatalf("nextBackoff: want 10ms, got %v", got)
	}
	if got := c.nextBackoff(8 * time.Millisecond); got != c.retryMax {
		t.Fatalf("nextBackoff must be capped by retryMax, got %v", got)
	}
	for i := 0; i < 100; i++ {
		d := c.withJitterEqual(10 * time.Millisecond)
		if d < 5*time.Millisecond || d > 10*time.Millisecond {
			t.Fatalf("jitter out of range: %v", d)
		}
	}
	if got := c.withJitterEqual(0); got != 0 {
		t.Fatalf("zero delay must stay zero, got %v", got)
	}
}
