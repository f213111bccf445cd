package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gunvolt24/mcp_server/internal/domain"
	"github.com/Gunvolt24/mcp_server/internal/ports/mocks"
	rest "github.com/Gunvolt24/mcp_server/internal/transport/http"
	"github.com/Gunvolt24/mcp_server/pkg/ctxmeta"
	"github.com/Gunvolt24/mcp_server/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type noopLogger struct{}

func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

func init() { gin.SetMode(gin.TestMode) }

func newRouter(svc *mocks.MockOrderSubmitter, opts ...rest.HandlerOption) *gin.Engine {
	h := rest.NewHandler(svc, noopLogger{}, 0, opts...)
	return rest.NewRouter(h, "test")
}

func strPtr(s string) *string { return &s }

func TestPostOrder_PassesBodyAndReturnsEnvelope(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOrderSubmitter(ctrl)

	body := `{"user":"lucas","intent":"turn_off","target":"light.king_s_bedroom"}`
	svc.EXPECT().SubmitJSON(gomock.Any(), []byte(body)).Return(domain.Reply{
		StatusCode: http.StatusOK,
		Result: domain.Result{
			Status:    "success",
			Action:    strPtr("turn_off"),
			Target:    strPtr("light.king_s_bedroom"),
			Version:   "1.0.0",
			RequestID: "req-1",
			Timestamp: "2025-07-22T21:45:01Z",
		},
	})

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp/order", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["status"] != "success" || got["action"] != "turn_off" || got["request_id"] != "req-1" {
		t.Fatalf("unexpected body: %v", got)
	}
	if _, ok := got["error_code"]; ok {
		t.Fatalf("error_code must be absent on success: %v", got)
	}
}

func TestPostOrder_StatusFromReply(t *testing.T) {
	for _, code := range []int{http.StatusUnprocessableEntity, http.StatusBadGateway} {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockOrderSubmitter(ctrl)
		svc.EXPECT().SubmitJSON(gomock.Any(), gomock.Any()).Return(domain.Reply{
			StatusCode: code,
			Result:     domain.NewValidationErrorResult(domain.CodeShapeError, "user: field required"),
		})

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp/order", strings.NewReader(`{}`)))

		if w.Code != code {
			t.Fatalf("want %d, got %d", code, w.Code)
		}
		var got map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &got)
		if v, ok := got["action"]; !ok || v != nil {
			t.Fatalf("action must be explicit null: %v", got)
		}
	}
}

func TestPostOrder_BodyTooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOrderSubmitter(ctrl)
	svc.EXPECT().SubmitJSON(gomock.Any(), gomock.Any()).Times(0)

	big := bytes.Repeat([]byte("x"), 4<<10)
	w := httptest.NewRecorder()
	newRouter(svc, rest.WithMaxBodyBytes(1<<10)).
		ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp/order", bytes.NewReader(big)))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "request body too large") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestHealth_200(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOrderSubmitter(ctrl)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"status":"ok"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestNoRoute_404(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOrderSubmitter(ctrl)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-such-route", http.NoBody))

	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "route not found") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestMethodNotAllowed_405(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOrderSubmitter(ctrl)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/mcp/order", http.NoBody))

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "method not allowed") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestPing_200(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOrderSubmitter(ctrl)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Fatalf("want 200 pong, got %d %q", w.Code, w.Body.String())
	}
}

func TestMetrics_200(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOrderSubmitter(ctrl)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	// Содержимое может меняться — достаточно проверить, что не пусто.
	if w.Body.Len() == 0 {
		t.Fatal("metrics body is empty")
	}
}

func TestRequestID_Header(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOrderSubmitter(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("X-Request-ID", "rid-1")
	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "rid-1" {
		t.Fatalf("X-Request-ID=%q", got)
	}
}

// id запроса доходит до конвейера и попадает в access-лог /mcp/order.
func TestPostOrder_RequestIDInContextAndLog(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockOrderSubmitter(ctrl)

	svc.EXPECT().SubmitJSON(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []byte) domain.Reply {
			if rid, _ := ctxmeta.RequestIDFromContext(ctx); rid != "rid-order-7" {
				t.Errorf("request id in pipeline ctx = %q", rid)
			}
			return domain.Reply{StatusCode: http.StatusOK, Result: domain.Result{Status: "success"}}
		})

	core, logs := observer.New(zapcore.InfoLevel)
	h := rest.NewHandler(svc, logger.NewFromZap(zap.New(core)), 0)

	req := httptest.NewRequest(http.MethodPost, "/mcp/order", strings.NewReader(`{}`))
	req.Header.Set("X-Request-ID", "rid-order-7")
	w := httptest.NewRecorder()
	rest.NewRouter(h, "").ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	access := logs.FilterMessageSnippet("path=/mcp/order").All()
	if len(access) != 1 {
		t.Fatalf("want one access log line, got %d", len(access))
	}
	if !strings.Contains(access[0].Message, "id=rid-order-7") {
		t.Fatalf("access log without request id: %q", access[0].Message)
	}
	if got := access[0].ContextMap()["request_id"]; got != "rid-order-7" {
		t.Fatalf("request_id field = %v", got)
	}
}
