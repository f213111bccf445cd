package logger_test

import (
	"context"
	"testing"

	"github.com/Gunvolt24/mcp_server/pkg/ctxmeta"
	"github.com/Gunvolt24/mcp_server/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_AddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.NewFromZap(zap.New(core))

	ctx := ctxmeta.WithRequestID(context.Background(), "req-7")
	log.Infof(ctx, "order %s", "accepted")
	log.Warnf(context.Background(), "no request id")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "order accepted", entries[0].Message)
	assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNewZapLogger(t *testing.T) {
	for _, prod := range []bool{true, false} {
		log, cleanup, err := logger.NewZapLogger(prod)
		require.NoError(t, err)
		require.NotNil(t, log.Base())
		require.NotNil(t, log.Sugared())
		_ = cleanup()
	}
}
