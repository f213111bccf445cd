package ports

import (
	"context"

	"github.com/Gunvolt24/mcp_server/internal/domain"
)

// HomeAssistantExecutor — исполнитель действия в Home Assistant.
// Ошибки не возвращаются: любой исход нормализуется в domain.Outcome.
// orderCtx в исходящий запрос не передаётся.
type HomeAssistantExecutor interface {
	Execute(ctx context.Context, intent, target string, orderCtx map[string]any) domain.Outcome
}
