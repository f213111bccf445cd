package ports

import (
	"context"

	"github.com/Gunvolt24/mcp_server/internal/domain"
)

// OrderSubmitter — конвейер обработки заказа (валидация → Home Assistant → конверт).
type OrderSubmitter interface {
	Submit(ctx context.Context, payload map[string]any) domain.Reply
	// SubmitJSON — то же для сырого JSON (HTTP-тело, сообщение Kafka).
	SubmitJSON(ctx context.Context, raw []byte) domain.Reply
}
