package httpx

import (
	"github.com/Gunvolt24/mcp_server/pkg/ctxmeta"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID — заголовок корреляции запроса.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLen — длиннее клиентский id не принимаем: он попадает в каждую строку лога.
const maxRequestIDLen = 128

// RequestIDMiddleware — id запроса для логов заказа.
// Клиентский X-Request-ID принимается, если он печатный и не длиннее maxRequestIDLen,
// иначе генерируется UUID. Итоговый id кладётся в контекст и возвращается в ответе.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if !acceptableRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		c.Request = c.Request.WithContext(ctxmeta.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// acceptableRequestID — непустой, ограниченной длины, только [A-Za-z0-9._:/-].
func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch b := id[i]; {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		case b == '.', b == '_', b == ':', b == '/', b == '-':
		default:
			return false
		}
	}
	return true
}
