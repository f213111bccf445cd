package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes — предел тела запроса по умолчанию (1 МБ).
const DefaultMaxBodyBytes int64 = 1 << 20

// ClampBodyLimit — ограничение значения v в диапазоне [lo, hi]; 0 и меньше — дефолт.
func ClampBodyLimit(v, lo, hi int64) int64 {
	if v <= 0 {
		v = DefaultMaxBodyBytes
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MaxBodyBytes — middleware, ограничивающий размер тела запроса.
// Превышение проявится ошибкой чтения тела в хендлере.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
