package middleware

import (
	"fmt"
	"net/http"
	"time"

	"go-timeclock/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyTTL = 10 * time.Minute

// Idempotency rejects a repeated POST carrying an Idempotency-Key already used by
// the same user on the same route. Mobile clients retry clock-in and clock-out on
// flaky networks; the database still enforces one open shift per employee.
func Idempotency(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		lockKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), c.GetString(KeyUserID), key)
		fresh, err := rdb.SetNX(c.Request.Context(), lockKey, "1", idempotencyTTL).Result()
		if err != nil {
			// redis outage must not block clocking; fall through to the database guards
			logger.Warn("idempotency check unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			response.Error(c, http.StatusConflict, "DUPLICATE_REQUEST", "request with this idempotency key was already received", nil)
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			if err := rdb.Del(c.Request.Context(), lockKey).Err(); err != nil {
				logger.Warn("idempotency key release failed", zap.Error(err))
			}
		}
	}
}
