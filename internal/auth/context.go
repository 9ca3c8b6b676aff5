package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/metadata"
)

type contextKey string

const userIDKey contextKey = "user_id"

const UserIDHeader = "X-User-ID"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the acting user for attribution of ledger rows and status history.
func GetUserID(ctx context.Context) string {
	// Check if added to context by middleware
	if val, ok := ctx.Value(userIDKey).(string); ok {
		return val
	}

	// Fallback to metadata
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get("x-user-id"); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// Middleware copies the X-User-ID header into the request context. Authentication itself
// happens upstream.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader(UserIDHeader); userID != "" {
			c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		}
		c.Next()
	}
}
