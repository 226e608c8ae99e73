package middleware

import (
	"net/http"

	"github.com/Laprimamiku/ikvcs/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDKey gin 上下文中调用者身份的键
const UserIDKey = "user_id"

// JWTAuth JWT 认证中间件
func JWTAuth(manager *auth.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			c.Abort()
			return
		}

		token, err := auth.ExtractTokenFromHeader(authHeader)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := manager.VerifyToken(token)
		if err != nil {
			log.Warn("invalid access token",
				zap.Error(err),
				zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		// 将用户信息注入到上下文
		c.Set(UserIDKey, claims.UserID)

		c.Next()
	}
}

// OptionalJWTAuth 可选认证中间件：携带有效令牌时注入调用者身份，
// 否则作为匿名请求放行。用于公开接口中区分所有者视角。
func OptionalJWTAuth(manager *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		token, err := auth.ExtractTokenFromHeader(authHeader)
		if err != nil {
			c.Next()
			return
		}

		if claims, err := manager.VerifyToken(token); err == nil {
			c.Set(UserIDKey, claims.UserID)
		}

		c.Next()
	}
}

// CallerID 从 gin 上下文取出调用者身份
func CallerID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}
