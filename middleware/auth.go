package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	studentRepo "campushub/database/repository/student"
	"campushub/models"
	"campushub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// JWTAuthMiddleware authenticates a student or staff account. The token hash
// is checked against the auth cache first and the account document on a miss,
// so revocation (replacing the stored hash) takes effect within the cache TTL.
func JWTAuthMiddleware(repo studentRepo.StudentRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		studentID, err := utils.ExtractIDFromToken(tokenString)
		if err != nil || studentID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}

		computedHash := utils.HashToken(tokenString)
		cacheKey := utils.AuthCachePrefix + studentID
		ctx := context.Background()

		authCache := utils.GetAuthCacheClient()
		if cachedHash, err := authCache.Get(ctx, cacheKey).Result(); err == nil {
			if cachedHash != computedHash {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token mismatch"})
				return
			}
			_ = authCache.Expire(ctx, cacheKey, utils.AuthCacheTTL).Err()
			c.Set("studentID", studentID)
			c.Next()
			return
		} else if err != redis.Nil {
			utils.GetLogger().Warn("auth cache lookup failed, falling back to DB", zap.Error(err))
		}

		st, err := repo.GetByID(studentID)
		if err != nil || st == nil || st.TokenHash == "" || st.TokenHash != computedHash {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication error"})
			return
		}

		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_ = authCache.Set(cctx, cacheKey, computedHash, utils.AuthCacheTTL).Err()
		cancel()

		c.Set("studentID", studentID)
		c.Next()
	}
}

// StaffOnly gates an endpoint to financial-office staff accounts. Must run
// after JWTAuthMiddleware.
func StaffOnly(repo studentRepo.StudentRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		studentID := c.GetString("studentID")
		if studentID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}

		st, err := repo.GetByID(studentID)
		if err != nil || st == nil || st.Role != models.RoleStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff access required"})
			return
		}
		c.Next()
	}
}
