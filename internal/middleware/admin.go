package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderAdminToken guards administrative endpoints (stock set, price set,
// promotion create).
const HeaderAdminToken = "X-Admin-Token"

// RequireAdminToken rejects requests whose admin token does not match.
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderAdminToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": 401,
				"msg":  "invalid admin token",
			})
			return
		}
		c.Next()
	}
}
