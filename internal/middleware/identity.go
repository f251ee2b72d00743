package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trayledger/internal/sale"
)

// Staff identity headers, populated by the authenticating proxy. The service
// trusts them as already-authenticated input and performs no auth itself.
const (
	HeaderStaffID    = "X-Staff-Id"
	HeaderStaffName  = "X-Staff-Name"
	HeaderStaffColor = "X-Staff-Color"
)

const staffContextKey = "staff"

// StaffIdentity extracts the seller identity from headers and stashes it in
// the gin context. Requests without a staff id are rejected.
func StaffIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderStaffID)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": 401,
				"msg":  "missing staff identity",
			})
			return
		}
		c.Set(staffContextKey, sale.Staff{
			ID:    id,
			Name:  c.GetHeader(HeaderStaffName),
			Color: c.GetHeader(HeaderStaffColor),
		})
		c.Next()
	}
}

// StaffFromContext returns the identity set by StaffIdentity.
func StaffFromContext(c *gin.Context) (sale.Staff, bool) {
	v, ok := c.Get(staffContextKey)
	if !ok {
		return sale.Staff{}, false
	}
	staff, ok := v.(sale.Staff)
	return staff, ok
}
