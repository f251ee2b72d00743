package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trayledger/internal/sale"
)

func TestStaffIdentityRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/sell", StaffIdentity(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sell", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffIdentityExtractsHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got sale.Staff
	r := gin.New()
	r.POST("/sell", StaffIdentity(), func(c *gin.Context) {
		staff, ok := StaffFromContext(c)
		require.True(t, ok)
		got = staff
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sell", nil)
	req.Header.Set(HeaderStaffID, "staff-x")
	req.Header.Set(HeaderStaffName, "Thandi")
	req.Header.Set(HeaderStaffColor, "#FF9800")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sale.Staff{ID: "staff-x", Name: "Thandi", Color: "#FF9800"}, got)
}

func TestRequireAdminToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/admin", RequireAdminToken("secret"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/admin", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/admin", nil)
	req.Header.Set(HeaderAdminToken, "secret")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
