package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trayledger/internal/config"
	"trayledger/internal/ledger"
	"trayledger/internal/middleware"
	"trayledger/internal/model"
	"trayledger/internal/pricing"
	"trayledger/internal/sale"
	rediskey "trayledger/pkg/redis"
)

// Setup registers all HTTP routes.
func Setup(r *gin.Engine, db *gorm.DB, rdb *rd.Client, coord *sale.Coordinator, led *ledger.Ledger, log *zap.Logger, cfg config.AppConfig) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	// Sales
	r.POST("/api/sales",
		middleware.SellRateLimit(rdb, cfg.SellRateLimit, cfg.SellRateWindow),
		middleware.StaffIdentity(),
		recordSale(coord, rdb, log, cfg.StockCacheTTL))
	r.GET("/api/sales", listSales(db))

	// Inventory
	r.GET("/api/inventory", getInventory(led))
	r.GET("/api/inventory/cached", getCachedStock(rdb, led))
	r.PUT("/api/inventory/stock",
		middleware.RequireAdminToken(cfg.AdminToken),
		setStock(led, rdb, log, cfg.StockCacheTTL))

	// Pricing
	r.GET("/api/prices/current", getCurrentPrice(db))
	r.GET("/api/prices/standard", getStandardPrice(db))
	r.PUT("/api/prices/standard",
		middleware.RequireAdminToken(cfg.AdminToken), setStandardPrice(db))
	r.GET("/api/promotions", listPromotions(db))
	r.POST("/api/promotions",
		middleware.RequireAdminToken(cfg.AdminToken), createPromotion(db))

	// Reporting
	r.GET("/api/reports/daily", listDailyReports(db))
}

// recordSale is the point-of-sale entry. The coordinator owns atomicity; this
// handler only binds input, maps the error taxonomy to HTTP and mirrors the
// committed stock level into redis for dashboard polling.
func recordSale(coord *sale.Coordinator, rdb *rd.Client, log *zap.Logger, cacheTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Quantity int64 `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}

		staff, ok := middleware.StaffFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "msg": "missing staff identity"})
			return
		}

		rec, err := coord.Sell(c.Request.Context(), req.Quantity, staff)
		if err != nil {
			writeSellError(c, log, err)
			return
		}

		if err := rediskey.SetStock(c.Request.Context(), rdb, rec.RemainingStock, cacheTTL); err != nil {
			log.Warn("stock cache update failed", zap.Error(err))
		}

		c.JSON(http.StatusOK, gin.H{
			"code": 0,
			"data": gin.H{
				"sale":            rec.Sale,
				"remaining_stock": rec.RemainingStock,
			},
		})
	}
}

func writeSellError(c *gin.Context, log *zap.Logger, err error) {
	var insufficient *ledger.InsufficientStockError
	switch {
	case errors.Is(err, sale.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{
			"code": 409,
			"msg":  err.Error(),
			"data": gin.H{"available": insufficient.Available},
		})
	case errors.Is(err, ledger.ErrConflict):
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "msg": "terminal contention, please retry"})
	default:
		log.Error("sale failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": "store unavailable"})
	}
}

// listSales returns sales for one day (default today), newest first.
func listSales(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		day := c.Query("date")
		var start time.Time
		if day == "" {
			now := time.Now()
			start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		} else {
			var err error
			start, err = time.ParseInLocation("2006-01-02", day, time.Local)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "date must be YYYY-MM-DD"})
				return
			}
		}
		end := start.Add(24 * time.Hour)

		var sales []model.Sale
		if err := db.Where("sold_at >= ? AND sold_at < ?", start, end).
			Order("sold_at DESC").Find(&sales).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": sales})
	}
}

func getInventory(led *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		inv, err := led.Read(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": inv})
	}
}

// getCachedStock serves the redis stock mirror, falling back to the database
// when the mirror is cold.
func getCachedStock(rdb *rd.Client, led *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stock, found, err := rediskey.GetStock(c.Request.Context(), rdb)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"stock": stock, "cached": true}})
			return
		}
		inv, err := led.Read(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{"stock": inv.Stock, "cached": false}})
	}
}

// setStock is the administrative absolute overwrite. Last-write-wins by
// design; it does not go through the check-and-decrement discipline.
func setStock(led *ledger.Ledger, rdb *rd.Client, log *zap.Logger, cacheTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Stock *int64 `json:"stock" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		if *req.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "stock cannot be negative"})
			return
		}

		inv, err := led.SetAbsolute(c.Request.Context(), *req.Stock)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if err := rediskey.SetStock(c.Request.Context(), rdb, inv.Stock, cacheTTL); err != nil {
			log.Warn("stock cache update failed", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": inv})
	}
}

// getCurrentPrice resolves the price in effect right now, for the sales entry
// screen. Read-only; the authoritative resolution happens again inside each
// sale transaction.
func getCurrentPrice(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		standard, promos, err := loadPolicy(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		base := pricing.ResolveBasePrice(standard, promos, time.Now())
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{
			"unit_price":     base.UnitPrice,
			"name":           base.Name,
			"is_special":     base.IsSpecial,
			"config_missing": base.ConfigMissing,
			"bulk_threshold": pricing.BulkThreshold,
			"bulk_price":     pricing.BulkPrice,
		}})
	}
}

func getStandardPrice(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var setting model.PriceSetting
		err := db.First(&setting, "id = ?", model.StandardPriceID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{
				"value":      pricing.DefaultStandardPrice,
				"configured": false,
			}})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": gin.H{
			"value":      setting.Value,
			"configured": true,
		}})
	}
}

func setStandardPrice(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Value decimal.Decimal `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		if !req.Value.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "price must be > 0"})
			return
		}

		setting := model.PriceSetting{ID: model.StandardPriceID, Value: req.Value}
		if err := db.Save(&setting).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": setting})
	}
}

func listPromotions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var promos []model.Promotion
		if err := db.Order("created_at DESC").Find(&promos).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": promos})
	}
}

// createPromotion schedules a time-windowed special price.
func createPromotion(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name      string          `json:"name" binding:"required"`
			Price     decimal.Decimal `json:"price" binding:"required"`
			StartDate string          `json:"start_date" binding:"required"`
			EndDate   string          `json:"end_date" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": err.Error()})
			return
		}
		if !req.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "price must be > 0"})
			return
		}
		start, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "start_date must be RFC3339"})
			return
		}
		end, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "end_date must be RFC3339"})
			return
		}
		if !end.After(start) {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "end_date must be after start_date"})
			return
		}

		p := model.Promotion{
			Name:      req.Name,
			Price:     req.Price,
			StartDate: start,
			EndDate:   end,
			Active:    true,
		}
		if err := db.Create(&p).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": p})
	}
}

func listDailyReports(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reports []model.DailyReport
		if err := db.Order("date DESC").Limit(31).Find(&reports).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": reports})
	}
}

func loadPolicy(db *gorm.DB) (*decimal.Decimal, []model.Promotion, error) {
	var standard *decimal.Decimal
	var setting model.PriceSetting
	err := db.First(&setting, "id = ?", model.StandardPriceID).Error
	switch {
	case err == nil:
		standard = &setting.Value
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, err
	}

	var promos []model.Promotion
	if err := db.Where("active = ?", true).Find(&promos).Error; err != nil {
		return nil, nil, err
	}
	return standard, promos, nil
}
