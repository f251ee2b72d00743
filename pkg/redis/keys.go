package redis

import "fmt"

// StockKey names the cached mirror of the singleton inventory stock count.
func StockKey() string {
	return "trayledger:inventory:stock"
}

// RateLimitStaffKey names the sliding-window rate limit bucket for a staff
// member on the sell endpoint.
func RateLimitStaffKey(staffID string) string {
	return fmt.Sprintf("trayledger:rate_limit:sell:staff:%s", staffID)
}

// RateLimitIPKey is the fallback bucket when no staff identity is present.
func RateLimitIPKey(ip string) string {
	return fmt.Sprintf("trayledger:rate_limit:sell:ip:%s", ip)
}
