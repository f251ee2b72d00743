package redis

import (
	"context"
	"errors"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// SetStock mirrors a committed stock level into redis so dashboards can poll
// cheaply. Best-effort: the database stays the source of truth.
func SetStock(ctx context.Context, rdb *rd.Client, stock int64, ttl time.Duration) error {
	return rdb.Set(ctx, StockKey(), stock, ttl).Err()
}

// GetStock reads the cached stock level. found=false means the mirror has not
// been populated (or expired); callers should fall back to the database.
func GetStock(ctx context.Context, rdb *rd.Client) (int64, bool, error) {
	val, err := rdb.Get(ctx, StockKey()).Int64()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return val, true, nil
}
