package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConflict means a concurrent writer changed the inventory row between our
// read and our conditional write. Transient; callers retry.
var ErrConflict = errors.New("inventory version conflict")

// InsufficientStockError rejects a decrement that would take stock negative.
// Available carries the stock level actually seen so the caller can show it.
type InsufficientStockError struct {
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: only %d trays available", e.Available)
}

// IsRetryable reports whether err is worth retrying in a fresh transaction:
// our own version conflicts, plus sqlite busy/locked contention which shows up
// under concurrent writers and means the same thing.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "database is locked") || strings.Contains(s, "database table is locked")
}
