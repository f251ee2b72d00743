package sale

import "errors"

// ErrInvalidQuantity rejects sale requests below one tray. Caught before any
// transaction is opened.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")
