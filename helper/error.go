package helper

import "fmt"

// NewError wraps err with the operation that failed, e.g.
// NewError("scan", err) -> "error scan: ...". The wrapped error stays
// available for errors.Is/errors.As.
func NewError(operation string, err error) error {
	return fmt.Errorf("error %v: %w", operation, err)
}
