package warehouse

import (
	"fmt"
	"time"
)

// LockTimeoutError indicates a bounded wait on a warehouse lock expired
type LockTimeoutError struct {
	Timeout time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("warehouse lock not acquired within %s", e.Timeout)
}
