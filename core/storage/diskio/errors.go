package diskio

import "errors"

// Sentinel errors the disk scheduler returns. The buffer pool core reports
// pool-exhaustion and pin-state failures as plain bool/nil returns per
// spec.md §4.1, not as errors, so this set only covers I/O itself.
var (
	ErrIO              = errors.New("i/o error")
	ErrSchedulerClosed = errors.New("disk scheduler is shut down")
)
