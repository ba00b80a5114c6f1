package rl

import "errors"

const (
	RowsPrefix = 1
	SeqPrefix  = 2
)

// commit failure reasons returned to callers. Anything outside this set
// (domain rules like "slot taken") belongs to the caller, not this layer.
const (
	ReasonLockFail = "LOCK_FAIL"
	ReasonConflict = "VERSION_CONFLICT"
)

var ErrNotLocked = errors.New("not_locked")
