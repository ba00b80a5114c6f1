package main

import (
	"time"

	"github.com/google/uuid"

	"rowlock/rl"
)

// tombstoned locks get an expiry slightly in the past so the key is
// immediately re-acquirable
const tombstoneSkew = time.Second

// LockManager implements a best-effort exclusive lock per partition key on
// top of the locks table. Best-effort is the operative word: the backing
// store has no compare-and-swap, so "is it expired" and "steal it" are two
// separate round trips. Two clients can both observe an expired lock and
// both write their own token; the re-read confirmation below filters out
// whichever write didn't stick, but there is a short window where both
// believe they hold the lock. TTL expiry bounds the damage a crashed
// holder can do. Callers who need hard mutual exclusion need a different
// backing store.
type LockManager struct {
	rs    RowStore
	table string
	now   func() time.Time
	sleep func(time.Duration)
}

func NewLockManager(rs RowStore, table string) *LockManager {
	return &LockManager{
		rs:    rs,
		table: table,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// lockRowIndex finds the lock row for key. Returns idx 0 when no row
// exists yet - lock rows are created on first acquisition and reused
// (tombstoned, never deleted) afterwards.
func (lm *LockManager) lockRowIndex(key string) (int, []string, error) {
	rows, err := lm.rs.ReadAll(lm.table)
	if err != nil {
		return 0, nil, err
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) >= 1 && row[0] == key {
			return i + 1, row, nil
		}
	}
	return 0, nil, nil
}

func (lm *LockManager) expired(expiresAt string) bool {
	if expiresAt == "" {
		return true
	}
	t, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		// unreadable expiry means the record is garbage, treat as free
		return true
	}
	return !lm.now().Before(t)
}

// Acquire tries to take the lock for key, retrying with linear backoff
// (backoff * attempt) up to maxRetries attempts. Returns the token that
// must be presented to Release, or rl.ErrNotLocked when the retry budget
// is exhausted. The stored record is stolen when its token is empty,
// expired, or left over from an earlier attempt of this same call.
func (lm *LockManager) Acquire(key, holder string, ttl time.Duration, maxRetries int, backoff time.Duration) (string, error) {
	token := uuid.NewString()
	for attempt := 1; attempt <= maxRetries; attempt++ {
		idx, row, err := lm.lockRowIndex(key)
		if err != nil {
			return "", err
		}
		expiresAt := lm.now().Add(ttl).UTC().Format(time.RFC3339)
		if idx == 0 {
			err = lm.rs.Append(lm.table, [][]string{{key, token, holder, expiresAt}})
		} else {
			curToken := cell(row, 1)
			if curToken != "" && curToken != token && !lm.expired(cell(row, 3)) {
				// someone else holds a live lock
				lm.sleep(backoff * time.Duration(attempt))
				continue
			}
			err = lm.rs.UpdateRange(lm.table, idx, 2, []string{token, holder, expiresAt})
		}
		if err != nil {
			return "", err
		}
		// re-read to confirm our write is the one that stuck; a
		// concurrent stealer may have overwritten it in the meantime
		idx2, row2, err := lm.lockRowIndex(key)
		if err != nil {
			return "", err
		}
		if idx2 != 0 && cell(row2, 1) == token {
			return token, nil
		}
		lm.sleep(backoff * time.Duration(attempt))
	}
	return "", rl.ErrNotLocked
}

// Release tombstones the lock, but only if token still matches the stored
// one. A mismatch means the lock expired and someone else took it - in
// that case releasing would clobber their lock, so it's a no-op.
func (lm *LockManager) Release(key, token string) error {
	idx, row, err := lm.lockRowIndex(key)
	if err != nil || idx == 0 {
		return err
	}
	if cell(row, 1) != token {
		return nil
	}
	past := lm.now().Add(-tombstoneSkew).UTC().Format(time.RFC3339)
	return lm.rs.UpdateRange(lm.table, idx, 2, []string{"", "", past})
}

// Renew extends a held lock's expiry by ttl from now. Renewal is its own
// operation rather than an overload of Acquire - a holder that lets the
// lock expire has lost it and must go through Acquire again.
func (lm *LockManager) Renew(key, token string, ttl time.Duration) error {
	idx, row, err := lm.lockRowIndex(key)
	if err != nil {
		return err
	}
	if idx == 0 || cell(row, 1) != token || lm.expired(cell(row, 3)) {
		return rl.ErrNotLocked
	}
	expiresAt := lm.now().Add(ttl).UTC().Format(time.RFC3339)
	return lm.rs.UpdateRange(lm.table, idx, 4, []string{expiresAt})
}
