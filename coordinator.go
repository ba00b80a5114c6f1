package main

import (
	"hash/fnv"
	"log"
	"sync"
	"time"

	"rowlock/rl"
)

const mCount = 100

// Coordinator runs the commit protocol:
//
//	load -> (caller mutates) -> lock -> version check -> overwrite ->
//	version bump -> unlock
//
// The lock and the version counter are purely cooperative - nothing in the
// backing store enforces either. A client that commits with useLock=false
// or ignores the version it loaded can silently corrupt state; that's the
// documented cost of a store without transactions, not a bug here.
type Coordinator struct {
	versions *VersionStore
	locks    *LockManager
	records  *RecordStore
	notify   *notifier

	retries int
	backoff time.Duration

	// serializes in-process work per partition key. Cross-process safety
	// still comes from the lock + version check; this just stops one
	// process from racing itself over the network.
	kmu []*kmutex
}

func NewCoordinator(versions *VersionStore, locks *LockManager, records *RecordStore, retries int, backoff time.Duration) *Coordinator {
	c := &Coordinator{
		versions: versions,
		locks:    locks,
		records:  records,
		notify:   newNotifier(),
		retries:  retries,
		backoff:  backoff,
	}
	for i := 0; i < mCount; i++ {
		c.kmu = append(c.kmu, newLocker())
	}
	return c
}

func keyHash(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}

// Load returns the partition state and the version it was read at. Reads
// take no lock: a concurrent commit's delete-then-append can only be seen
// as its pre- or post-state per row scan, so callers get an eventually
// consistent snapshot, not a linearizable one.
func (c *Coordinator) Load(key string) (PartitionState, int64, error) {
	st, err := c.records.Load(key)
	if err != nil {
		return nil, 0, err
	}
	ver, err := c.versions.GetVersion(key)
	if err != nil {
		return nil, 0, err
	}
	return st, ver, nil
}

// Commit overwrites the partition if the caller's expectedVersion still
// matches the stored one. reason is rl.ReasonLockFail or rl.ReasonConflict
// on the two structured failures; transport errors come back as err with
// no partial version bump. The lock, once acquired, is released on every
// exit path.
func (c *Coordinator) Commit(key string, st PartitionState, expectedVersion int64, holder string, useLock bool, ttl time.Duration) (ok bool, reason string, err error) {
	kid := keyHash(key)
	c.kmu[kid%mCount].Lock(kid)
	defer c.kmu[kid%mCount].Unlock(kid)

	if useLock {
		token, lerr := c.locks.Acquire(key, holder, ttl, c.retries, c.backoff)
		if lerr == rl.ErrNotLocked {
			return false, rl.ReasonLockFail, nil
		}
		if lerr != nil {
			return false, "", lerr
		}
		defer func() {
			if rerr := c.locks.Release(key, token); rerr != nil {
				log.Print("failed to release lock for ", key, ": ", rerr)
			}
		}()
	}

	current, err := c.versions.GetVersion(key)
	if err != nil {
		return false, "", err
	}
	if current != expectedVersion {
		return false, rl.ReasonConflict, nil
	}
	if err := c.records.Save(key, st); err != nil {
		return false, "", err
	}
	if err := c.versions.SetVersion(key, current+1); err != nil {
		return false, "", err
	}
	c.notify.NotifyVersion(key, current+1)
	return true, "", nil
}

// Watch blocks until the stored version for key moves past ver or wait
// seconds elapse. Returns the new version, or -1 on timeout. Only commits
// through this process wake watchers - it's a cheap refresh hint, not a
// replication stream.
func (c *Coordinator) Watch(key string, ver int64, wait int) int64 {
	c.notify.Attach(key)
	return c.notify.Listen(key, ver, wait)
}

// Close stops the notifier and unblocks any in-flight Watch calls. The
// coordinator must not be used afterwards.
func (c *Coordinator) Close() {
	c.notify.stop()
}

// keyed mutex: one logical mutex per uint64 key, sharded into mCount
// instances by hash
type kmutex struct {
	c *sync.Cond
	l sync.Locker
	s map[uint64]struct{}
}

func newLocker() *kmutex {
	l := sync.Mutex{}
	return &kmutex{c: sync.NewCond(&l), l: &l, s: make(map[uint64]struct{})}
}

func (km *kmutex) locked(key uint64) (ok bool) {
	_, ok = km.s[key]
	return
}

func (km *kmutex) Unlock(key uint64) {
	km.l.Lock()
	defer km.l.Unlock()
	delete(km.s, key)
	km.c.Broadcast()
}

func (km *kmutex) Lock(key uint64) {
	km.l.Lock()
	defer km.l.Unlock()
	for km.locked(key) {
		km.c.Wait()
	}
	km.s[key] = struct{}{}
}
