package main

import (
	"sync"
	"time"
)

// notifier wakes long-poll watchers when a partition's version moves.
// Purely in-process: commits made by other processes against the same
// datastore are invisible here, callers still have to reload eventually.

type watchRecord struct {
	version   int64
	bumped    bool // a commit happened since the first Attach
	listeners int
}

type notifier struct {
	c       *sync.Cond
	l       sync.Locker
	s       map[string]*watchRecord
	done    chan struct{}
	stopped bool
}

func newNotifier() *notifier {
	l := sync.Mutex{}
	n := &notifier{
		c:    sync.NewCond(&l),
		l:    &l,
		s:    make(map[string]*watchRecord),
		done: make(chan struct{}),
	}
	go func() {
		// periodic broadcast so listeners can notice their own timeout
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				n.l.Lock()
				n.c.Broadcast()
				n.l.Unlock()
			case <-n.done:
				return
			}
		}
	}()
	return n
}

// stop shuts the ticker goroutine down and unblocks every listener
func (n *notifier) stop() {
	n.l.Lock()
	if n.stopped {
		n.l.Unlock()
		return
	}
	n.stopped = true
	close(n.done)
	n.c.Broadcast()
	n.l.Unlock()
}

func (n *notifier) NotifyVersion(key string, ver int64) {
	n.l.Lock()
	defer n.l.Unlock()
	v, ok := n.s[key]
	if !ok { // no listeners - no need to notify
		return
	}
	v.version = ver
	v.bumped = true
	n.c.Broadcast()
}

// Attach must be called before the caller re-checks the stored version,
// so a commit landing between that check and Listen isn't lost.
func (n *notifier) Attach(key string) {
	n.l.Lock()
	defer n.l.Unlock()
	v, ok := n.s[key]
	if !ok {
		n.s[key] = &watchRecord{listeners: 1}
		return
	}
	v.listeners++
}

// Listen blocks until the version for key moves past ver, dur seconds
// pass, or the notifier is stopped. Returns the new version, or -1.
func (n *notifier) Listen(key string, ver int64, dur int) int64 {
	deadline := time.Now().Add(time.Duration(dur) * time.Second)
	n.l.Lock()
	defer n.l.Unlock()
	for {
		v, ok := n.s[key]
		if !ok {
			return -1
		}
		if v.bumped && v.version != ver {
			n.detach(key, v)
			return v.version
		}
		if n.stopped || !time.Now().Before(deadline) {
			n.detach(key, v)
			return -1
		}
		n.c.Wait()
	}
}

func (n *notifier) detach(key string, v *watchRecord) {
	v.listeners--
	if v.listeners <= 0 {
		delete(n.s, key) // no one listening - free up RAM
	}
}
