package auth

import (
	"sync"
	"time"
)

// limiter locks a username after too many failed logins inside a window.
// State is in memory only; a restart forgets it.
type limiter struct {
	max     int
	window  time.Duration
	lockout time.Duration
	now     func() time.Time

	mu    sync.Mutex
	state map[string]*attempts
	// sweepAt is the map size that triggers the next prune.
	sweepAt int
}

const minSweep = 1024

type attempts struct {
	first  time.Time
	fails  int
	lockAt time.Time
}

func newLimiter(max int, window, lockout time.Duration, now func() time.Time) *limiter {
	return &limiter{
		max:     max,
		window:  window,
		lockout: lockout,
		now:     now,
		state:   map[string]*attempts{},
		sweepAt: minSweep,
	}
}

func (l *limiter) enabled() bool { return l.max > 0 }

// locked reports whether username is currently refused.
func (l *limiter) locked(username string) bool {
	if !l.enabled() {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.state[username]
	if !ok || a.lockAt.IsZero() {
		return false
	}
	if l.now().Sub(a.lockAt) >= l.lockout {
		delete(l.state, username)
		return false
	}
	return true
}

// fail records a failed attempt and reports whether it tripped the lock.
func (l *limiter) fail(username string) bool {
	if !l.enabled() {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.state) >= l.sweepAt {
		l.prune(now)
	}
	a, ok := l.state[username]
	if !ok || now.Sub(a.first) > l.window {
		a = &attempts{first: now}
		l.state[username] = a
	}
	a.fails++
	if a.fails >= l.max && a.lockAt.IsZero() {
		a.lockAt = now
		return true
	}
	return false
}

// prune drops entries whose window and lockout have both run out. The next
// sweep waits until the map doubles, so the cost stays amortized.
func (l *limiter) prune(now time.Time) {
	for name, a := range l.state {
		if a.lockAt.IsZero() {
			if now.Sub(a.first) > l.window {
				delete(l.state, name)
			}
		} else if now.Sub(a.lockAt) >= l.lockout {
			delete(l.state, name)
		}
	}
	l.sweepAt = max(2*len(l.state), minSweep)
}

func (l *limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.state)
}

func (l *limiter) reset(username string) {
	if !l.enabled() {
		return
	}
	l.mu.Lock()
	delete(l.state, username)
	l.mu.Unlock()
}
