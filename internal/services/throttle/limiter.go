// Package throttle protects the service from request floods with two
// independent gates: concurrency ceilings (global and per endpoint) that
// shed load once too many requests are in flight, and a bounded per-client
// request counter that cuts off abusive callers over a fixed window.
package throttle

import (
	"sync"
	"time"
)

// ConcurrencyLimiter counts in-flight requests globally and per endpoint.
type ConcurrencyLimiter struct {
	mu          sync.Mutex
	global      int
	globalMax   int
	perEndpoint map[string]int
	endpointMax int
}

// NewConcurrencyLimiter creates a limiter with the given ceilings. A ceiling
// of zero or less means unlimited for that dimension.
func NewConcurrencyLimiter(globalMax, endpointMax int) *ConcurrencyLimiter {
	return &ConcurrencyLimiter{
		globalMax:   globalMax,
		endpointMax: endpointMax,
		perEndpoint: make(map[string]int),
	}
}

// Acquire reserves a slot for the endpoint. When admitted it returns a
// release func the caller must invoke exactly once; when over a ceiling it
// returns ok=false and no slot is held.
func (l *ConcurrencyLimiter) Acquire(endpoint string) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.globalMax > 0 && l.global >= l.globalMax {
		return nil, false
	}
	if l.endpointMax > 0 && l.perEndpoint[endpoint] >= l.endpointMax {
		return nil, false
	}

	l.global++
	l.perEndpoint[endpoint]++

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.global--
			l.perEndpoint[endpoint]--
			if l.perEndpoint[endpoint] <= 0 {
				delete(l.perEndpoint, endpoint)
			}
			l.mu.Unlock()
		})
	}, true
}

// InFlight returns the current global in-flight count.
func (l *ConcurrencyLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.global
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

// ClientLimiter enforces a per-client request cap over a fixed window. The
// tracking map is bounded: when full, expired entries are evicted first,
// then the oldest entry.
type ClientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientWindow
	limit    int
	window   time.Duration
	maxEntry int
	now      func() time.Time
}

// NewClientLimiter creates a limiter allowing limit requests per window per
// client, tracking at most maxEntries clients.
func NewClientLimiter(limit int, window time.Duration, maxEntries int) *ClientLimiter {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &ClientLimiter{
		clients:  make(map[string]*clientWindow),
		limit:    limit,
		window:   window,
		maxEntry: maxEntries,
		now:      time.Now,
	}
}

// Allow records one request from the client and reports whether it is
// within the cap. A limit of zero or less disables the gate.
func (l *ClientLimiter) Allow(client string) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[client]
	if !ok || !now.Before(w.resetAt) {
		if !ok && len(l.clients) >= l.maxEntry {
			l.evict(now)
		}
		l.clients[client] = &clientWindow{count: 1, resetAt: now.Add(l.window)}
		return true
	}

	w.count++
	return w.count <= l.limit
}

// evict makes room for a new client: expired windows go first, then the
// window closest to expiry.
func (l *ClientLimiter) evict(now time.Time) {
	for key, w := range l.clients {
		if !now.Before(w.resetAt) {
			delete(l.clients, key)
		}
	}
	if len(l.clients) < l.maxEntry {
		return
	}

	var oldestKey string
	var oldest time.Time
	for key, w := range l.clients {
		if oldestKey == "" || w.resetAt.Before(oldest) {
			oldestKey = key
			oldest = w.resetAt
		}
	}
	delete(l.clients, oldestKey)
}

// Tracked returns the number of clients currently tracked.
func (l *ClientLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
