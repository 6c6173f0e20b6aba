package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/ansuz/internal/retry"
)

// Status is the lifecycle state of a cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// EventType classifies cache transitions published to observers.
type EventType string

const (
	EventUpdated     EventType = "content.updated"
	EventFailed      EventType = "content.failed"
	EventInvalidated EventType = "content.invalidated"
)

// Event describes one cache transition.
type Event struct {
	Type EventType
	Key  Key
}

// StaleForever disables refetching entirely: once fetched, data is served
// from cache until explicitly invalidated.
const StaleForever time.Duration = -1

// Options configure a single Fetch call. Zero fields fall back to the
// cache-wide defaults.
type Options struct {
	StaleTime time.Duration
	Retry     *retry.Policy
}

// Config holds cache-wide defaults.
type Config struct {
	// StaleTime is the default freshness window for fetched data.
	StaleTime time.Duration
	// GCWindow is how long an entry may go unaccessed before eviction.
	GCWindow time.Duration
	// Retry is the default fetch retry policy.
	Retry retry.Policy
	// OnEvent, if set, observes every cache transition. It is called
	// outside the cache lock and must not block.
	OnEvent func(Event)
}

// Cache is the process-wide keyed content cache. All consumers share one
// instance so independent subsystems observe the same server-backed data.
//
// Entry data transitions only via successful fetch resolution; it is never
// mutated by consumers directly. Writes become visible to readers through
// Invalidate, which marks entries stale rather than deleting them, so an
// in-flight stale fetch can never overwrite freshly invalidated state (a
// per-flight sequence number is checked against the entry's barrier at
// commit time).
type Cache struct {
	cfg Config

	mu      sync.Mutex
	entries map[string]*entry
	flights map[string]*flight
	group   singleflight.Group
	seq     uint64

	// now is swapped in tests to control staleness windows.
	now func() time.Time
}

type entry struct {
	key        Key
	data       any
	hasData    bool
	err        error
	status     Status
	stale      bool
	fetchedAt  time.Time
	lastAccess time.Time
	committed  uint64 // sequence of the last committed resolution
	barrier    uint64 // resolutions below this sequence are discarded
}

type flight struct {
	seq     uint64
	sfKey   string
	cancel  context.CancelFunc
	ctx     context.Context
	waiters int
	done    bool
}

// New creates a Cache with the given defaults.
func New(cfg Config) *Cache {
	if cfg.StaleTime == 0 {
		cfg.StaleTime = time.Minute
	}
	if cfg.GCWindow == 0 {
		cfg.GCWindow = 5 * time.Minute
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	return &Cache{
		cfg:     cfg,
		entries: make(map[string]*entry),
		flights: make(map[string]*flight),
		seq:     1,
		now:     time.Now,
	}
}

// Fetch returns the cached value for key when it is fresh, and otherwise
// fetches through fn. Concurrent callers for the same key share one
// in-flight request. A caller whose ctx is cancelled before resolution gets
// ctx.Err(); if it was the last waiter the fetch itself is cancelled and
// its result never written to the entry.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error), opts Options) (T, error) {
	var zero T
	ck := key.canonical()

	staleTime := opts.StaleTime
	if staleTime == 0 {
		staleTime = c.cfg.StaleTime
	}
	policy := c.cfg.Retry
	if opts.Retry != nil {
		policy = *opts.Retry
	}

	c.mu.Lock()
	e := c.ensureEntry(ck, key)
	e.lastAccess = c.now()

	if e.status == StatusSuccess && !e.stale {
		if staleTime == StaleForever || c.now().Sub(e.fetchedAt) < staleTime {
			data, ok := e.data.(T)
			if !ok {
				err := fmt.Errorf("query: key %s: cached value is %T, not %T", key, e.data, zero)
				c.mu.Unlock()
				return zero, err
			}
			c.mu.Unlock()
			return data, nil
		}
	}

	f := c.flights[ck]
	if f == nil || f.seq < e.barrier || f.done {
		seq := c.seq
		c.seq++
		// The flight outlives any single caller; it is cancelled only when
		// the last waiter departs.
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{
			seq:    seq,
			sfKey:  ck + "#" + strconv.FormatUint(seq, 10),
			ctx:    fctx,
			cancel: cancel,
		}
		c.flights[ck] = f
		e.status = StatusLoading
	}
	f.waiters++
	// Register with singleflight before releasing the lock. commit marks the
	// flight done under the same lock, so a flight observed here as not done
	// still has its call registered: DoChan joins it instead of re-executing
	// the fetch on the flight's already-cancelled context.
	ch := c.group.DoChan(f.sfKey, func() (any, error) {
		var out T
		err := retry.Do(f.ctx, policy, func(rctx context.Context) error {
			v, ferr := fn(rctx)
			if ferr == nil {
				out = v
			}
			return ferr
		})
		c.commit(ck, f, out, err)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		c.leaveFlight(ck, f)
		return zero, ctx.Err()
	case res := <-ch:
		c.leaveFlight(ck, f)
		if res.Err != nil {
			return zero, res.Err
		}
		data, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("query: key %s: fetched value is %T, not %T", key, res.Val, zero)
		}
		return data, nil
	}
}

// Invalidate marks entries stale so their next access refetches regardless
// of the staleness window, and raises the commit barrier so any in-flight
// fetch issued before the invalidation is discarded on resolution.
func (c *Cache) Invalidate(keys ...Key) {
	var events []Event
	c.mu.Lock()
	for _, k := range keys {
		e := c.entries[k.canonical()]
		if e == nil {
			continue
		}
		e.stale = true
		e.barrier = c.seq
		events = append(events, Event{Type: EventInvalidated, Key: e.key})
	}
	c.mu.Unlock()
	c.emit(events...)
}

// Inspect reports the entry's current data and status without touching the
// staleness or access bookkeeping. Primarily for observability and tests.
func (c *Cache) Inspect(key Key) (data any, status Status, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key.canonical()]
	if e == nil {
		return nil, StatusIdle, false
	}
	return e.data, e.status, true
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartGC evicts entries unaccessed for the GC window until ctx is
// cancelled. Entries with an active fetch are never evicted.
func (c *Cache) StartGC(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(c.cfg.GCWindow / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.collect(); n > 0 {
				logger.Debug("cache: evicted entries", slog.Int("count", n))
			}
		}
	}
}

// collect performs one eviction pass and returns how many entries were
// dropped.
func (c *Cache) collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.cfg.GCWindow)
	n := 0
	for ck, e := range c.entries {
		if _, inFlight := c.flights[ck]; inFlight {
			continue
		}
		if e.lastAccess.Before(cutoff) {
			delete(c.entries, ck)
			n++
		}
	}
	return n
}

func (c *Cache) ensureEntry(ck string, key Key) *entry {
	e := c.entries[ck]
	if e == nil {
		e = &entry{key: key, status: StatusIdle}
		c.entries[ck] = e
	}
	return e
}

// commit applies a flight's resolution to the entry. Resolutions that were
// superseded (by a newer commit or an invalidation barrier) or cancelled
// are discarded: out-of-order responses never clobber newer data.
func (c *Cache) commit(ck string, f *flight, data any, err error) {
	defer f.cancel()

	var events []Event
	c.mu.Lock()
	f.done = true
	if c.flights[ck] == f {
		delete(c.flights, ck)
	}
	e := c.entries[ck]
	if e == nil {
		c.mu.Unlock()
		return
	}

	discard := f.seq < e.barrier || f.seq <= e.committed
	cancelled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	switch {
	case discard || cancelled:
		// Leave the entry as it was before the flight started.
		if e.status == StatusLoading {
			if e.hasData {
				e.status = StatusSuccess
			} else if e.err != nil {
				e.status = StatusError
			} else {
				e.status = StatusIdle
			}
		}
	case err != nil:
		e.committed = f.seq
		e.err = err
		e.status = StatusError
		events = append(events, Event{Type: EventFailed, Key: e.key})
	default:
		e.committed = f.seq
		e.data = data
		e.hasData = true
		e.err = nil
		e.status = StatusSuccess
		e.stale = false
		e.fetchedAt = c.now()
		events = append(events, Event{Type: EventUpdated, Key: e.key})
	}
	c.mu.Unlock()
	c.emit(events...)
}

// leaveFlight drops one waiter; the last waiter out cancels an unfinished
// fetch so its response is never processed.
func (c *Cache) leaveFlight(ck string, f *flight) {
	c.mu.Lock()
	f.waiters--
	cancel := f.waiters <= 0 && !f.done
	c.mu.Unlock()
	if cancel {
		f.cancel()
	}
}

func (c *Cache) emit(events ...Event) {
	if c.cfg.OnEvent == nil {
		return
	}
	for _, ev := range events {
		c.cfg.OnEvent(ev)
	}
}
