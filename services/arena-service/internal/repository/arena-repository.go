package repository

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/burakmert236/arenaview/common/logger"
	"github.com/burakmert236/arenaview/common/models"
)

const (
	DefaultCapacity = 1024
	DefaultTTL      = 4 * time.Second

	// reads refresh an entry's recency at most this often
	touchResolution = time.Millisecond
)

type Config struct {
	Capacity int
	TTL      time.Duration
}

type arenaEntry struct {
	snapshot *models.Snapshot
	expires  int64
	accessed atomic.Int64
}

func (e *arenaEntry) expired(now int64) bool {
	return now >= e.expires
}

// ArenaRepository keeps the latest snapshot of every arena in memory for
// a fixed time after it was stored. Reads never take a lock; writers only
// meet on the same key, or while evicting.
type ArenaRepository struct {
	entries  *xsync.MapOf[models.ArenaID, *arenaEntry]
	capacity int
	ttl      time.Duration
	logger   *logger.Logger

	evictMu   sync.Mutex
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewArenaRepository starts a background sweep of expired entries; call
// Close to stop it.
func NewArenaRepository(cfg Config, log *logger.Logger) *ArenaRepository {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	r := &ArenaRepository{
		entries:  xsync.NewMapOf[models.ArenaID, *arenaEntry](),
		capacity: cfg.Capacity,
		ttl:      cfg.TTL,
		logger:   log.With("component", "ArenaRepository"),
		done:     make(chan struct{}),
	}

	r.wg.Add(1)
	go r.sweepLoop()

	r.logger.Info("Arena cache ready",
		"capacity", cfg.Capacity,
		"ttl", cfg.TTL,
	)

	return r
}

// Get returns the cached snapshot, or false when it is absent or expired.
func (r *ArenaRepository) Get(id models.ArenaID) (*models.Snapshot, bool) {
	e, ok := r.entries.Load(id)
	if !ok {
		return nil, false
	}

	now := time.Now().UnixNano()
	if e.expired(now) {
		return nil, false
	}
	if now-e.accessed.Load() > int64(touchResolution) {
		e.accessed.Store(now)
	}
	return e.snapshot, true
}

// Put stores s under its own id, replacing any previous snapshot and
// restarting its time to live.
func (r *ArenaRepository) Put(s *models.Snapshot) {
	now := time.Now().UnixNano()
	e := &arenaEntry{snapshot: s, expires: now + int64(r.ttl)}
	e.accessed.Store(now)

	_, replaced := r.entries.LoadAndStore(s.ID(), e)
	if !replaced && r.entries.Size() > r.capacity {
		r.evict(now, e)
	}
}

// Len counts stored entries, including expired ones not yet swept.
func (r *ArenaRepository) Len() int {
	return r.entries.Size()
}

// Close stops the sweeper. It is safe to call more than once.
func (r *ArenaRepository) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

// evict drops expired entries, then the least recently read ones, until the
// cache is back within capacity. inserted is never chosen.
func (r *ArenaRepository) evict(now int64, inserted *arenaEntry) {
	r.evictMu.Lock()
	defer r.evictMu.Unlock()

	r.sweep(now)

	for r.entries.Size() > r.capacity {
		var (
			victimID models.ArenaID
			victim   *arenaEntry
		)
		r.entries.Range(func(id models.ArenaID, e *arenaEntry) bool {
			if e != inserted && (victim == nil || e.accessed.Load() < victim.accessed.Load()) {
				victimID, victim = id, e
			}
			return true
		})
		if victim == nil {
			return
		}
		if r.deleteIf(victimID, victim) {
			r.logger.Debug("Arena evicted", "arena_id", victimID, "reason", "capacity")
		}
	}
}

func (r *ArenaRepository) sweep(now int64) {
	r.entries.Range(func(id models.ArenaID, e *arenaEntry) bool {
		if e.expired(now) && r.deleteIf(id, e) {
			r.logger.Debug("Arena evicted", "arena_id", id, "reason", "expired")
		}
		return true
	})
}

func (r *ArenaRepository) sweepLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.evictMu.Lock()
			r.sweep(time.Now().UnixNano())
			r.evictMu.Unlock()
		}
	}
}

// deleteIf removes id only while it still maps to e, so a concurrent Put of
// a fresh snapshot is never lost.
func (r *ArenaRepository) deleteIf(id models.ArenaID, e *arenaEntry) bool {
	deleted := false
	r.entries.Compute(id, func(old *arenaEntry, loaded bool) (*arenaEntry, bool) {
		if !loaded {
			// nothing to delete, and storing old would insert a nil
			return old, true
		}
		deleted = old == e
		return old, deleted
	})
	return deleted
}
