package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/burakmert236/arenaview/common/logger"
	"github.com/burakmert236/arenaview/common/models"
)

func snapshot(id string, players ...models.UserName) *models.Snapshot {
	standing := make([]models.Player, len(players))
	for i, name := range players {
		standing[i] = models.Player{Name: name}
	}
	return models.NewSnapshot(models.ArenaID(id), nil, nil, standing, nil)
}

func newRepository(t *testing.T, cfg Config) *ArenaRepository {
	t.Helper()
	repo := NewArenaRepository(cfg, logger.Nop())
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestGetAfterPut(t *testing.T) {
	repo := newRepository(t, Config{TTL: time.Minute})

	_, ok := repo.Get("abcd1234")
	assert.False(t, ok)

	s := snapshot("abcd1234", "alice")
	repo.Put(s)

	got, ok := repo.Get("abcd1234")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, repo.Len())
}

func TestEntriesExpire(t *testing.T) {
	repo := newRepository(t, Config{TTL: 50 * time.Millisecond})

	repo.Put(snapshot("abcd1234"))
	_, ok := repo.Get("abcd1234")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := repo.Get("abcd1234")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestPutRestartsTTL(t *testing.T) {
	ttl := 200 * time.Millisecond
	repo := newRepository(t, Config{TTL: ttl})

	repo.Put(snapshot("abcd1234"))
	time.Sleep(ttl / 2)
	repo.Put(snapshot("abcd1234"))
	time.Sleep(ttl * 3 / 4)

	_, ok := repo.Get("abcd1234")
	assert.True(t, ok, "second put should have extended the entry")
}

func TestLastWriteWins(t *testing.T) {
	repo := newRepository(t, Config{TTL: time.Minute})

	s1 := snapshot("abcd1234", "alice")
	s2 := snapshot("abcd1234", "bob", "alice")
	repo.Put(s1)
	repo.Put(s2)

	got, ok := repo.Get("abcd1234")
	require.True(t, ok)
	assert.Same(t, s2, got)
	assert.Equal(t, 1, repo.Len())
}

func TestCapacityIsBounded(t *testing.T) {
	repo := newRepository(t, Config{Capacity: 8, TTL: time.Minute})

	for i := 0; i < 8; i++ {
		repo.Put(snapshot(fmt.Sprintf("arena%03d", i)))
	}

	// reads only refresh recency once the last stamp is a little stale
	time.Sleep(2 * touchResolution)
	_, ok := repo.Get("arena000")
	require.True(t, ok)

	repo.Put(snapshot("arena008"))

	assert.Equal(t, 8, repo.Len())
	_, ok = repo.Get("arena000")
	assert.True(t, ok, "recently read entry survives")
	_, ok = repo.Get("arena001")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = repo.Get("arena008")
	assert.True(t, ok, "just inserted entry survives")

	for i := 9; i < 100; i++ {
		repo.Put(snapshot(fmt.Sprintf("arena%03d", i)))
	}
	assert.LessOrEqual(t, repo.Len(), 8)
	_, ok = repo.Get("arena099")
	assert.True(t, ok)
}

func TestReplacingDoesNotEvict(t *testing.T) {
	repo := newRepository(t, Config{Capacity: 2, TTL: time.Minute})

	repo.Put(snapshot("arena000"))
	repo.Put(snapshot("arena001"))
	for i := 0; i < 10; i++ {
		repo.Put(snapshot("arena001"))
	}

	assert.Equal(t, 2, repo.Len())
	_, ok := repo.Get("arena000")
	assert.True(t, ok)
}

func TestExpiredEntriesAreEvictedFirst(t *testing.T) {
	repo := newRepository(t, Config{Capacity: 2, TTL: 30 * time.Millisecond})

	repo.Put(snapshot("arena000"))
	time.Sleep(40 * time.Millisecond)
	repo.Put(snapshot("arena001"))
	repo.Put(snapshot("arena002"))

	_, ok := repo.Get("arena001")
	assert.True(t, ok)
	_, ok = repo.Get("arena002")
	assert.True(t, ok)
	assert.LessOrEqual(t, repo.Len(), 2)
}

func TestSweepDropsExpiredEntries(t *testing.T) {
	repo := newRepository(t, Config{TTL: 20 * time.Millisecond})

	for i := 0; i < 10; i++ {
		repo.Put(snapshot(fmt.Sprintf("arena%03d", i)))
	}

	assert.Eventually(t, func() bool {
		return repo.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestGetDoesNotWaitForEviction(t *testing.T) {
	repo := newRepository(t, Config{TTL: time.Minute})
	repo.Put(snapshot("abcd1234"))

	repo.evictMu.Lock()
	defer repo.evictMu.Unlock()

	got := make(chan bool, 1)
	go func() {
		_, ok := repo.Get("abcd1234")
		got <- ok
	}()

	select {
	case ok := <-got:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Get blocked behind an eviction")
	}
}

func TestCloseStopsSweeper(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo := NewArenaRepository(Config{TTL: 10 * time.Millisecond}, logger.Nop())
	repo.Put(snapshot("abcd1234"))

	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())
}

func TestConcurrentReadersAndWriter(t *testing.T) {
	repo := newRepository(t, Config{Capacity: 128, TTL: time.Minute})

	ids := make([]string, 32)
	for i := range ids {
		ids[i] = fmt.Sprintf("arena%03d", i)
		repo.Put(snapshot(ids[i], "alice"))
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				s, ok := repo.Get(models.ArenaID(ids[(i+r)%len(ids)]))
				if ok {
					_, found := s.Lookup("alice")
					assert.True(t, found)
				}
			}
		}(r)
	}

	for round := 0; round < 200; round++ {
		for _, id := range ids {
			repo.Put(snapshot(id, "alice", "bob"))
		}
	}
	close(stop)
	wg.Wait()

	for _, id := range ids {
		s, ok := repo.Get(models.ArenaID(id))
		require.True(t, ok)
		assert.Equal(t, 2, s.NbPlayers())
	}
}
