package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/burakmert236/arenaview/common/errors"
	"github.com/burakmert236/arenaview/common/logger"
	"github.com/burakmert236/arenaview/common/models"
	"github.com/burakmert236/arenaview/services/arena-service/internal/metrics"
	"github.com/burakmert236/arenaview/services/arena-service/internal/repository"
)

const arenaDoc = `{
	"id": "wkDsWQ1n",
	"nbPlayers": 3,
	"ongoingUserGames": "Alice&bob/g1",
	"standing": [
		{"name": "Alice", "sheet": {"scores": "4"}},
		{"name": "bob", "sheet": {"scores": "2"}},
		{"name": "Carol", "sheet": {"scores": ""}, "withdraw": true}
	]
}`

func newTestService(t *testing.T, ttl time.Duration) ArenaService {
	t.Helper()
	repo := repository.NewArenaRepository(repository.Config{TTL: ttl}, logger.Nop())
	t.Cleanup(func() { _ = repo.Close() })
	return NewArenaService(repo, metrics.Discard(), logger.Nop())
}

func TestIngestThenView(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Minute)

	snapshot, err := svc.Ingest(ctx, []byte(arenaDoc))
	require.NoError(t, err)
	assert.Equal(t, models.ArenaID("wkDsWQ1n"), snapshot.ID())

	v, err := svc.GetView(ctx, "wkDsWQ1n", 0, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, v.Me, "viewer name is case-folded")
	assert.Equal(t, models.Rank(1), v.Me.Rank)
	assert.Equal(t, models.GameID("g1"), v.Me.GameID)

	v, err = svc.GetView(ctx, "wkDsWQ1n", 0, "carol")
	require.NoError(t, err)
	require.NotNil(t, v.Me)
	assert.True(t, v.Me.Withdraw)

	v, err = svc.GetView(ctx, "wkDsWQ1n", 0, "")
	require.NoError(t, err)
	assert.Nil(t, v.Me)
	assert.Len(t, v.Standing.Players, 3)

	assert.Equal(t, Stats{Entries: 1, Messages: 1}, svc.Stats())
}

func TestGetViewNotFound(t *testing.T) {
	svc := newTestService(t, time.Minute)

	v, err := svc.GetView(context.Background(), "missing1", 0, "")
	assert.Nil(t, v)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestGetViewAfterExpiry(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, 50 * time.Millisecond)

	_, err := svc.Ingest(ctx, []byte(arenaDoc))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := svc.GetView(ctx, "wkDsWQ1n", 0, "")
		return apperrors.HasCode(err, apperrors.CodeNotFound)
	}, time.Second, 10*time.Millisecond)
}

func TestIngestRejectsMalformedDocument(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Minute)

	_, err := svc.Ingest(ctx, []byte(`{"id":"wkDsWQ1n","ongoingUserGames":"bad"}`))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeObjectUnmarshalError))

	_, err = svc.GetView(ctx, "wkDsWQ1n", 0, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "a rejected document never reaches the cache")
	assert.Equal(t, Stats{DecodeErrors: 1}, svc.Stats())
}

func TestIngestReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Minute)

	_, err := svc.Ingest(ctx, []byte(arenaDoc))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, []byte(`{"id":"wkDsWQ1n","standing":[{"name":"Carol"},{"name":"Alice"}]}`))
	require.NoError(t, err)

	v, err := svc.GetView(ctx, "wkDsWQ1n", 0, "alice")
	require.NoError(t, err)
	require.NotNil(t, v.Me)
	assert.Equal(t, models.Rank(2), v.Me.Rank)
	assert.False(t, v.Me.Withdraw)
	assert.Empty(t, v.Me.GameID)
	assert.Equal(t, uint64(2), svc.Stats().Messages)
}
