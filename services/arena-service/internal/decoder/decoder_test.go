package decoder

import (
	"fmt"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/burakmert236/arenaview/common/errors"
	"github.com/burakmert236/arenaview/common/models"
)

const fullDocument = `{
	"id": "wkDsWQ1n",
	"nbPlayers": 4,
	"duels": [{"id": "g1", "p": [{"n": "Alice"}, {"n": "bob"}]}],
	"secondsToFinish": 1200,
	"isStarted": true,
	"featured": {"id": "g1", "fen": "8/8/8/8/8/8/8/8 w - - 0 1"},
	"me": {"rank": 99},
	"ongoingUserGames": "Alice&bob/g1,carol&Dave/g2",
	"standing": [
		{"name": "Alice", "rating": 2100, "sheet": {"scores": "4420", "fire": true}, "team": "red"},
		{"name": "bob", "rank": 17, "rating": 1800, "withdraw": true, "sheet": {"scores": "20"}, "team": "blue"},
		{"name": "carol", "sheet": {"scores": "0"}, "pauseDelay": 42, "team": "red"},
		{"name": "Dave", "sheet": {"scores": ""}, "withdraw": true, "pauseDelay": null, "flair": "x"}
	],
	"teamStanding": [
		{"id": "red", "rank": 1, "score": 12, "players": [{"user": {"name": "Alice"}, "score": 8}]},
		{"id": "blue", "rank": 2, "score": 2}
	]
}`

func TestDecodeFullDocument(t *testing.T) {
	s, err := Decode([]byte(fullDocument))
	require.NoError(t, err)

	assert.Equal(t, models.ArenaID("wkDsWQ1n"), s.ID())
	require.Len(t, s.Players(), 4)

	t.Run("rank from order", func(t *testing.T) {
		for i, p := range s.Players() {
			assert.Equal(t, models.Rank(i+1), p.Rank)
			entry, ok := s.Lookup(p.Name.ToID())
			require.True(t, ok)
			assert.Equal(t, p.Rank, entry.Rank)
		}
	})

	t.Run("derived sets", func(t *testing.T) {
		for _, p := range s.Players() {
			assert.Equal(t, p.Withdraw, s.IsWithdrawn(p.Name.ToID()), p.Name)
		}
		assert.True(t, s.IsWithdrawn("bob"))
		assert.True(t, s.IsWithdrawn("dave"))

		pause, ok := s.Pause("carol")
		require.True(t, ok)
		assert.Equal(t, models.PauseSeconds(42), pause)
		_, ok = s.Pause("dave")
		assert.False(t, ok, "a null pause is no pause")
	})

	t.Run("ongoing games", func(t *testing.T) {
		for uid, want := range map[models.UserID]models.GameID{
			"alice": "g1", "bob": "g1", "carol": "g2", "dave": "g2",
		} {
			got, ok := s.OngoingGame(uid)
			require.True(t, ok, uid)
			assert.Equal(t, want, got)
		}
	})

	t.Run("teams", func(t *testing.T) {
		require.True(t, s.HasTeamStanding())
		red, ok := s.Team("red")
		require.True(t, ok)
		assert.Equal(t, models.Rank(1), red.Rank)
		assert.JSONEq(t, `{"score":12,"players":[{"user":{"name":"Alice"},"score":8}]}`, string(red.Extra))

		entry, _ := s.Lookup("alice")
		assert.Equal(t, models.TeamID("red"), entry.Team)
	})

	t.Run("pass-through", func(t *testing.T) {
		out, err := json.Marshal(s.Shared())
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"nbPlayers": 4,
			"duels": [{"id": "g1", "p": [{"n": "Alice"}, {"n": "bob"}]}],
			"secondsToFinish": 1200,
			"isStarted": true,
			"featured": {"id": "g1", "fen": "8/8/8/8/8/8/8/8 w - - 0 1"}
		}`, string(out))

		bob := s.Players()[1]
		assert.JSONEq(t, `{"rating":1800}`, string(bob.Extra), "wire rank is dropped")

		dave := s.Players()[3]
		assert.Nil(t, dave.PauseDelay)
		assert.JSONEq(t, `{"flair":"x"}`, string(dave.Extra))
	})
}

func TestDecodeMinimalDocument(t *testing.T) {
	s, err := Decode([]byte(`{"id":"abcdefgh"}`))
	require.NoError(t, err)

	assert.Empty(t, s.Players())
	assert.False(t, s.HasTeamStanding())
	out, err := json.Marshal(s.Shared())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))

	s, err = Decode([]byte(`{"id":"abcdefgh","teamStanding":null,"ongoingUserGames":""}`))
	require.NoError(t, err)
	assert.False(t, s.HasTeamStanding())
}

func TestDecodeRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{"id":`},
		{name: "array", doc: `[1,2]`},
		{name: "null", doc: `null`},
		{name: "missing id", doc: `{"nbPlayers":0}`},
		{name: "empty id", doc: `{"id":""}`},
		{name: "numeric id", doc: `{"id":42}`},
		{name: "bad ongoing games", doc: `{"id":"a","ongoingUserGames":"bad"}`},
		{name: "ongoing games not a string", doc: `{"id":"a","ongoingUserGames":{"alice":"g1"}}`},
		{name: "standing not a list", doc: `{"id":"a","standing":{"name":"alice"}}`},
		{name: "player without name", doc: `{"id":"a","standing":[{"sheet":{"scores":""}}]}`},
		{name: "null player", doc: `{"id":"a","standing":[null]}`},
		{name: "pause not a number", doc: `{"id":"a","standing":[{"name":"x","pauseDelay":"soon"}]}`},
		{name: "team standing not a list", doc: `{"id":"a","teamStanding":"red"}`},
		{name: "team without id", doc: `{"id":"a","teamStanding":[{"rank":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeObjectUnmarshalError), err.Error())
		})
	}
}

func TestParseOngoingGames(t *testing.T) {
	games, err := ParseOngoingGames("alice&bob/g1,carol&dave/g2")
	require.NoError(t, err)
	assert.Equal(t, map[models.UserID]models.GameID{
		"alice": "g1", "bob": "g1", "carol": "g2", "dave": "g2",
	}, games)

	games, err = ParseOngoingGames("")
	require.NoError(t, err)
	assert.Empty(t, games)

	games, err = ParseOngoingGames("Alice&BOB/AbCd1234")
	require.NoError(t, err)
	assert.Equal(t, models.GameID("AbCd1234"), games["alice"], "game ids keep their case")
	assert.Equal(t, models.GameID("AbCd1234"), games["bob"])

	for _, bad := range []string{
		"bad",
		"alice&bob",
		"alice/g1",
		"alice&bob/",
		"&bob/g1",
		"alice&/g1",
		"alice&bob/g1,",
		"alice&bob/g1,carol",
		"a&b&c/g",
		"a&b/g/h",
	} {
		t.Run(bad, func(t *testing.T) {
			_, err := ParseOngoingGames(bad)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeObjectUnmarshalError))
		})
	}
}

func TestDecodeLargeStanding(t *testing.T) {
	const n = 1500

	var b strings.Builder
	b.WriteString(`{"id":"marathon","standing":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"name":"Player%d","sheet":{"scores":"%d"},"withdraw":%t}`, i, i%5, i%7 == 0)
	}
	b.WriteString(`]}`)

	s, err := Decode([]byte(b.String()))
	require.NoError(t, err)
	require.Equal(t, n, s.NbPlayers())

	for i, p := range s.Players() {
		require.Equal(t, models.Rank(i+1), p.Rank)
		require.Equal(t, i%7 == 0, s.IsWithdrawn(p.Name.ToID()), p.Name)
	}

	entry, ok := s.Lookup("player1499")
	require.True(t, ok)
	assert.Equal(t, models.Rank(1500), entry.Rank)
}
