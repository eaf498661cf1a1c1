package models

// PlayerEntry is what a personalized lookup needs to know about a user.
type PlayerEntry struct {
	Rank Rank
	Team TeamID
}

// Snapshot is the full state of one arena as last pushed. It is immutable
// once built: a newer document for the same arena replaces it as a whole.
//
// Every derived lookup is built by NewSnapshot from the players slice in a
// single pass, so they always agree with the standing.
type Snapshot struct {
	id      ArenaID
	shared  *Shared
	players []Player
	teams   []Team

	ongoingGames map[UserID]GameID
	playerIndex  map[UserID]PlayerEntry
	withdrawn    map[UserID]struct{}
	pauses       map[UserID]PauseSeconds
	teamIndex    map[TeamID]int
}

// NewSnapshot takes ownership of players and teams. Player ranks are
// overwritten with their position in the standing. A nil teams slice means
// the arena has no team standing.
func NewSnapshot(
	id ArenaID,
	shared *Shared,
	ongoingGames map[UserID]GameID,
	players []Player,
	teams []Team,
) *Snapshot {
	if shared == nil {
		shared, _ = NewShared(nil)
	}
	if ongoingGames == nil {
		ongoingGames = map[UserID]GameID{}
	}
	if players == nil {
		players = []Player{}
	}

	s := &Snapshot{
		id:           id,
		shared:       shared,
		players:      players,
		teams:        teams,
		ongoingGames: ongoingGames,
		playerIndex:  make(map[UserID]PlayerEntry, len(players)),
		withdrawn:    make(map[UserID]struct{}),
		pauses:       make(map[UserID]PauseSeconds),
	}

	for i := range players {
		p := &players[i]
		p.Rank = Rank(i + 1)

		uid := p.Name.ToID()
		s.playerIndex[uid] = PlayerEntry{Rank: p.Rank, Team: p.Team}
		if p.Withdraw {
			s.withdrawn[uid] = struct{}{}
		}
		if p.PauseDelay != nil {
			s.pauses[uid] = *p.PauseDelay
		}
	}

	if teams != nil {
		s.teamIndex = make(map[TeamID]int, len(teams))
		for i := range teams {
			if teams[i].Rank <= 0 {
				teams[i].Rank = Rank(i + 1)
			}
			s.teamIndex[teams[i].ID] = i
		}
	}

	return s
}

func (s *Snapshot) ID() ArenaID {
	return s.id
}

func (s *Snapshot) Shared() *Shared {
	return s.shared
}

// Players returns the standing, best first. Callers must not modify it.
func (s *Snapshot) Players() []Player {
	return s.players
}

func (s *Snapshot) NbPlayers() int {
	return len(s.players)
}

// TeamStanding returns nil when the arena is not a team battle.
func (s *Snapshot) TeamStanding() []Team {
	return s.teams
}

func (s *Snapshot) HasTeamStanding() bool {
	return s.teams != nil
}

func (s *Snapshot) Lookup(id UserID) (PlayerEntry, bool) {
	e, ok := s.playerIndex[id]
	return e, ok
}

func (s *Snapshot) IsWithdrawn(id UserID) bool {
	_, ok := s.withdrawn[id]
	return ok
}

func (s *Snapshot) Pause(id UserID) (PauseSeconds, bool) {
	p, ok := s.pauses[id]
	return p, ok
}

func (s *Snapshot) OngoingGame(id UserID) (GameID, bool) {
	g, ok := s.ongoingGames[id]
	return g, ok
}

func (s *Snapshot) Team(id TeamID) (Team, bool) {
	i, ok := s.teamIndex[id]
	if !ok {
		return Team{}, false
	}
	return s.teams[i], true
}
