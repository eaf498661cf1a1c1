package view

import "github.com/burakmert236/arenaview/common/models"

const (
	PageSize         = 10
	TeamStandingSize = 10
)

// Project builds the view of s for one reader. page <= 0 selects the
// default page and an empty viewer is anonymous. It never fails and never
// modifies s.
func Project(s *models.Snapshot, page int, viewer models.UserID) *ClientView {
	v := &ClientView{shared: s.Shared()}

	entry, isPlayer := models.PlayerEntry{}, false
	if viewer != "" {
		entry, isPlayer = s.Lookup(viewer)
	}

	if isPlayer {
		v.Me = me(s, viewer, entry)
	}

	if page <= 0 {
		page = defaultPage(entry, isPlayer)
	}
	v.Standing = Standing{Page: page, Players: pageOf(s.Players(), page)}

	if s.HasTeamStanding() {
		teams := s.TeamStanding()
		v.TeamStanding = teams[:min(len(teams), TeamStandingSize):min(len(teams), TeamStandingSize)]
		if isPlayer {
			v.MyTeam = myTeam(s, entry.Team)
		}
	}

	return v
}

func me(s *models.Snapshot, viewer models.UserID, entry models.PlayerEntry) *Me {
	m := &Me{
		Rank:     entry.Rank,
		Withdraw: s.IsWithdrawn(viewer),
	}
	if game, ok := s.OngoingGame(viewer); ok {
		m.GameID = game
	}
	if pause, ok := s.Pause(viewer); ok {
		m.PauseDelay = &pause
	}
	return m
}

func defaultPage(entry models.PlayerEntry, isPlayer bool) int {
	if !isPlayer {
		return 1
	}
	return (int(entry.Rank) + PageSize - 1) / PageSize
}

// pageOf returns the page window of players. Pages past the end are empty.
// The result shares players' backing array and cannot be appended into it.
func pageOf(players []models.Player, page int) []models.Player {
	if page > (len(players)+PageSize-1)/PageSize {
		return []models.Player{}
	}
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(players))
	return players[start:end:end]
}

// myTeam returns the viewer's team when the truncated team standing hides it.
func myTeam(s *models.Snapshot, team models.TeamID) *models.Team {
	if team == "" || len(s.TeamStanding()) <= TeamStandingSize {
		return nil
	}
	t, ok := s.Team(team)
	if !ok || t.Rank <= TeamStandingSize {
		return nil
	}
	return &t
}
