package view

import (
	"github.com/goccy/go-json"

	"github.com/burakmert236/arenaview/common/models"
	"github.com/burakmert236/arenaview/common/utils"
)

// Me is the personalized block, present only for participants.
type Me struct {
	Rank       models.Rank          `json:"rank"`
	Withdraw   bool                 `json:"withdraw"`
	GameID     models.GameID        `json:"gameId,omitempty"`
	PauseDelay *models.PauseSeconds `json:"pauseDelay,omitempty"`
}

type Standing struct {
	Page    int             `json:"page"`
	Players []models.Player `json:"players"`
}

// ClientView is the response for one reader. It points into the snapshot
// it was projected from and owns only the small per-request parts.
type ClientView struct {
	shared *models.Shared

	Me           *Me           `json:"me,omitempty"`
	Standing     Standing      `json:"standing"`
	TeamStanding []models.Team `json:"teamStanding,omitempty"`
	MyTeam       *models.Team  `json:"myTeam,omitempty"`
}

type clientFields ClientView

// MarshalJSON writes the shared attributes at the top level, followed by
// the personalized fields.
func (v *ClientView) MarshalJSON() ([]byte, error) {
	personal, err := json.Marshal((*clientFields)(v))
	if err != nil {
		return nil, err
	}
	if v.shared == nil {
		return personal, nil
	}
	shared, err := v.shared.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return utils.MergeJSONObjects(shared, personal), nil
}

func (v *ClientView) Shared() *models.Shared {
	return v.shared
}
