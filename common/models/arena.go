package models

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/burakmert236/arenaview/common/utils"
)

// ArenaID identifies one running tournament.
type ArenaID string

// UserName is a display name as it appears in standings and query strings.
type UserName string

// UserID is the case-folded form of a UserName and keys every per-user map.
type UserID string

type GameID string

type TeamID string

// Rank is the 1-based position in the standing.
type Rank int

// PauseSeconds is forwarded as received; nothing in this service does
// arithmetic on it.
type PauseSeconds int

func (n UserName) ToID() UserID {
	return UserID(strings.ToLower(string(n)))
}

type Sheet struct {
	Scores string `json:"scores"`
	Fire   bool   `json:"fire,omitempty"`
}

type Player struct {
	Name       UserName      `json:"name"`
	Rank       Rank          `json:"rank"`
	Withdraw   bool          `json:"withdraw,omitempty"`
	Sheet      Sheet         `json:"sheet"`
	Team       TeamID        `json:"team,omitempty"`
	PauseDelay *PauseSeconds `json:"pauseDelay,omitempty"`

	// Extra holds every wire key this service does not model, as a JSON
	// object. It is merged back next to the known keys when encoding.
	Extra json.RawMessage `json:"-"`
}

type playerFields Player

func (p Player) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(playerFields(p))
	if err != nil {
		return nil, err
	}
	return utils.MergeJSONObjects(known, p.Extra), nil
}

type Team struct {
	ID    TeamID          `json:"id"`
	Rank  Rank            `json:"rank"`
	Extra json.RawMessage `json:"-"`
}

type teamFields Team

func (t Team) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(teamFields(t))
	if err != nil {
		return nil, err
	}
	return utils.MergeJSONObjects(known, t.Extra), nil
}

// Shared holds the tournament-wide attributes. They are encoded once when
// the snapshot is built and every response reuses those bytes.
type Shared struct {
	encoded json.RawMessage
}

func NewShared(fields map[string]json.RawMessage) (*Shared, error) {
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return &Shared{encoded: encoded}, nil
}

func (s *Shared) MarshalJSON() ([]byte, error) {
	return s.encoded, nil
}
