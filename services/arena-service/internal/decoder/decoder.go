package decoder

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/burakmert236/arenaview/common/models"
	arenaerrors "github.com/burakmert236/arenaview/services/arena-service/internal/errors"
)

// Top-level keys of an arena document. Everything else is shared,
// tournament-wide data that is passed through untouched.
const (
	keyID           = "id"
	keyOngoingGames = "ongoingUserGames"
	keyStanding     = "standing"
	keyTeamStanding = "teamStanding"
)

// Keys the response adds next to the shared attributes.
var reservedKeys = []string{"me", "myTeam"}

// Decode parses one full arena document into a Snapshot. Any failure
// rejects the whole document.
func Decode(raw []byte) (*models.Snapshot, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, arenaerrors.DecodeFailed(err, "arena document is not a JSON object")
	}
	if doc == nil {
		return nil, arenaerrors.DecodeFailed(nil, "arena document is null")
	}

	var id models.ArenaID
	if err := takeField(doc, keyID, &id); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, arenaerrors.DecodeFailed(nil, "arena document has no id")
	}

	var encodedGames string
	if err := takeField(doc, keyOngoingGames, &encodedGames); err != nil {
		return nil, err
	}
	games, err := ParseOngoingGames(encodedGames)
	if err != nil {
		return nil, err
	}

	var rawPlayers []map[string]json.RawMessage
	if err := takeField(doc, keyStanding, &rawPlayers); err != nil {
		return nil, err
	}
	players := make([]models.Player, len(rawPlayers))
	for i, fields := range rawPlayers {
		if err := decodePlayer(fields, &players[i]); err != nil {
			return nil, arenaerrors.DecodeFailed(err, fmt.Sprintf("standing[%d]", i))
		}
	}

	var teams []models.Team
	rawTeams, present := doc[keyTeamStanding]
	delete(doc, keyTeamStanding)
	if present && !isNull(rawTeams) {
		var teamFields []map[string]json.RawMessage
		if err := json.Unmarshal(rawTeams, &teamFields); err != nil {
			return nil, arenaerrors.DecodeFailed(err, "teamStanding is not a list")
		}
		teams = make([]models.Team, len(teamFields))
		for i, fields := range teamFields {
			if err := decodeTeam(fields, &teams[i]); err != nil {
				return nil, arenaerrors.DecodeFailed(err, fmt.Sprintf("teamStanding[%d]", i))
			}
		}
	}

	for _, key := range reservedKeys {
		delete(doc, key)
	}

	shared, err := models.NewShared(doc)
	if err != nil {
		return nil, arenaerrors.DecodeFailed(err, "shared attributes")
	}

	return models.NewSnapshot(id, shared, games, players, teams), nil
}

func decodePlayer(fields map[string]json.RawMessage, p *models.Player) error {
	if err := takeField(fields, "name", &p.Name); err != nil {
		return err
	}
	if p.Name == "" {
		return arenaerrors.DecodeFailed(nil, "player has no name")
	}
	if err := takeField(fields, "withdraw", &p.Withdraw); err != nil {
		return err
	}
	if err := takeField(fields, "sheet", &p.Sheet); err != nil {
		return err
	}
	if err := takeField(fields, "team", &p.Team); err != nil {
		return err
	}
	if err := takeField(fields, "pauseDelay", &p.PauseDelay); err != nil {
		return err
	}
	// rank is positional
	delete(fields, "rank")

	extra, err := encodeExtra(fields)
	if err != nil {
		return err
	}
	p.Extra = extra
	return nil
}

func decodeTeam(fields map[string]json.RawMessage, t *models.Team) error {
	if err := takeField(fields, "id", &t.ID); err != nil {
		return err
	}
	if t.ID == "" {
		return arenaerrors.DecodeFailed(nil, "team has no id")
	}
	if err := takeField(fields, "rank", &t.Rank); err != nil {
		return err
	}

	extra, err := encodeExtra(fields)
	if err != nil {
		return err
	}
	t.Extra = extra
	return nil
}

// takeField removes key from fields and decodes it into dst. Absent and
// null values leave dst untouched.
func takeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	delete(fields, key)
	if isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return arenaerrors.DecodeFailed(err, fmt.Sprintf("field %q", key))
	}
	return nil
}

func encodeExtra(fields map[string]json.RawMessage) (json.RawMessage, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	extra, err := json.Marshal(fields)
	if err != nil {
		return nil, arenaerrors.DecodeFailed(err, "extra fields")
	}
	return extra, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
