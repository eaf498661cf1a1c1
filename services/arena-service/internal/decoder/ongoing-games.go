package decoder

import (
	"fmt"
	"strings"

	"github.com/burakmert236/arenaview/common/models"
	arenaerrors "github.com/burakmert236/arenaview/services/arena-service/internal/errors"
)

// ParseOngoingGames decodes "user1&user2/game,user3&user4/game" into one
// entry per participant. Any malformed record rejects the whole value.
func ParseOngoingGames(encoded string) (map[models.UserID]models.GameID, error) {
	games := make(map[models.UserID]models.GameID)
	if encoded == "" {
		return games, nil
	}

	for _, record := range strings.Split(encoded, ",") {
		users, game, ok := strings.Cut(record, "/")
		if !ok || game == "" || strings.Contains(game, "/") {
			return nil, arenaerrors.DecodeFailed(nil, fmt.Sprintf("malformed ongoing game record %q", record))
		}

		white, black, ok := strings.Cut(users, "&")
		if !ok || white == "" || black == "" || strings.Contains(black, "&") {
			return nil, arenaerrors.DecodeFailed(nil, fmt.Sprintf("malformed ongoing game record %q", record))
		}

		gameID := models.GameID(game)
		games[models.UserName(white).ToID()] = gameID
		games[models.UserName(black).ToID()] = gameID
	}

	return games, nil
}
