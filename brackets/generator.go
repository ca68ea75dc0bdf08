package brackets

import (
	"context"
	"errors"
	"time"

	"github.com/Dosada05/fjj-brasileirao/models"
)

var (
	ErrNotEnoughTeams         = errors.New("not enough teams to generate fixtures")
	ErrDuplicateTeam          = errors.New("team appears more than once")
	ErrUnsupportedBracketSize = errors.New("knockout bracket supports 4 or 8 teams")
)

type GenerateBracketParams struct {
	// Для группового этапа - порядок регистрации, для плей-офф - посев.
	Teams []string
	Start time.Time
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// BracketMatch is a generated fixture before it gets a database id.
// Nil participants are filled later from the winner of the source match.
type BracketMatch struct {
	UID          string
	Round        int
	OrderInRound int
	Stage        models.MatchStage
	MatchDay     int
	Date         time.Time

	Participant1ID *string
	Participant2ID *string

	SourceMatch1UID *string
	SourceMatch2UID *string

	IsPlaceholder bool
}

func checkDistinct(teams []string) error {
	seen := make(map[string]struct{}, len(teams))
	for _, id := range teams {
		if id == "" {
			return errors.New("empty team id")
		}
		if _, ok := seen[id]; ok {
			return ErrDuplicateTeam
		}
		seen[id] = struct{}{}
	}
	return nil
}

func dayOffset(start time.Time, days int) time.Time {
	return start.Add(time.Duration(days) * 24 * time.Hour)
}
