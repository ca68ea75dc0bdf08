package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/fjj-brasileirao/models"
)

type MatchDayStrategy string

const (
	// MatchDayCircle - классический круговой метод, команда играет не больше раза за тур.
	MatchDayCircle MatchDayStrategy = "circle"
	// MatchDayBucketed keeps the old floor(i*N/2)+1 numbering; rounds can be uneven.
	MatchDayBucketed MatchDayStrategy = "bucketed"
)

func ParseMatchDayStrategy(s string) (MatchDayStrategy, error) {
	switch MatchDayStrategy(s) {
	case "", MatchDayCircle:
		return MatchDayCircle, nil
	case MatchDayBucketed:
		return MatchDayBucketed, nil
	}
	return "", fmt.Errorf("unknown match day strategy %q", s)
}

type RoundRobinGenerator struct {
	strategy MatchDayStrategy
}

func NewRoundRobinGenerator(strategy MatchDayStrategy) BracketGenerator {
	if strategy == "" {
		strategy = MatchDayCircle
	}
	return &RoundRobinGenerator{strategy: strategy}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket creates one group match per unordered pair of teams.
// Each match is dated start + match day days.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: found %d, min 2 required", ErrNotEnoughTeams, len(teams))
	}
	if err := checkDistinct(teams); err != nil {
		return nil, err
	}

	if g.strategy == MatchDayBucketed {
		return g.bucketed(params), nil
	}
	return g.circle(params), nil
}

func (g *RoundRobinGenerator) bucketed(params GenerateBracketParams) []*BracketMatch {
	teams := params.Teams
	n := len(teams)
	matches := make([]*BracketMatch, 0, n*(n-1)/2)
	order := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			order++
			day := i*n/2 + 1
			matches = append(matches, groupMatch(fmt.Sprintf("G%dM%d", day, order), day, order, teams[i], teams[j], params))
		}
	}
	return matches
}

func (g *RoundRobinGenerator) circle(params GenerateBracketParams) []*BracketMatch {
	slots := make([]string, len(params.Teams))
	copy(slots, params.Teams)
	if len(slots)%2 == 1 {
		slots = append(slots, "") // bye
	}
	n := len(slots)
	matches := make([]*BracketMatch, 0, len(params.Teams)*(len(params.Teams)-1)/2)

	for r := 0; r < n-1; r++ {
		day := r + 1
		order := 0
		for i := 0; i < n/2; i++ {
			home, away := slots[i], slots[n-1-i]
			if home == "" || away == "" {
				continue
			}
			if i == 0 && r%2 == 1 {
				home, away = away, home
			}
			order++
			matches = append(matches, groupMatch(fmt.Sprintf("G%dM%d", day, order), day, order, home, away, params))
		}
		// первый слот фиксирован, остальные сдвигаются по кругу
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}
	return matches
}

func groupMatch(uid string, day, order int, home, away string, params GenerateBracketParams) *BracketMatch {
	h, a := home, away
	return &BracketMatch{
		UID:            uid,
		Round:          day,
		OrderInRound:   order,
		Stage:          models.StageGroup,
		MatchDay:       day,
		Date:           dayOffset(params.Start, day),
		Participant1ID: &h,
		Participant2ID: &a,
	}
}
