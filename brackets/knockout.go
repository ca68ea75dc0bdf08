package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/fjj-brasileirao/models"
)

// Дни от момента генерации до каждой стадии плей-офф.
var stageDayOffset = map[models.MatchStage]int{
	models.StageQuarterfinal: 6,
	models.StageSemifinal:    8,
	models.StageFinal:        10,
}

type node struct {
	participantID  *string
	sourceMatchUID *string
}

type KnockoutGenerator struct{}

func NewKnockoutGenerator() BracketGenerator {
	return &KnockoutGenerator{}
}

func (g *KnockoutGenerator) GetName() string {
	return "Knockout"
}

// GenerateBracket pairs seed i with seed len-1-i in every round, so with 8
// seeds the quarterfinals are 1v8, 2v7, 3v6, 4v5 and the semifinals are
// W(1v8) v W(4v5) and W(2v7) v W(3v6).
func (g *KnockoutGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	seeds := params.Teams
	if len(seeds) != 4 && len(seeds) != 8 {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedBracketSize, len(seeds))
	}
	if err := checkDistinct(seeds); err != nil {
		return nil, err
	}

	nodes := make([]node, len(seeds))
	for i := range seeds {
		id := seeds[i]
		nodes[i] = node{participantID: &id}
	}

	matches := make([]*BracketMatch, 0, len(seeds)-1)
	for round := 1; len(nodes) > 1; round++ {
		stage := stageForSize(len(nodes))
		half := len(nodes) / 2
		next := make([]node, 0, half)

		for i := 0; i < half; i++ {
			n1, n2 := nodes[i], nodes[len(nodes)-1-i]
			uid := fmt.Sprintf("R%dM%d", round, i+1)

			bm := &BracketMatch{
				UID:             uid,
				Round:           round,
				OrderInRound:    i + 1,
				Stage:           stage,
				MatchDay:        round,
				Date:            dayOffset(params.Start, stageDayOffset[stage]),
				Participant1ID:  n1.participantID,
				Participant2ID:  n2.participantID,
				SourceMatch1UID: n1.sourceMatchUID,
				SourceMatch2UID: n2.sourceMatchUID,
			}
			bm.IsPlaceholder = bm.Participant1ID == nil || bm.Participant2ID == nil
			matches = append(matches, bm)
			next = append(next, node{sourceMatchUID: &uid})
		}
		nodes = next
	}

	return matches, nil
}

func stageForSize(n int) models.MatchStage {
	switch n {
	case 8:
		return models.StageQuarterfinal
	case 4:
		return models.StageSemifinal
	default:
		return models.StageFinal
	}
}
