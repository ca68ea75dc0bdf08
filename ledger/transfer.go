package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/fjj-brasileirao/models"
)

var (
	ErrInvalidAmount         = errors.New("transfer amount must not be negative")
	ErrInsufficientBalance   = errors.New("destination team has insufficient balance")
	ErrSameTeam              = errors.New("source and destination teams must differ")
	ErrPlayerNotOnSourceTeam = errors.New("player does not belong to the source team")
	ErrPlayerNotFreeAgent    = errors.New("external signing requires a free agent")
	ErrPlayerAlreadyOnTeam   = errors.New("player already belongs to the destination team")
)

type TransferRequest struct {
	PlayerID   string  `json:"player_id"`
	FromTeamID *string `json:"from_team_id"`
	ToTeamID   string  `json:"to_team_id"`
	Amount     int64   `json:"amount"`
}

// TransferPlan holds the updated copies of every record a transfer touches.
// From is nil for an external signing.
type TransferPlan struct {
	Player *models.Player
	From   *models.Team
	To     *models.Team
	Record *models.Transfer
}

// PlanTransfer validates a move of player from one team (nil for an external
// signing) to another and returns the resulting records. Inputs are not
// modified.
func PlanTransfer(player *models.Player, from, to *models.Team, amount int64, id string, now time.Time) (*TransferPlan, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if from != nil && from.ID == to.ID {
		return nil, ErrSameTeam
	}
	if player.BelongsTo(to.ID) {
		return nil, ErrPlayerAlreadyOnTeam
	}
	if from != nil && !player.BelongsTo(from.ID) {
		return nil, fmt.Errorf("%w: player %s, team %s", ErrPlayerNotOnSourceTeam, player.ID, from.ID)
	}
	if from == nil && !player.IsFreeAgent() {
		return nil, ErrPlayerNotFreeAgent
	}
	if to.FjjdotyBalance < amount {
		return nil, fmt.Errorf("%w: balance %d, amount %d", ErrInsufficientBalance, to.FjjdotyBalance, amount)
	}

	plan := &TransferPlan{
		Record: &models.Transfer{
			ID:       id,
			PlayerID: player.ID,
			ToTeamID: to.ID,
			Amount:   amount,
			Date:     now,
		},
	}

	movedPlayer := *player
	toID := to.ID
	movedPlayer.TeamID = &toID
	movedPlayer.UpdatedAt = now
	plan.Player = &movedPlayer

	dest := *to
	dest.FjjdotyBalance -= amount
	dest.Players = append(withoutPlayer(to.Players, player.ID), player.ID)
	dest.UpdatedAt = now
	plan.To = &dest

	if from != nil {
		src := *from
		src.FjjdotyBalance += amount
		src.Players = withoutPlayer(from.Players, player.ID)
		src.UpdatedAt = now
		plan.From = &src
		fromID := from.ID
		plan.Record.FromTeamID = &fromID
	}

	return plan, nil
}

func withoutPlayer(roster []string, playerID string) []string {
	out := make([]string, 0, len(roster))
	for _, id := range roster {
		if id != playerID {
			out = append(out, id)
		}
	}
	return out
}
