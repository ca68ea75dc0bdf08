package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/Dosada05/fjj-brasileirao/repositories"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isValidStatusTransition(current, next models.ChampionshipStatus) bool {
	allowedTransitions := map[models.ChampionshipStatus][]models.ChampionshipStatus{
		models.StatusSetup:    {models.StatusGroup},
		models.StatusGroup:    {models.StatusKnockout},
		models.StatusKnockout: {models.StatusFinished},
		models.StatusFinished: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

func checkTransition(c *models.Championship, next models.ChampionshipStatus) error {
	if !isValidStatusTransition(c.Status, next) {
		return fmt.Errorf("%w: from '%s' to '%s'", ErrInvalidStatusTransition, c.Status, next)
	}
	return nil
}

// handleRepositoryError - общий хелпер для ошибок репозитория
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrChampionshipNotFound):
		return ErrChampionshipNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrMatchInvalid):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return err
}

func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func removeString(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
