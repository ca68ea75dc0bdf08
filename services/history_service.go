package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/fjj-brasileirao/models"
)

type HistoryService interface {
	List(ctx context.Context) ([]*models.ChampionshipHistory, error)
}

type historyService struct {
	writer
}

func NewHistoryService(deps Deps) HistoryService {
	return &historyService{writer: newWriter(deps)}
}

func (s *historyService) List(ctx context.Context) ([]*models.ChampionshipHistory, error) {
	entries, err := s.Repos.History.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list championship history: %w", err)
	}
	return entries, nil
}
