package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Dosada05/fjj-brasileirao/models"
)

// Имена коллекций в удалённом хранилище.
const (
	CollectionTeams         = "teams"
	CollectionPlayers       = "players"
	CollectionMatches       = "matches"
	CollectionChampionships = "championships"
	CollectionTransfers     = "transfers"
	CollectionHistory       = "championship_history"
)

// Collection is one entity table seen as a JSON array of records, the unit the
// reconciler compares and replaces.
type Collection interface {
	Name() string
	// Snapshot returns the local records in canonical JSON.
	Snapshot(ctx context.Context) ([]byte, error)
	// Normalize re-encodes raw JSON records in the same canonical form.
	Normalize(raw []byte) ([]byte, error)
	// Replace swaps every local record for the decoded raw records in one transaction.
	Replace(ctx context.Context, raw []byte) error
}

type collection[T any] struct {
	name    string
	tx      TxManager
	id      func(*T) string
	list    func(ctx context.Context, exec SQLExecutor) ([]*T, error)
	replace func(ctx context.Context, exec SQLExecutor, items []*T) error
}

func (c *collection[T]) Name() string { return c.name }

func (c *collection[T]) Snapshot(ctx context.Context) ([]byte, error) {
	items, err := c.list(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %s: %w", c.name, err)
	}
	return c.encode(items)
}

func (c *collection[T]) Normalize(raw []byte) ([]byte, error) {
	items, err := c.decode(raw)
	if err != nil {
		return nil, err
	}
	return c.encode(items)
}

func (c *collection[T]) Replace(ctx context.Context, raw []byte) error {
	items, err := c.decode(raw)
	if err != nil {
		return err
	}
	return c.tx.WithinTx(ctx, func(exec SQLExecutor) error {
		return c.replace(ctx, exec, items)
	})
}

func (c *collection[T]) decode(raw []byte) ([]*T, error) {
	items := make([]*T, 0)
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.name, err)
	}
	kept := items[:0]
	for _, item := range items {
		if item != nil {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

func (c *collection[T]) encode(items []*T) ([]byte, error) {
	sorted := make([]*T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return c.id(sorted[i]) < c.id(sorted[j])
	})
	return json.Marshal(sorted)
}

// Repositories bundles every entity repository.
type Repositories struct {
	Teams         TeamRepository
	Players       PlayerRepository
	Matches       MatchRepository
	Championships ChampionshipRepository
	Transfers     TransferRepository
	History       HistoryRepository
}

func NewPostgresRepositories(db *sql.DB) Repositories {
	return Repositories{
		Teams:         NewPostgresTeamRepository(db),
		Players:       NewPostgresPlayerRepository(db),
		Matches:       NewPostgresMatchRepository(db),
		Championships: NewPostgresChampionshipRepository(db),
		Transfers:     NewPostgresTransferRepository(db),
		History:       NewPostgresHistoryRepository(db),
	}
}

// Collections returns the synced collections in restore order.
func (r Repositories) Collections(tx TxManager) []Collection {
	return []Collection{
		&collection[models.Team]{
			name:    CollectionTeams,
			tx:      tx,
			id:      func(t *models.Team) string { return t.ID },
			list:    r.Teams.List,
			replace: r.Teams.ReplaceAll,
		},
		&collection[models.Player]{
			name: CollectionPlayers,
			tx:   tx,
			id:   func(p *models.Player) string { return p.ID },
			list: func(ctx context.Context, exec SQLExecutor) ([]*models.Player, error) {
				return r.Players.List(ctx, exec, PlayerFilter{})
			},
			replace: r.Players.ReplaceAll,
		},
		&collection[models.Championship]{
			name:    CollectionChampionships,
			tx:      tx,
			id:      func(c *models.Championship) string { return c.ID },
			list:    r.Championships.List,
			replace: r.Championships.ReplaceAll,
		},
		&collection[models.Match]{
			name:    CollectionMatches,
			tx:      tx,
			id:      func(m *models.Match) string { return m.ID },
			list:    r.Matches.List,
			replace: r.Matches.ReplaceAll,
		},
		&collection[models.Transfer]{
			name: CollectionTransfers,
			tx:   tx,
			id:   func(t *models.Transfer) string { return t.ID },
			list: func(ctx context.Context, exec SQLExecutor) ([]*models.Transfer, error) {
				return r.Transfers.List(ctx, exec, nil)
			},
			replace: r.Transfers.ReplaceAll,
		},
		&collection[models.ChampionshipHistory]{
			name:    CollectionHistory,
			tx:      tx,
			id:      func(h *models.ChampionshipHistory) string { return h.ID },
			list:    r.History.List,
			replace: r.History.ReplaceAll,
		},
	}
}
