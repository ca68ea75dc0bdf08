package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Dosada05/fjj-brasileirao/models"
	"github.com/Dosada05/fjj-brasileirao/repositories"
)

// memStore - in-memory хранилище для тестов сервисов. memTx откатывает его
// к снимку, если функция транзакции вернула ошибку.
type memStore struct {
	mu            sync.Mutex
	teams         map[string]*models.Team
	players       map[string]*models.Player
	matches       map[string]*models.Match
	championships map[string]*models.Championship
	transfers     []*models.Transfer
	history       []*models.ChampionshipHistory

	failTransferCreate error
}

func newMemStore() *memStore {
	return &memStore{
		teams:         make(map[string]*models.Team),
		players:       make(map[string]*models.Player),
		matches:       make(map[string]*models.Match),
		championships: make(map[string]*models.Championship),
	}
}

func cloneTeam(t *models.Team) *models.Team {
	c := *t
	c.Players = append([]string{}, t.Players...)
	return &c
}

func clonePlayer(p *models.Player) *models.Player {
	c := *p
	return &c
}

func cloneMatch(m *models.Match) *models.Match {
	c := *m
	c.Scorers = append([]models.GoalScorer{}, m.Scorers...)
	return &c
}

func cloneChampionship(ch *models.Championship) *models.Championship {
	c := *ch
	c.Teams = append([]string{}, ch.Teams...)
	c.Matches = nil
	return &c
}

type memSnapshot struct {
	teams         map[string]*models.Team
	players       map[string]*models.Player
	matches       map[string]*models.Match
	championships map[string]*models.Championship
	transfers     []*models.Transfer
	history       []*models.ChampionshipHistory
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		teams:         make(map[string]*models.Team, len(s.teams)),
		players:       make(map[string]*models.Player, len(s.players)),
		matches:       make(map[string]*models.Match, len(s.matches)),
		championships: make(map[string]*models.Championship, len(s.championships)),
		transfers:     append([]*models.Transfer{}, s.transfers...),
		history:       append([]*models.ChampionshipHistory{}, s.history...),
	}
	for k, v := range s.teams {
		snap.teams[k] = cloneTeam(v)
	}
	for k, v := range s.players {
		snap.players[k] = clonePlayer(v)
	}
	for k, v := range s.matches {
		snap.matches[k] = cloneMatch(v)
	}
	for k, v := range s.championships {
		snap.championships[k] = cloneChampionship(v)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams, s.players, s.matches, s.championships = snap.teams, snap.players, snap.matches, snap.championships
	s.transfers, s.history = snap.transfers, snap.history
}

type memTx struct {
	store *memStore
	calls int
}

func (tx *memTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	tx.calls++
	snap := tx.store.snapshot()
	if err := fn(nil); err != nil {
		tx.store.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) repositories() repositories.Repositories {
	return repositories.Repositories{
		Teams:         &memTeams{s},
		Players:       &memPlayers{s},
		Matches:       &memMatches{s},
		Championships: &memChampionships{s},
		Transfers:     &memTransfers{s},
		History:       &memHistory{s},
	}
}

// --- teams ---

type memTeams struct{ s *memStore }

func (r *memTeams) withRoster(t *models.Team) *models.Team {
	c := cloneTeam(t)
	c.Players = []string{}
	for _, p := range r.s.players {
		if p.BelongsTo(t.ID) {
			c.Players = append(c.Players, p.ID)
		}
	}
	sort.Strings(c.Players)
	return c
}

func (r *memTeams) slugTaken(slug, exceptID string) bool {
	for _, t := range r.s.teams {
		if t.Slug == slug && t.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *memTeams) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.slugTaken(team.Slug, team.ID) {
		return repositories.ErrTeamNameConflict
	}
	r.s.teams[team.ID] = cloneTeam(team)
	return nil
}

func (r *memTeams) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return r.withRoster(t), nil
}

func (r *memTeams) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Team, 0, len(r.s.teams))
	for _, t := range r.s.teams {
		out = append(out, r.withRoster(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memTeams) Update(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.teams[team.ID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	if r.slugTaken(team.Slug, team.ID) {
		return repositories.ErrTeamNameConflict
	}
	existing.Name, existing.Slug = team.Name, team.Slug
	existing.LogoURL, existing.BackgroundURL = team.LogoURL, team.BackgroundURL
	existing.UpdatedAt = team.UpdatedAt
	return nil
}

func (r *memTeams) AdjustBalance(ctx context.Context, exec repositories.SQLExecutor, id string, delta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.FjjdotyBalance += delta
	return nil
}

func (r *memTeams) Delete(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.s.teams, id)
	return nil
}

func (r *memTeams) ReplaceAll(ctx context.Context, exec repositories.SQLExecutor, teams []*models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.teams = make(map[string]*models.Team, len(teams))
	for _, t := range teams {
		r.s.teams[t.ID] = cloneTeam(t)
	}
	return nil
}

// --- players ---

type memPlayers struct{ s *memStore }

func (r *memPlayers) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.players[p.ID] = clonePlayer(p)
	return nil
}

func (r *memPlayers) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return clonePlayer(p), nil
}

func (r *memPlayers) List(ctx context.Context, exec repositories.SQLExecutor, filter repositories.PlayerFilter) ([]*models.Player, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Player, 0)
	for _, p := range r.s.players {
		if filter.TeamID != nil && !p.BelongsTo(*filter.TeamID) {
			continue
		}
		if filter.FreeAgents && !p.IsFreeAgent() {
			continue
		}
		out = append(out, clonePlayer(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memPlayers) TopScorers(ctx context.Context, exec repositories.SQLExecutor, limit int) ([]*models.Player, error) {
	all, _ := r.List(ctx, exec, repositories.PlayerFilter{})
	out := make([]*models.Player, 0)
	for _, p := range all {
		if p.Goals > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Goals > out[j].Goals })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPlayers) Update(ctx context.Context, exec repositories.SQLExecutor, p *models.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.players[p.ID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	existing.Name, existing.ImageURL, existing.UpdatedAt = p.Name, p.ImageURL, p.UpdatedAt
	return nil
}

func (r *memPlayers) SetTeam(ctx context.Context, exec repositories.SQLExecutor, id string, teamID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.TeamID = teamID
	return nil
}

func (r *memPlayers) AddGoals(ctx context.Context, exec repositories.SQLExecutor, id string, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Goals += delta
	if p.Goals < 0 {
		p.Goals = 0
	}
	return nil
}

func (r *memPlayers) ResetGoals(ctx context.Context, exec repositories.SQLExecutor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.players {
		p.Goals = 0
	}
	return nil
}

func (r *memPlayers) Delete(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.s.players, id)
	return nil
}

func (r *memPlayers) ReplaceAll(ctx context.Context, exec repositories.SQLExecutor, players []*models.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.players = make(map[string]*models.Player, len(players))
	for _, p := range players {
		r.s.players[p.ID] = clonePlayer(p)
	}
	return nil
}

// --- matches ---

type memMatches struct{ s *memStore }

func (r *memMatches) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[m.ID]; ok {
		return fmt.Errorf("duplicate match id %s", m.ID)
	}
	r.s.matches[m.ID] = cloneMatch(m)
	return nil
}

func (r *memMatches) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return cloneMatch(m), nil
}

func (r *memMatches) sorted(keep func(*models.Match) bool) []*models.Match {
	out := make([]*models.Match, 0)
	for _, m := range r.s.matches {
		if keep(m) {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchDay != out[j].MatchDay {
			return out[i].MatchDay < out[j].MatchDay
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memMatches) ListByChampionship(ctx context.Context, exec repositories.SQLExecutor, championshipID string) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(m *models.Match) bool { return m.ChampionshipID == championshipID }), nil
}

func (r *memMatches) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(*models.Match) bool { return true }), nil
}

func (r *memMatches) Update(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	if m.Played && (m.HomeScore == nil || m.AwayScore == nil) {
		return repositories.ErrMatchInvalid
	}
	r.s.matches[m.ID] = cloneMatch(m)
	return nil
}

func (r *memMatches) Delete(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.s.matches, id)
	return nil
}

func (r *memMatches) DeleteByChampionship(ctx context.Context, exec repositories.SQLExecutor, championshipID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.matches {
		if m.ChampionshipID == championshipID {
			delete(r.s.matches, id)
		}
	}
	return nil
}

func (r *memMatches) ReplaceAll(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.matches = make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		r.s.matches[m.ID] = cloneMatch(m)
	}
	return nil
}

// --- championships ---

type memChampionships struct{ s *memStore }

func (r *memChampionships) Create(ctx context.Context, exec repositories.SQLExecutor, c *models.Championship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.championships[c.ID] = cloneChampionship(c)
	return nil
}

func (r *memChampionships) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Championship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.championships[id]
	if !ok {
		return nil, repositories.ErrChampionshipNotFound
	}
	return cloneChampionship(c), nil
}

func (r *memChampionships) GetCurrent(ctx context.Context, exec repositories.SQLExecutor) (*models.Championship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var current *models.Championship
	for _, c := range r.s.championships {
		if current == nil || c.CreatedAt.After(current.CreatedAt) ||
			(c.CreatedAt.Equal(current.CreatedAt) && c.ID > current.ID) {
			current = c
		}
	}
	if current == nil {
		return nil, repositories.ErrChampionshipNotFound
	}
	return cloneChampionship(current), nil
}

func (r *memChampionships) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.Championship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Championship, 0, len(r.s.championships))
	for _, c := range r.s.championships {
		out = append(out, cloneChampionship(c))
	}
	return out, nil
}

func (r *memChampionships) Update(ctx context.Context, exec repositories.SQLExecutor, c *models.Championship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.championships[c.ID]; !ok {
		return repositories.ErrChampionshipNotFound
	}
	r.s.championships[c.ID] = cloneChampionship(c)
	return nil
}

func (r *memChampionships) Delete(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.championships[id]; !ok {
		return repositories.ErrChampionshipNotFound
	}
	delete(r.s.championships, id)
	return nil
}

func (r *memChampionships) ReplaceAll(ctx context.Context, exec repositories.SQLExecutor, list []*models.Championship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.championships = make(map[string]*models.Championship, len(list))
	for _, c := range list {
		r.s.championships[c.ID] = cloneChampionship(c)
	}
	return nil
}

// --- transfers & history ---

type memTransfers struct{ s *memStore }

func (r *memTransfers) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Transfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failTransferCreate != nil {
		return r.s.failTransferCreate
	}
	c := *t
	r.s.transfers = append(r.s.transfers, &c)
	return nil
}

func (r *memTransfers) List(ctx context.Context, exec repositories.SQLExecutor, teamID *string) ([]*models.Transfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Transfer, 0)
	for i := len(r.s.transfers) - 1; i >= 0; i-- {
		t := r.s.transfers[i]
		if teamID != nil && !t.Involves(*teamID) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func (r *memTransfers) ReplaceAll(ctx context.Context, exec repositories.SQLExecutor, list []*models.Transfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.transfers = append([]*models.Transfer{}, list...)
	return nil
}

type memHistory struct{ s *memStore }

func (r *memHistory) Create(ctx context.Context, exec repositories.SQLExecutor, h *models.ChampionshipHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *h
	r.s.history = append(r.s.history, &c)
	return nil
}

func (r *memHistory) List(ctx context.Context, exec repositories.SQLExecutor) ([]*models.ChampionshipHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.ChampionshipHistory, 0, len(r.s.history))
	for i := len(r.s.history) - 1; i >= 0; i-- {
		c := *r.s.history[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r *memHistory) ReplaceAll(ctx context.Context, exec repositories.SQLExecutor, list []*models.ChampionshipHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append([]*models.ChampionshipHistory{}, list...)
	return nil
}

// recordingNotifier запоминает уведомления об изменённых коллекциях.
type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]string
}

func (n *recordingNotifier) CollectionsChanged(ctx context.Context, collections ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, collections)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}
