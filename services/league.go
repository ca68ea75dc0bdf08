package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/fjj-brasileirao/brackets"
	"github.com/Dosada05/fjj-brasileirao/repositories"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ChangeNotifier is told which collections a committed mutation touched.
type ChangeNotifier interface {
	CollectionsChanged(ctx context.Context, collections ...string)
}

type noopNotifier struct{}

func (noopNotifier) CollectionsChanged(context.Context, ...string) {}

// Deps - общие зависимости сервисов лиги.
type Deps struct {
	Repos    repositories.Repositories
	Tx       repositories.TxManager
	Lock     *sync.Mutex // единственный писатель на весь процесс
	Clock    clockwork.Clock
	Notifier ChangeNotifier
	Logger   *slog.Logger
	NewID    func() string
}

func (d Deps) withDefaults() Deps {
	if d.Lock == nil {
		d.Lock = &sync.Mutex{}
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Notifier == nil {
		d.Notifier = noopNotifier{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

// writer serializes mutations: one at a time, each in its own transaction.
type writer struct {
	Deps
}

func newWriter(d Deps) writer {
	return writer{Deps: d.withDefaults()}
}

func (w writer) now() time.Time {
	return w.Clock.Now().UTC()
}

// mutate runs fn under the writer lock in one transaction and, after commit,
// notifies about the changed collections.
func (w writer) mutate(ctx context.Context, fn func(exec repositories.SQLExecutor) error, changed ...string) error {
	w.Lock.Lock()
	defer w.Lock.Unlock()

	if err := w.Tx.WithinTx(ctx, fn); err != nil {
		return err
	}
	w.Notifier.CollectionsChanged(ctx, changed...)
	return nil
}

// Services - все сервисы лиги с общим замком писателя.
type Services struct {
	Teams        TeamService
	Players      PlayerService
	Championship ChampionshipService
	Matches      MatchService
	Transfers    TransferService
	History      HistoryService
}

func NewServices(deps Deps, groupSchedule brackets.MatchDayStrategy) Services {
	deps = deps.withDefaults()
	return Services{
		Teams:        NewTeamService(deps),
		Players:      NewPlayerService(deps),
		Championship: NewChampionshipService(deps, groupSchedule),
		Matches:      NewMatchService(deps),
		Transfers:    NewTransferService(deps),
		History:      NewHistoryService(deps),
	}
}
