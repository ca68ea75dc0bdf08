// Package syncer keeps the local store and the remote copy of the league in
// step: the Publisher pushes local changes out, the Reconciler pulls remote
// collections in.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/fjj-brasileirao/brackets"
	"github.com/Dosada05/fjj-brasileirao/repositories"
	"github.com/Dosada05/fjj-brasileirao/storage"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval = 10 * time.Second
	MinInterval     = 3 * time.Second
	// MinGap - минимальная пауза между окончанием одной сверки и началом следующей.
	MinGap = 5 * time.Second
)

var (
	ErrRemoteStoreDisabled = errors.New("remote store is not configured")
	ErrInvalidInterval     = errors.New("sync interval is too short")
)

// Broadcaster is the part of the websocket hub the syncer needs.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// PendingTracker reports collections with local changes not yet pushed.
// Flush retries the push of a collection whose last push failed.
type PendingTracker interface {
	Pending(collection string) bool
	Flush(ctx context.Context, collection string) error
}

type noPending struct{}

func (noPending) Pending(string) bool { return false }

func (noPending) Flush(context.Context, string) error { return nil }

// Report describes one reconciliation pass.
type Report struct {
	Skipped bool     `json:"skipped"`
	Applied []string `json:"applied"`
	Failed  []string `json:"failed"`
}

type ReconcilerOptions struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Pending  PendingTracker
	Hub      Broadcaster
	Logger   *slog.Logger
}

type Reconciler struct {
	remote      storage.RemoteStore
	collections []repositories.Collection
	interval    time.Duration
	clock       clockwork.Clock
	pending     PendingTracker
	hub         Broadcaster
	logger      *slog.Logger

	mu        sync.Mutex
	syncing   bool
	lastSync  time.Time
	scheduler gocron.Scheduler
}

func NewReconciler(remote storage.RemoteStore, collections []repositories.Collection, opts ReconcilerOptions) (*Reconciler, error) {
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Interval < MinInterval {
		return nil, fmt.Errorf("%w: %s, minimum is %s", ErrInvalidInterval, opts.Interval, MinInterval)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Pending == nil {
		opts.Pending = noPending{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Reconciler{
		remote:      remote,
		collections: collections,
		interval:    opts.Interval,
		clock:       opts.Clock,
		pending:     opts.Pending,
		hub:         opts.Hub,
		logger:      opts.Logger,
	}, nil
}

// Start schedules SyncOnce every interval until Stop. A run that is still in
// progress when the next tick fires makes that tick skip.
func (r *Reconciler) Start(ctx context.Context) error {
	if !r.remote.Enabled() {
		r.logger.Info("remote store disabled, reconciler not started")
		return nil
	}

	s, err := gocron.NewScheduler(gocron.WithClock(r.clock))
	if err != nil {
		return fmt.Errorf("failed to create sync scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			if _, err := r.SyncOnce(ctx); err != nil {
				r.logger.Error("sync pass failed", slog.Any("error", err))
			}
		}),
		gocron.WithName("remote-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}

	r.mu.Lock()
	r.scheduler = s
	r.mu.Unlock()

	s.Start()
	r.logger.Info("reconciler started", slog.Duration("interval", r.interval))
	return nil
}

func (r *Reconciler) Stop() error {
	r.mu.Lock()
	s := r.scheduler
	r.scheduler = nil
	r.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Shutdown()
}

// SyncOnce pulls every remote collection and replaces the local one when they
// differ. An empty remote collection never wipes local data. Per-collection
// failures are logged and reported; the next pass retries them.
func (r *Reconciler) SyncOnce(ctx context.Context) (Report, error) {
	if !r.remote.Enabled() {
		return Report{}, ErrRemoteStoreDisabled
	}
	if !r.begin() {
		r.logger.Debug("sync skipped, previous pass finished less than 5s ago")
		return Report{Skipped: true, Applied: []string{}, Failed: []string{}}, nil
	}
	defer r.finish()

	applied := make([]bool, len(r.collections))
	failed := make([]bool, len(r.collections))

	var g errgroup.Group
	for i, c := range r.collections {
		i, c := i, c
		g.Go(func() error {
			changed, err := r.reconcile(ctx, c)
			if err != nil {
				failed[i] = true
				r.logger.Error("failed to reconcile collection",
					slog.String("collection", c.Name()), slog.Any("error", err))
				return nil
			}
			applied[i] = changed
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Applied: []string{}, Failed: []string{}}
	for i, c := range r.collections {
		switch {
		case applied[i]:
			report.Applied = append(report.Applied, c.Name())
		case failed[i]:
			report.Failed = append(report.Failed, c.Name())
		}
	}

	if len(report.Applied) > 0 {
		r.logger.Info("remote changes applied", slog.Any("collections", report.Applied))
		if r.hub != nil {
			r.hub.BroadcastToRoom(brackets.LeagueRoom, brackets.WebSocketMessage{
				Type:    brackets.MessageSyncApplied,
				Payload: map[string][]string{"collections": report.Applied},
				RoomID:  brackets.LeagueRoom,
			})
		}
	}
	return report, nil
}

// begin claims the pass; false while one is running or within MinGap of the last one.
func (r *Reconciler) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.syncing {
		return false
	}
	if !r.lastSync.IsZero() && r.clock.Since(r.lastSync) < MinGap {
		return false
	}
	r.syncing = true
	return true
}

func (r *Reconciler) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncing = false
	r.lastSync = r.clock.Now()
}

func (r *Reconciler) reconcile(ctx context.Context, c repositories.Collection) (bool, error) {
	// Сначала дотолкать локальные изменения, которые не удалось отправить.
	if err := r.pending.Flush(ctx, c.Name()); err != nil {
		return false, fmt.Errorf("failed to push unsent %s: %w", c.Name(), err)
	}
	if r.pending.Pending(c.Name()) {
		// Локальные изменения ещё не отправлены, удалённая копия устарела.
		return false, nil
	}

	records, err := r.remote.List(ctx, c.Name())
	if err != nil {
		return false, fmt.Errorf("failed to list remote %s: %w", c.Name(), err)
	}
	if len(records) == 0 {
		return false, nil
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return false, fmt.Errorf("failed to encode remote %s: %w", c.Name(), err)
	}
	remote, err := c.Normalize(raw)
	if err != nil {
		return false, err
	}
	local, err := c.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	if bytes.Equal(local, remote) {
		return false, nil
	}

	// Replace runs without the writer lock: a mutation racing it may find its
	// rows gone for a moment and fail with a not-found error.
	if err := c.Replace(ctx, raw); err != nil {
		return false, fmt.Errorf("failed to replace local %s: %w", c.Name(), err)
	}
	return true, nil
}
