package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/fjj-brasileirao/brackets"
	"github.com/Dosada05/fjj-brasileirao/repositories"
	"github.com/Dosada05/fjj-brasileirao/storage"
)

const pushTimeout = 30 * time.Second

// Publisher tells websocket clients which collections changed and mirrors
// those collections to the remote store in the background.
type Publisher struct {
	hub         Broadcaster
	remote      storage.RemoteStore
	collections map[string]repositories.Collection
	logger      *slog.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	pending map[string]int
	dirty   map[string]bool // последняя отправка не удалась
	locks   map[string]*sync.Mutex
}

func NewPublisher(hub Broadcaster, remote storage.RemoteStore, collections []repositories.Collection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		hub:         hub,
		remote:      remote,
		collections: make(map[string]repositories.Collection, len(collections)),
		logger:      logger,
		pending:     make(map[string]int),
		dirty:       make(map[string]bool),
		locks:       make(map[string]*sync.Mutex),
	}
	for _, c := range collections {
		p.collections[c.Name()] = c
		p.locks[c.Name()] = &sync.Mutex{}
	}
	return p
}

func (p *Publisher) CollectionsChanged(ctx context.Context, names ...string) {
	if len(names) == 0 {
		return
	}
	if p.hub != nil {
		p.hub.BroadcastToRoom(brackets.LeagueRoom, brackets.WebSocketMessage{
			Type:    brackets.MessageCollectionsChanged,
			Payload: map[string][]string{"collections": names},
			RoomID:  brackets.LeagueRoom,
		})
	}
	if !p.remote.Enabled() {
		return
	}

	pushCtx := context.WithoutCancel(ctx)
	for _, name := range names {
		name := name
		c, ok := p.collections[name]
		if !ok {
			p.logger.Warn("change for unknown collection", slog.String("collection", name))
			continue
		}
		p.track(name, 1)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			defer p.track(name, -1)
			if err := p.push(pushCtx, c); err != nil {
				p.logger.Error("failed to push collection to remote store",
					slog.String("collection", name), slog.Any("error", err))
			}
		}()
	}
}

// push sends a fresh snapshot; pushes of one collection never overlap, so the
// last one to finish carries the latest state. A failed push leaves the
// collection dirty until some later push succeeds.
func (p *Publisher) push(ctx context.Context, c repositories.Collection) error {
	lock := p.locks[c.Name()]
	lock.Lock()
	defer lock.Unlock()

	err := p.putSnapshot(ctx, c)
	p.setDirty(c.Name(), err != nil)
	return err
}

func (p *Publisher) putSnapshot(ctx context.Context, c repositories.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	snapshot, err := c.Snapshot(ctx)
	if err != nil {
		return err
	}
	var records []json.RawMessage
	if err := json.Unmarshal(snapshot, &records); err != nil {
		return fmt.Errorf("failed to split snapshot of %s: %w", c.Name(), err)
	}
	if err := p.remote.Put(ctx, c.Name(), records); err != nil {
		return err
	}
	p.logger.Debug("collection pushed", slog.String("collection", c.Name()), slog.Int("records", len(records)))
	return nil
}

// Flush re-pushes a collection whose last push failed. Clean collections are
// left alone.
func (p *Publisher) Flush(ctx context.Context, collection string) error {
	c, ok := p.collections[collection]
	if !ok || !p.isDirty(collection) {
		return nil
	}
	if err := p.push(ctx, c); err != nil {
		return err
	}
	p.logger.Info("dirty collection pushed", slog.String("collection", collection))
	return nil
}

func (p *Publisher) setDirty(name string, dirty bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dirty {
		p.dirty[name] = true
	} else {
		delete(p.dirty, name)
	}
}

func (p *Publisher) isDirty(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty[name]
}

func (p *Publisher) track(name string, delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[name] += delta
	if p.pending[name] <= 0 {
		delete(p.pending, name)
	}
}

// Pending reports whether the remote copy may lag behind local data: a push
// is in flight or the last one failed.
func (p *Publisher) Pending(collection string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending[collection] > 0 || p.dirty[collection]
}

// Wait blocks until every background push has finished.
func (p *Publisher) Wait() {
	p.wg.Wait()
}
