package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memCollection - коллекция из JSON-объектов с полем id.
type memCollection struct {
	mu       sync.Mutex
	name     string
	records  []map[string]any
	replaced int
	failList error
}

func newMemCollection(name string, records ...map[string]any) *memCollection {
	return &memCollection{name: name, records: records}
}

func (c *memCollection) Name() string { return c.name }

func canonical(records []map[string]any) ([]byte, error) {
	sorted := append([]map[string]any{}, records...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i]["id"].(string) < sorted[j]["id"].(string)
	})
	return json.Marshal(sorted)
}

func (c *memCollection) Snapshot(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failList != nil {
		return nil, c.failList
	}
	return canonical(c.records)
}

func (c *memCollection) Normalize(raw []byte) ([]byte, error) {
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return canonical(records)
}

func (c *memCollection) Replace(ctx context.Context, raw []byte) error {
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = records
	c.replaced++
	return nil
}

func (c *memCollection) replacedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.replaced
}

type fakeRemote struct {
	mu       sync.Mutex
	enabled  bool
	data     map[string][]json.RawMessage
	listErr  map[string]error
	puts     map[string]int
	putErr   map[string]error
	putBlock chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		enabled: true,
		data:    make(map[string][]json.RawMessage),
		listErr: make(map[string]error),
		puts:    make(map[string]int),
		putErr:  make(map[string]error),
	}
}

func (r *fakeRemote) set(collection string, records ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		raw = append(raw, json.RawMessage(rec))
	}
	r.data[collection] = raw
}

func (r *fakeRemote) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.listErr[collection]; err != nil {
		return nil, err
	}
	return append([]json.RawMessage{}, r.data[collection]...), nil
}

func (r *fakeRemote) Upsert(ctx context.Context, collection, id string, record json.RawMessage) error {
	return errors.New("not used")
}

func (r *fakeRemote) Delete(ctx context.Context, collection, id string) error {
	return errors.New("not used")
}

func (r *fakeRemote) Put(ctx context.Context, collection string, records []json.RawMessage) error {
	if r.putBlock != nil {
		<-r.putBlock
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.putErr[collection]; err != nil {
		return err
	}
	r.data[collection] = append([]json.RawMessage{}, records...)
	r.puts[collection]++
	return nil
}

func (r *fakeRemote) Enabled() bool { return r.enabled }

func (r *fakeRemote) putCount(collection string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts[collection]
}

type recordingHub struct {
	mu       sync.Mutex
	messages []any
}

func (h *recordingHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

type fixedPending map[string]bool

func (p fixedPending) Pending(collection string) bool { return p[collection] }

func (p fixedPending) Flush(context.Context, string) error { return nil }

func (r *fakeRemote) failPut(collection string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.putErr, collection)
		return
	}
	r.putErr[collection] = err
}
