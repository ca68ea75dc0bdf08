package storage

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrRecordWithoutID = errors.New("remote record has no id")

// RemoteStore - удалённая копия коллекций лиги.
// Records are raw JSON objects carrying an "id" field.
type RemoteStore interface {
	// List returns every record of the collection; a missing collection is empty.
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
	Upsert(ctx context.Context, collection, id string, record json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
	// Put replaces the whole collection.
	Put(ctx context.Context, collection string, records []json.RawMessage) error
	Enabled() bool
}

type noopRemoteStore struct{}

// NewNoopRemoteStore is used when no remote store is configured: lists are
// empty and writes succeed without doing anything.
func NewNoopRemoteStore() RemoteStore {
	return noopRemoteStore{}
}

func (noopRemoteStore) List(context.Context, string) ([]json.RawMessage, error) {
	return nil, nil
}

func (noopRemoteStore) Upsert(context.Context, string, string, json.RawMessage) error { return nil }

func (noopRemoteStore) Delete(context.Context, string, string) error { return nil }

func (noopRemoteStore) Put(context.Context, string, []json.RawMessage) error { return nil }

func (noopRemoteStore) Enabled() bool { return false }

func recordID(record json.RawMessage) (string, error) {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(record, &probe); err != nil {
		return "", err
	}
	if probe.ID == "" {
		return "", ErrRecordWithoutID
	}
	return probe.ID, nil
}
