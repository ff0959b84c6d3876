package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/xid"

	"github.com/sakif/vocapp/internal/apperror"
)

var _ Store = (*Memory)(nil)

// Memory is a Store held in process memory. All operations, including the
// array mutations, run under one mutex.
type Memory struct {
	mu   sync.Mutex
	docs map[string]map[string][]byte // collection -> id -> JSON
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, collection, id string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	data, ok := m.docs[collection][id]
	m.mu.Unlock()
	if !ok {
		return apperror.NotFound(collection, id)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("docstore: decoding %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, collection, field string, value any) ([]Document, error) {
	if err := ValidateField(field); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("docstore: encoding query value: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Document
	for id, data := range m.docs[collection] {
		obj := map[string]json.RawMessage{}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("docstore: decoding %s/%s: %w", collection, id, err)
		}
		if raw, ok := obj[field]; ok && jsonEqual(raw, want) {
			out = append(out, Document{ID: id, Data: append(json.RawMessage(nil), data...)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Add(ctx context.Context, collection string, doc any) (string, error) {
	id := xid.New().String()
	if err := m.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: encoding %s/%s: %w", collection, id, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string][]byte)
	}
	m.docs[collection][id] = data
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.docs[collection], id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) ArrayUnion(ctx context.Context, collection, id, field string, values ...string) error {
	return m.mutate(ctx, collection, id, field, func(data []byte) ([]byte, error) {
		return ApplyArrayOp(data, field, func(arr []string) []string { return Union(arr, values) })
	})
}

func (m *Memory) ArrayRemove(ctx context.Context, collection, id, field string, values ...string) error {
	return m.mutate(ctx, collection, id, field, func(data []byte) ([]byte, error) {
		return ApplyArrayOp(data, field, func(arr []string) []string { return Remove(arr, values) })
	})
}

func (m *Memory) UpdateField(ctx context.Context, collection, id, field string, value any) error {
	return m.mutate(ctx, collection, id, field, func(data []byte) ([]byte, error) {
		return SetField(data, field, value)
	})
}

// Close is a no-op; it exists to satisfy Store.
func (m *Memory) Close() error { return nil }

func (m *Memory) mutate(ctx context.Context, collection, id, field string, fn func([]byte) ([]byte, error)) error {
	if err := ValidateField(field); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.docs[collection][id]
	if !ok {
		return apperror.NotFound(collection, id)
	}
	updated, err := fn(data)
	if err != nil {
		return err
	}
	m.docs[collection][id] = updated
	return nil
}

func jsonEqual(a, b []byte) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
