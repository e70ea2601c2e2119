// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package action

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memoryStore struct {
	mu   sync.Mutex
	subs map[[2]string]bool
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{subs: make(map[[2]string]bool)}
}

func (m *memoryStore) AddSubscription(_ context.Context, nodeID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	k := [2]string{nodeID, email}
	if m.subs[k] {
		return false, nil
	}
	m.subs[k] = true
	return true, nil
}

func (m *memoryStore) RemoveSubscription(_ context.Context, nodeID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	k := [2]string{nodeID, email}
	if !m.subs[k] {
		return false, nil
	}
	delete(m.subs, k)
	return true, nil
}

func TestExecutorAddIdempotent(t *testing.T) {
	t.Parallel()
	exec := NewExecutor(newMemoryStore())
	ctx := context.Background()
	a := Action{NodeID: "n1", Email: "a@example.org", Op: OpAdd}

	first, err := exec.Run(ctx, a)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := exec.Run(ctx, a)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !first || second {
		t.Errorf("Add twice = (%v, %v), want (true, false)", first, second)
	}
}

func TestExecutorRemoveIdempotent(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	exec := NewExecutor(store)
	ctx := context.Background()
	rm := Action{NodeID: "n1", Email: "a@example.org", Op: OpRemove}

	if changed, err := exec.Run(ctx, rm); err != nil || changed {
		t.Errorf("Remove of missing pair = (%v, %v), want (false, nil)", changed, err)
	}

	add := rm
	add.Op = OpAdd
	if _, err := exec.Run(ctx, add); err != nil {
		t.Fatalf("Run(add) error = %v", err)
	}
	first, _ := exec.Run(ctx, rm)
	second, _ := exec.Run(ctx, rm)
	if !first || second {
		t.Errorf("Remove twice = (%v, %v), want (true, false)", first, second)
	}
}

func TestExecutorStoreError(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	store.err = errors.New("connection lost")
	exec := NewExecutor(store)

	changed, err := exec.Run(context.Background(), Action{NodeID: "n1", Email: "a@example.org", Op: OpAdd})
	if err == nil || changed {
		t.Fatalf("Run() = (%v, %v), want error", changed, err)
	}
	if !errors.Is(err, store.err) {
		t.Errorf("Run() error = %v, want wrapped store error", err)
	}
}

func TestExecutorUnknownOperation(t *testing.T) {
	t.Parallel()
	exec := NewExecutor(newMemoryStore())

	_, err := exec.Run(context.Background(), Action{NodeID: "n1", Email: "a@example.org", Op: Operation(3)})
	if !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("Run() error = %v, want ErrUnknownOperation", err)
	}
}
