package ledger

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	txs   map[string]Transaction
	order []string
}

// NewMemoryRepository builds an in-memory transaction store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{txs: make(map[string]Transaction)}
}

func (r *memoryRepository) Create(_ context.Context, tx Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[tx.ID] = tx
	r.order = append(r.order, tx.ID)
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.txs[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (r *memoryRepository) ListBySender(_ context.Context, senderPhone string) ([]Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Transaction
	for _, id := range r.order {
		tx := r.txs[id]
		if tx.SenderPhone == senderPhone && !tx.Deleted {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memoryRepository) SoftDelete(_ context.Context, id, senderPhone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[id]
	if !ok || tx.Deleted || tx.SenderPhone != senderPhone {
		return ErrNotFound
	}
	tx.Deleted = true
	r.txs[id] = tx
	return nil
}
