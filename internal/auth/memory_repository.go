package auth

import (
	"context"
	"sync"
)

type memoryRecord struct {
	mu      sync.Mutex
	account *Account
	deleted bool
}

// memoryRepository keeps accounts in process memory. Each record carries its
// own mutex so Update serializes per identifier without blocking other
// accounts. Callers always receive copies.
type memoryRepository struct {
	records map[string]*memoryRecord
	nextID  uint
	mu      sync.RWMutex
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		records: make(map[string]*memoryRecord),
	}
}

func (r *memoryRepository) Create(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[account.Identifier]; exists {
		return ErrAccountExists
	}

	r.nextID++
	account.ID = r.nextID
	r.records[account.Identifier] = &memoryRecord{account: account.clone()}
	return nil
}

func (r *memoryRepository) record(identifier string) (*memoryRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.records[identifier]
	return rec, exists
}

func (r *memoryRepository) FindByIdentifier(_ context.Context, identifier string) (*Account, error) {
	rec, exists := r.record(identifier)
	if !exists {
		return nil, ErrAccountNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, ErrAccountNotFound
	}
	return rec.account.clone(), nil
}

func (r *memoryRepository) FindByIdentifierAndToken(ctx context.Context, identifier, token string) (*Account, error) {
	account, err := r.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if account.VerificationToken == nil || *account.VerificationToken != token {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (r *memoryRepository) Update(ctx context.Context, identifier string, fn func(*Account) error) (*Account, error) {
	rec, exists := r.record(identifier)
	if !exists {
		return nil, ErrAccountNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, ErrAccountNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	working := rec.account.clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	// Identifier is the key and never changes.
	working.Identifier = rec.account.Identifier
	rec.account = working
	return working.clone(), nil
}

func (r *memoryRepository) Delete(_ context.Context, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[identifier]
	if !exists {
		return ErrAccountNotFound
	}

	rec.mu.Lock()
	rec.deleted = true
	rec.mu.Unlock()

	delete(r.records, identifier)
	return nil
}
