// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
)

// Mempool represents the transactions waiting to be mined, kept in the
// order they were submitted. Transactions with the same id coexist.
type Mempool struct {
	pool []database.Tx
	mu   sync.RWMutex
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert appends a transaction to the end of the pool and returns the
// new size of the pool.
func (mp *Mempool) Upsert(tx database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)

	return len(mp.pool)
}

// Copy returns the transactions in submission order. The caller owns
// the returned slice.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	cpy := make([]database.Tx, len(mp.pool))
	copy(cpy, mp.pool)

	return cpy
}

// DrainFirst removes the oldest n transactions from the pool. These are
// the transactions that were copied into a block that has been mined.
func (mp *Mempool) DrainFirst(n int) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if n >= len(mp.pool) {
		mp.pool = nil
		return
	}

	remaining := make([]database.Tx, len(mp.pool)-n)
	copy(remaining, mp.pool[n:])
	mp.pool = remaining
}
