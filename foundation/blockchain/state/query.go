package state

import (
	"github.com/ardanlabs/blocksim/foundation/blockchain/balance"
	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
)

// Balance replays the whole chain to calculate the balance for the address.
// Pending transactions are not included.
func (s *State) Balance(address string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.Balance(s.chain, address)
}

// Balances replays the whole chain into a balance sheet holding every
// address that has sent or received coins.
func (s *State) Balances() *balance.Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return balance.FromChain(s.chain)
}

// IsChainValid checks the linkage and the stored hash format of every block.
func (s *State) IsChainValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.ValidateChain(s.chain)
}

// VerifyHashes recalculates every block hash and reports the first block
// whose stored hash doesn't match its contents.
func (s *State) VerifyHashes() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.VerifyHashes(s.chain)
}

// TotalTransactions returns the number of transactions across the chain.
func (s *State) TotalTransactions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.TotalTransactions(s.chain)
}

// AverageBlockTime returns the mean number of milliseconds between blocks.
func (s *State) AverageBlockTime() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.AverageBlockTime(s.chain)
}

// Length returns the number of blocks in the chain including genesis.
func (s *State) Length() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.chain)
}

// PendingCount returns the number of transactions waiting to be mined.
func (s *State) PendingCount() int {
	return s.mempool.Count()
}

// =============================================================================

// LatestBlock returns a copy of the last block in the chain.
func (s *State) LatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain[len(s.chain)-1].Clone()
}

// Chain returns a copy of every block in the chain. Changing the returned
// blocks has no effect on the engine.
func (s *State) Chain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyBlocks(s.chain)
}

// Pending returns a copy of the transactions waiting to be mined.
func (s *State) Pending() []database.Tx {
	return s.mempool.Copy()
}

// ChainJSON returns the chain as indented JSON for export and display.
func (s *State) ChainJSON() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := database.MarshalChain(s.chain)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// =============================================================================

func copyBlocks(blocks []database.Block) []database.Block {
	cpy := make([]database.Block, len(blocks))
	for i, block := range blocks {
		cpy[i] = block.Clone()
	}

	return cpy
}
