package state

import "github.com/ardanlabs/blocksim/foundation/blockchain/database"

// AddTransaction accepts a transaction for inclusion in the next mined
// block. It reports false and changes nothing when the transaction is
// missing an address or doesn't send a positive amount. The sender's funds
// are not checked.
func (s *State) AddTransaction(tx database.Tx) bool {
	if err := tx.Validate(); err != nil {
		s.evHandler("state: AddTransaction: REJECTED: tx[%s]: %s", tx, err)
		return false
	}

	n := s.mempool.Upsert(tx)
	s.evHandler("state: AddTransaction: tx[%s]: pending[%d]", tx, n)

	return true
}
