// Package balance maintains address balances in memory.
package balance

import (
	"sort"
	"sync"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
)

// Sheet represents the data representation to maintain address balances.
type Sheet struct {
	sheet map[string]float64
	mu    sync.RWMutex
}

// NewSheet constructs a new balance sheet for use, expects a starting
// balance sheet or nil.
func NewSheet(sheet map[string]float64) *Sheet {
	bs := Sheet{
		sheet: make(map[string]float64),
	}

	if sheet != nil {
		bs.Reset(sheet)
	}

	return &bs
}

// FromChain replays every transaction in the blocks to build a sheet for
// all the addresses that appear in the chain.
func FromChain(blocks []database.Block) *Sheet {
	bs := NewSheet(nil)
	for _, block := range blocks {
		for _, tx := range block.Transactions {
			bs.ApplyTransaction(tx)
		}
	}

	return bs
}

// Reset takes the specified sheet and resets the balances.
func (bs *Sheet) Reset(sheet map[string]float64) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.sheet = make(map[string]float64)
	for address, value := range sheet {
		bs.sheet[address] = value
	}
}

// Copy makes a copy of the current balance sheet but returns the raw data.
func (bs *Sheet) Copy() map[string]float64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	sheet := make(map[string]float64, len(bs.sheet))
	for address, value := range bs.sheet {
		sheet[address] = value
	}
	return sheet
}

// Value returns the balance for the address.
func (bs *Sheet) Value(address string) float64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	return bs.sheet[address]
}

// Addresses returns the addresses on the sheet in sorted order.
func (bs *Sheet) Addresses() []string {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	addrs := make([]string, 0, len(bs.sheet))
	for address := range bs.sheet {
		addrs = append(addrs, address)
	}
	sort.Strings(addrs)

	return addrs
}

// ApplyTransaction debits the sender the amount plus the fee and credits
// the receiver the amount. The fee isn't paid to anyone. No funds check
// is made, balances may go negative.
func (bs *Sheet) ApplyTransaction(tx database.Tx) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	bs.sheet[tx.From] -= tx.Amount + tx.Fee
	bs.sheet[tx.To] += tx.Amount
}
