// Package database handles the lower level support for the blocks and
// transactions that make up the chain, along with the read-only rules that
// are run by replaying a sequence of blocks.
package database

import "fmt"

// ValidateChain checks every block after genesis links to the block before
// it and that the stored hash carries the leading zeros its difficulty asks
// for. The stored hash is trusted, it is not recalculated here.
func ValidateChain(blocks []Block) bool {
	for i := 1; i < len(blocks); i++ {
		current := blocks[i]
		previous := blocks[i-1]

		if current.PreviousHash != previous.Hash {
			return false
		}

		if !IsHashSolved(current.Difficulty, current.Hash) {
			return false
		}
	}

	return true
}

// VerifyHashes recalculates the hash of every block and compares it to the
// stored hash. It reports the first block that has been changed.
func VerifyHashes(blocks []Block) error {
	for _, block := range blocks {
		if hash := block.CalculateHash(); hash != block.Hash {
			return fmt.Errorf("block %d has been changed, stored %s, calculated %s", block.Index, block.Hash, hash)
		}
	}

	return nil
}

// Balance replays every transaction in the blocks. The sender pays the
// amount plus the fee and the receiver gets the amount.
func Balance(blocks []Block, address string) float64 {
	var balance float64

	for _, block := range blocks {
		for _, tx := range block.Transactions {
			if tx.From == address {
				balance -= tx.Amount + tx.Fee
			}
			if tx.To == address {
				balance += tx.Amount
			}
		}
	}

	return balance
}

// TotalTransactions counts the transactions across all the blocks.
func TotalTransactions(blocks []Block) int {
	var total int
	for _, block := range blocks {
		total += len(block.Transactions)
	}

	return total
}

// AverageBlockTime returns the mean time in milliseconds between
// consecutive blocks, or 0 with fewer than two blocks.
func AverageBlockTime(blocks []Block) float64 {
	if len(blocks) < 2 {
		return 0
	}

	var sum int64
	for i := 1; i < len(blocks); i++ {
		sum += blocks[i].TimeStamp - blocks[i-1].TimeStamp
	}

	return float64(sum) / float64(len(blocks)-1)
}
