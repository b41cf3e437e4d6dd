package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
)

// ErrMiningInProgress is returned when a block is requested to be mined
// while another mining operation is still running.
var ErrMiningInProgress = errors.New("mining operation already in progress")

// =============================================================================

// MineBlock creates a new block holding every pending transaction plus the
// mining reward for the miner and searches for a nonce that solves the
// POW puzzle. The progress function is called with every nonce tried. Once
// solved, the block is appended to the chain and the mined transactions
// leave the mempool.
func (s *State) MineBlock(ctx context.Context, miner string, progress func(nonce uint64)) (database.Block, error) {
	if !s.mining.TryLock() {
		return database.Block{}, ErrMiningInProgress
	}
	defer s.mining.Unlock()

	s.evHandler("state: MineBlock: MINING: started: miner[%s]", miner)
	defer s.evHandler("state: MineBlock: MINING: completed")

	// Only mining appends to the chain and drains the pool, so what is
	// captured here is still the tip and the head of the pool when the
	// puzzle is solved.
	trans := s.mempool.Copy()
	prevBlock := s.LatestBlock()
	difficulty := s.Difficulty()

	s.evHandler("state: MineBlock: MINING: perform POW: trans[%d]: difficulty[%d]", len(trans), difficulty)

	block, err := database.POW(ctx, database.POWArgs{
		Miner:        miner,
		Difficulty:   difficulty,
		MiningReward: s.miningReward,
		PrevBlock:    prevBlock,
		Trans:        trans,
		Now:          s.now(),
		Progress:     progress,
		EvHandler:    s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineBlock: MINING: update chain and remove from mempool")

	s.mu.Lock()
	{
		s.chain = append(s.chain, block)
		s.mempool.DrainFirst(len(trans))
	}
	s.mu.Unlock()

	s.blockEvent(block)

	return block.Clone(), nil
}

// =============================================================================

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash, string(blockJSON))
}
