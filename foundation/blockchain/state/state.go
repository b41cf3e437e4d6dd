// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/mempool"
)

// Set of default values used when a Config leaves them unset.
const (
	DefaultDifficulty   = 4
	DefaultMiningReward = 10
	MinDifficulty       = 1
	MaxDifficulty       = 6
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the chain.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to start the chain engine.
// A zero Difficulty or MiningReward selects the default. Pass a configured
// difficulty through ClampDifficulty first so zero means the minimum, as it
// does for SetDifficulty.
type Config struct {
	Difficulty   int
	MiningReward float64
	EvHandler    EventHandler
	Now          func() time.Time
}

// State manages the blockchain held in memory and the pending transactions
// waiting to be mined into it.
type State struct {
	evHandler    EventHandler
	now          func() time.Time
	miningReward float64

	mu         sync.RWMutex
	chain      []database.Block
	difficulty int

	mining  sync.Mutex
	mempool *mempool.Mempool
	ready   chan struct{}
}

// New constructs the chain engine. The genesis block is built on a separate
// goroutine, use WaitForInitialization before calling any other method.
func New(cfg Config) *State {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Difficulty == 0 {
		cfg.Difficulty = DefaultDifficulty
	}
	if cfg.MiningReward == 0 {
		cfg.MiningReward = DefaultMiningReward
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := State{
		evHandler:    ev,
		now:          cfg.Now,
		miningReward: cfg.MiningReward,
		difficulty:   ClampDifficulty(cfg.Difficulty),
		mempool:      mempool.New(),
		ready:        make(chan struct{}),
	}

	go s.initialize()

	return &s
}

// initialize builds the genesis block and marks the engine ready.
func (s *State) initialize() {
	s.evHandler("state: initialize: started")
	defer s.evHandler("state: initialize: completed")

	s.mu.Lock()
	{
		genesis := database.NewGenesisBlock(s.difficulty, s.now())
		s.chain = []database.Block{genesis}
		s.evHandler("state: initialize: genesis[%s]", genesis.Hash)
	}
	s.mu.Unlock()

	close(s.ready)
}

// IsInitialized reports whether the genesis block has been created.
func (s *State) IsInitialized() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// WaitForInitialization blocks until the genesis block has been created
// or the context is done.
func (s *State) WaitForInitialization(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Difficulty returns the difficulty the next block will be mined at.
func (s *State) Difficulty() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.difficulty
}

// SetDifficulty changes the difficulty for blocks mined from now on. The
// value is clamped into the supported range. Existing blocks keep the
// difficulty they were mined at.
func (s *State) SetDifficulty(difficulty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.difficulty = ClampDifficulty(difficulty)
	s.evHandler("state: SetDifficulty: requested[%d]: difficulty[%d]", difficulty, s.difficulty)
}

// MiningReward returns the amount minted for every mined block.
func (s *State) MiningReward() float64 {
	return s.miningReward
}

// =============================================================================

// ClampDifficulty returns the difficulty limited to the supported range.
func ClampDifficulty(difficulty int) int {
	return max(MinDifficulty, min(MaxDifficulty, difficulty))
}
