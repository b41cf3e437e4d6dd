package public

import "github.com/ardanlabs/blocksim/foundation/blockchain/database"

// NewTx is what a client provides to submit a transaction.
type NewTx struct {
	From   string  `json:"from" validate:"required"`
	To     string  `json:"to" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
	Fee    float64 `json:"fee"`
}

// MineRequest names the address that receives the mining reward.
type MineRequest struct {
	Miner string `json:"miner" validate:"required"`
}

// DifficultyUpdate carries the requested difficulty. The node clamps the
// value into its supported range.
type DifficultyUpdate struct {
	Difficulty *int `json:"difficulty" validate:"required"`
}

// FaucetRequest names the address to pay.
type FaucetRequest struct {
	Address string `json:"address" validate:"required"`
}

// =============================================================================

type difficulty struct {
	Difficulty int `json:"difficulty"`
	Min        int `json:"min"`
	Max        int `json:"max"`
}

type balance struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latestBlock"`
	Pending     int       `json:"pending"`
	Balances    []balance `json:"balances"`
}

type validation struct {
	Valid    bool   `json:"valid"`
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
}

type stats struct {
	Blocks            int     `json:"blocks"`
	TotalTransactions int     `json:"totalTransactions"`
	Pending           int     `json:"pending"`
	Difficulty        int     `json:"difficulty"`
	MiningReward      float64 `json:"miningReward"`
	AverageBlockTime  float64 `json:"averageBlockTime"`
	Valid             bool    `json:"valid"`
}

type progress struct {
	Miner      string  `json:"miner"`
	Nonce      uint64  `json:"nonce"`
	Difficulty int     `json:"difficulty"`
	Percent    float64 `json:"percent"`
}

type submitted struct {
	Status  string      `json:"status"`
	Tx      database.Tx `json:"tx"`
	Pending int         `json:"pending"`
}

type paid struct {
	Status  string      `json:"status"`
	Address string      `json:"address"`
	Amount  float64     `json:"amount"`
	Tx      database.Tx `json:"tx"`
	Pending int         `json:"pending"`
}
