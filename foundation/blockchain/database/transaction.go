package database

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// SystemAddress is the sentinel sender used for minted value such as mining
// rewards and faucet payouts. It is never checked for funds.
const SystemAddress = "system"

// Set of reasons a transaction can be rejected from the mempool.
var (
	ErrMissingFrom     = errors.New("transaction is missing a from address")
	ErrMissingTo       = errors.New("transaction is missing a to address")
	ErrNonPositiveSend = errors.New("transaction amount must be greater than zero")
	ErrNonFinite       = errors.New("transaction amount and fee must be finite numbers")
)

// =============================================================================

// Tx represents the transfer of an amount between two addresses. The field
// order is significant since it drives the order of the hashed JSON.
type Tx struct {
	ID        string  `json:"id"`        // Unique identifier, never checked for duplicates.
	From      string  `json:"from"`      // Address being debited amount plus fee.
	To        string  `json:"to"`        // Address being credited the amount.
	Amount    float64 `json:"amount"`    // Value being transferred.
	TimeStamp int64   `json:"timestamp"` // Unix milliseconds the transaction was created.
	Fee       float64 `json:"fee"`       // Burned on top of the amount. Nobody is credited.
}

// NewTx constructs a transaction with a generated id and the current time.
func NewTx(from string, to string, amount float64, fee float64) Tx {
	return Tx{
		ID:        fmt.Sprintf("tx-%s", uuid.NewString()),
		From:      from,
		To:        to,
		Amount:    amount,
		TimeStamp: time.Now().UnixMilli(),
		Fee:       fee,
	}
}

// NewRewardTx constructs the transaction that mints the mining reward
// for the specified miner.
func NewRewardTx(miner string, reward float64, now time.Time) Tx {
	return Tx{
		ID:        fmt.Sprintf("reward-%s", uuid.NewString()),
		From:      SystemAddress,
		To:        miner,
		Amount:    reward,
		TimeStamp: now.UnixMilli(),
		Fee:       0,
	}
}

// Validate performs the only checks a transaction is subjected to before
// entering the mempool. Sender funds, duplicate ids and negative fees are
// not checked. NaN and infinite values can't be hashed so they are refused.
func (tx Tx) Validate() error {
	if tx.From == "" {
		return ErrMissingFrom
	}

	if tx.To == "" {
		return ErrMissingTo
	}

	if !isFinite(tx.Amount) || !isFinite(tx.Fee) {
		return ErrNonFinite
	}

	if tx.Amount <= 0 {
		return ErrNonPositiveSend
	}

	return nil
}

// IsReward reports whether the transaction mints value from the system
// address, which is never checked for funds.
func (tx Tx) IsReward() bool {
	return tx.From == SystemAddress
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s->%s:%g", tx.ID, tx.From, tx.To, tx.Amount)
}
