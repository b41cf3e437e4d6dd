// Package faucet hands out demo coins minted by the system address so new
// addresses have something to send.
package faucet

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
)

// Set of default values used when a Config leaves them unset.
const (
	DefaultAmount   = 100
	DefaultCooldown = 30 * time.Second
)

// Set of errors returned by Request.
var (
	ErrEmptyAddress = errors.New("address is required")
	ErrRejected     = errors.New("faucet transaction was rejected")
)

// CooldownError is returned when an address asks for coins again before
// its cooldown has passed.
type CooldownError struct {
	Address   string
	Remaining time.Duration
}

// Error implements the error interface.
func (ce *CooldownError) Error() string {
	secs := int((ce.Remaining + time.Second - 1) / time.Second)
	return fmt.Sprintf("please wait %d seconds before requesting again for %s", secs, ce.Address)
}

// =============================================================================

// Submitter represents the behavior required to place a transaction in
// the mempool.
type Submitter interface {
	AddTransaction(tx database.Tx) bool
}

// Config represents the settings for a faucet.
type Config struct {
	Amount   float64
	Cooldown time.Duration
	Now      func() time.Time
}

// Faucet tracks the last time each address was paid.
type Faucet struct {
	submitter Submitter
	amount    float64
	cooldown  time.Duration
	now       func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// New constructs a faucet that submits its payouts to the submitter.
func New(submitter Submitter, cfg Config) *Faucet {
	if cfg.Amount == 0 {
		cfg.Amount = DefaultAmount
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Faucet{
		submitter: submitter,
		amount:    cfg.Amount,
		cooldown:  cfg.Cooldown,
		now:       cfg.Now,
		last:      make(map[string]time.Time),
	}
}

// Amount returns the number of coins paid per request.
func (f *Faucet) Amount() float64 {
	return f.amount
}

// Request pays the faucet amount from the system address to the address.
// The coins show up in the balance once the transaction is mined.
func (f *Faucet) Request(address string) (database.Tx, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return database.Tx{}, ErrEmptyAddress
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if last, exists := f.last[address]; exists {
		if elapsed := now.Sub(last); elapsed <= f.cooldown {
			return database.Tx{}, &CooldownError{Address: address, Remaining: f.cooldown - elapsed}
		}
	}

	tx := database.NewTx(database.SystemAddress, address, f.amount, 0)
	tx.TimeStamp = now.UnixMilli()

	if !f.submitter.AddTransaction(tx) {
		return database.Tx{}, ErrRejected
	}

	f.last[address] = now

	return tx, nil
}
