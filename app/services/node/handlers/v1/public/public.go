// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/blocksim/business/sys/validate"
	"github.com/ardanlabs/blocksim/business/web/errs"
	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/faucet"
	"github.com/ardanlabs/blocksim/foundation/blockchain/state"
	"github.com/ardanlabs/blocksim/foundation/events"
	"github.com/ardanlabs/blocksim/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// progressEvery is the number of nonces between mining progress events.
const progressEvery = 1_000

// ErrInsufficientFunds is returned when a sender's mined balance can't
// cover the amount and fee of a submitted transaction.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Handlers manages the set of chain endpoints. MineTimeout bounds a single
// mine request and must be shorter than the server's write timeout, zero
// leaves mining bound only to the request.
type Handlers struct {
	Log         *zap.SugaredLogger
	State       *state.State
	Faucet      *faucet.Faucet
	WS          websocket.Upgrader
	Evts        *events.Events
	MineTimeout time.Duration
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, evt.JSON()); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx NewTx
	if err := web.Decode(r, &ntx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(ntx); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	tx := database.NewTx(ntx.From, ntx.To, ntx.Amount, ntx.Fee)
	if err := tx.Validate(); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	// Coins minted by the system address are never checked for funds.
	if !tx.IsReward() {
		bal := h.State.Balance(tx.From)
		if bal < tx.Amount+tx.Fee {
			err := fmt.Errorf("%w: %s has %v, needs %v", ErrInsufficientFunds, tx.From, bal, tx.Amount+tx.Fee)
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	h.Log.Infow("submit tran", "traceid", v.TraceID, "tx", tx.ID, "from", tx.From, "to", tx.To, "amount", tx.Amount, "fee", tx.Fee)
	if !h.State.AddTransaction(tx) {
		return errs.NewTrusted(errors.New("transaction rejected"), http.StatusBadRequest)
	}

	resp := submitted{
		Status:  "transaction added to mempool",
		Tx:      tx,
		Pending: h.State.PendingCount(),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Mine mines the pending transactions into a new block. Progress is streamed
// to the events websocket while the nonce search runs. A search that runs
// past MineTimeout is abandoned with a 503 and nothing is appended.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req MineRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	difficulty := h.State.Difficulty()
	prog := func(nonce uint64) {
		if nonce%progressEvery != 0 {
			return
		}

		h.Evts.Send(events.Event{
			Type: events.TypeProgress,
			Data: progress{
				Miner:      req.Miner,
				Nonce:      nonce,
				Difficulty: difficulty,
				Percent:    database.EstimateProgress(nonce, difficulty),
			},
		})
	}

	h.Log.Infow("mine block", "traceid", v.TraceID, "miner", req.Miner, "difficulty", difficulty, "pending", h.State.PendingCount())

	mineCtx := ctx
	if h.MineTimeout > 0 {
		var cancel context.CancelFunc
		mineCtx, cancel = context.WithTimeout(ctx, h.MineTimeout)
		defer cancel()
	}

	block, err := h.State.MineBlock(mineCtx, req.Miner, prog)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrMiningInProgress):
			return errs.NewTrusted(err, http.StatusConflict)
		case errors.Is(err, context.DeadlineExceeded):
			err := fmt.Errorf("mining took longer than %s at difficulty %d: %w", h.MineTimeout, difficulty, err)
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return fmt.Errorf("mining block: %w", err)
	}

	return web.Respond(ctx, w, block, http.StatusCreated)
}

// Difficulty returns the difficulty used for the next mined block.
func (h Handlers) Difficulty(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := difficulty{
		Difficulty: h.State.Difficulty(),
		Min:        state.MinDifficulty,
		Max:        state.MaxDifficulty,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SetDifficulty changes the difficulty used for future blocks.
func (h Handlers) SetDifficulty(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var upd DifficultyUpdate
	if err := web.Decode(r, &upd); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(upd); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	h.State.SetDifficulty(*upd.Difficulty)

	resp := difficulty{
		Difficulty: h.State.Difficulty(),
		Min:        state.MinDifficulty,
		Max:        state.MaxDifficulty,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns the mined balance for the specified address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	resp := balance{
		Address: address,
		Balance: h.State.Balance(address),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balances returns the mined balance of every address in the chain.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sheet := h.State.Balances()

	resp := balances{
		LatestBlock: h.State.LatestBlock().Hash,
		Pending:     h.State.PendingCount(),
		Balances:    []balance{},
	}
	for _, address := range sheet.Addresses() {
		resp.Balances = append(resp.Balances, balance{
			Address: address,
			Balance: sheet.Value(address),
		})
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Chain returns every block in the chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Chain(), http.StatusOK)
}

// Export returns the chain as an indented JSON download.
func (h Handlers) Export(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	data, err := h.State.ChainJSON()
	if err != nil {
		return fmt.Errorf("exporting chain: %w", err)
	}

	w.Header().Set("Content-Disposition", `attachment; filename="blockchain.json"`)

	return web.RespondRaw(ctx, w, []byte(data), "application/json", http.StatusOK)
}

// Validate reports the structural validity of the chain and whether every
// stored hash still matches its block.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := validation{
		Valid:    h.State.IsChainValid(),
		Verified: true,
	}

	if err := h.State.VerifyHashes(); err != nil {
		resp.Verified = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Stats returns the summary statistics of the chain.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := stats{
		Blocks:            h.State.Length(),
		TotalTransactions: h.State.TotalTransactions(),
		Pending:           h.State.PendingCount(),
		Difficulty:        h.State.Difficulty(),
		MiningReward:      h.State.MiningReward(),
		AverageBlockTime:  h.State.AverageBlockTime(),
		Valid:             h.State.IsChainValid(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Pending returns the set of transactions waiting to be mined.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Pending(), http.StatusOK)
}

// RequestCoins pays faucet coins to an address.
func (h Handlers) RequestCoins(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req FaucetRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	tx, err := h.Faucet.Request(req.Address)
	if err != nil {
		var cde *faucet.CooldownError
		switch {
		case errors.As(err, &cde):
			return errs.NewRetryable(err, http.StatusTooManyRequests, cde.Remaining)
		case errors.Is(err, faucet.ErrEmptyAddress):
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("faucet request: %w", err)
	}

	h.Log.Infow("faucet", "traceid", v.TraceID, "address", tx.To, "amount", h.Faucet.Amount())

	resp := paid{
		Status:  "faucet transaction added to mempool",
		Address: tx.To,
		Amount:  h.Faucet.Amount(),
		Tx:      tx,
		Pending: h.State.PendingCount(),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}
