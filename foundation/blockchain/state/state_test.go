package state_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/state"
	"github.com/ardanlabs/blocksim/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func ifErrFailNow(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

// newState constructs an engine at difficulty 1 and waits for genesis.
func newState(t *testing.T, cfg state.Config) *state.State {
	if cfg.Difficulty == 0 {
		cfg.Difficulty = 1
	}

	s := state.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ifErrFailNow(t, s.WaitForInitialization(ctx))

	return s
}

func mine(t *testing.T, s *state.State, miner string) database.Block {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	block, err := s.MineBlock(ctx, miner, nil)
	ifErrFailNow(t, err)

	return block
}

// =============================================================================

func Test_Initialize(t *testing.T) {
	t.Log("Given the need to start a chain engine.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen waiting for genesis.", testID)
		{
			s := state.New(state.Config{})

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := s.WaitForInitialization(ctx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to wait for genesis: %v", failed, testID, err)
			}
			if !s.IsInitialized() {
				t.Fatalf("\t%s\tTest %d:\tShould report being initialized.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be initialized.", success, testID)

			if s.Difficulty() != state.DefaultDifficulty {
				t.Fatalf("\t%s\tTest %d:\tShould start at the default difficulty: %d", failed, testID, s.Difficulty())
			}
			t.Logf("\t%s\tTest %d:\tShould start at the default difficulty.", success, testID)

			chain := s.Chain()
			if len(chain) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have only genesis: %d", failed, testID, len(chain))
			}

			gen := chain[0]
			if gen.PreviousHash != "0" || len(gen.Transactions) != 0 || gen.Hash != gen.CalculateHash() {
				t.Fatalf("\t%s\tTest %d:\tShould have a proper genesis block: %+v", failed, testID, gen)
			}
			if gen.Difficulty != state.DefaultDifficulty {
				t.Fatalf("\t%s\tTest %d:\tShould stamp genesis with the difficulty: %d", failed, testID, gen.Difficulty)
			}
			t.Logf("\t%s\tTest %d:\tShould have a proper genesis block.", success, testID)

			if !s.IsChainValid() {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
		}
	}
}

func Test_MineAndTransfer(t *testing.T) {
	log, err := logger.New("TEST")
	ifErrFailNow(t, err)
	defer log.Sync()

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", "00000000-0000-0000-0000-000000000000")
	}

	t.Log("Given the need to transfer value between addresses.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen alice pays bob and bob mines the block.", testID)
		{
			s := newState(t, state.Config{EvHandler: ev})

			ok := s.AddTransaction(database.NewTx("alice", "bob", 50, 1))
			if !ok {
				t.Fatalf("\t%s\tTest %d:\tShould accept the transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the transaction.", success, testID)

			mine(t, s, "bob")

			if s.Length() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have a chain of 2 blocks: %d", failed, testID, s.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould have a chain of 2 blocks.", success, testID)

			if got := s.Balance("bob"); got != 60 {
				t.Fatalf("\t%s\tTest %d:\tShould credit bob with the transfer and reward: %v", failed, testID, got)
			}
			if got := s.Balance("alice"); got != -51 {
				t.Fatalf("\t%s\tTest %d:\tShould debit alice the amount and fee: %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould update both balances.", success, testID)

			if s.PendingCount() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould drain the mempool: %d", failed, testID, s.PendingCount())
			}
			t.Logf("\t%s\tTest %d:\tShould drain the mempool.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen alice was funded by an earlier block.", testID)
		{
			s := newState(t, state.Config{EvHandler: ev})

			s.AddTransaction(database.NewTx(database.SystemAddress, "alice", 100, 0))
			mine(t, s, "alice")

			alice := s.Balance("alice")
			bob := s.Balance("bob")
			length := s.Length()

			s.AddTransaction(database.NewTx("alice", "bob", 50, 1))
			mine(t, s, "bob")

			if s.Length() != length+1 {
				t.Fatalf("\t%s\tTest %d:\tShould grow the chain by one block.", failed, testID)
			}
			if got := s.Balance("bob") - bob; got != 60 {
				t.Fatalf("\t%s\tTest %d:\tShould increase bob by 60: %v", failed, testID, got)
			}
			if got := alice - s.Balance("alice"); got != 51 {
				t.Fatalf("\t%s\tTest %d:\tShould decrease alice by 51: %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould move 60 to bob and 51 from alice.", success, testID)

			if !s.IsChainValid() {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain.", failed, testID)
			}
			if err := s.VerifyHashes(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould have genuine hashes: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain with genuine hashes.", success, testID)
		}
	}
}

func Test_EmptyMempool(t *testing.T) {
	t.Log("Given the need to mine without pending transactions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the mempool is empty.", testID)
		{
			s := newState(t, state.Config{})
			block := mine(t, s, "miner")

			if len(block.Transactions) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould hold only the reward: %d", failed, testID, len(block.Transactions))
			}
			reward := block.Transactions[0]
			if reward.From != database.SystemAddress || reward.To != "miner" || reward.Amount != state.DefaultMiningReward {
				t.Fatalf("\t%s\tTest %d:\tShould hold the reward: %+v", failed, testID, reward)
			}
			t.Logf("\t%s\tTest %d:\tShould hold only the reward.", success, testID)

			if !s.IsChainValid() {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
		}
	}
}

func Test_AddTransaction(t *testing.T) {
	type table struct {
		name string
		tx   database.Tx
		ok   bool
	}

	tt := []table{
		{name: "good", tx: database.Tx{ID: "1", From: "alice", To: "bob", Amount: 1}, ok: true},
		{name: "overdraft", tx: database.Tx{ID: "2", From: "nobody", To: "bob", Amount: 1_000_000}, ok: true},
		{name: "negative-fee", tx: database.Tx{ID: "3", From: "alice", To: "bob", Amount: 1, Fee: -1}, ok: true},
		{name: "duplicate-id", tx: database.Tx{ID: "1", From: "alice", To: "bob", Amount: 1}, ok: true},
		{name: "no-from", tx: database.Tx{ID: "4", To: "bob", Amount: 1}},
		{name: "no-to", tx: database.Tx{ID: "5", From: "alice", Amount: 1}},
		{name: "zero", tx: database.Tx{ID: "6", From: "alice", To: "bob"}},
		{name: "negative", tx: database.Tx{ID: "7", From: "alice", To: "bob", Amount: -1}},
		{name: "nan", tx: database.Tx{ID: "8", From: "alice", To: "bob", Amount: math.NaN()}},
		{name: "inf", tx: database.Tx{ID: "9", From: "alice", To: "bob", Amount: math.Inf(1)}},
		{name: "nan-fee", tx: database.Tx{ID: "10", From: "alice", To: "bob", Amount: 1, Fee: math.NaN()}},
	}

	t.Log("Given the need to submit transactions to the mempool.")
	{
		s := newState(t, state.Config{})

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen submitting a %s transaction.", testID, tst.name)
			{
				before := s.PendingCount()

				if ok := s.AddTransaction(tst.tx); ok != tst.ok {
					t.Fatalf("\t%s\tTest %d:\tShould get %v from the submission.", failed, testID, tst.ok)
				}
				t.Logf("\t%s\tTest %d:\tShould get %v from the submission.", success, testID, tst.ok)

				exp := before
				if tst.ok {
					exp++
				}
				if got := s.PendingCount(); got != exp {
					t.Fatalf("\t%s\tTest %d:\tShould have %d pending: got %d", failed, testID, exp, got)
				}
				t.Logf("\t%s\tTest %d:\tShould have %d pending.", success, testID, exp)
			}
		}

		testID := len(tt)
		t.Logf("\tTest %d:\tWhen mining the accepted transactions.", testID)
		{
			block := mine(t, s, "miner")
			if len(block.Transactions) != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould mine the 4 accepted transactions plus the reward: %d", failed, testID, len(block.Transactions))
			}
			t.Logf("\t%s\tTest %d:\tShould mine the 4 accepted transactions plus the reward.", success, testID)

			if got := s.Balance("nobody"); got != -1_000_000 {
				t.Fatalf("\t%s\tTest %d:\tShould allow a negative balance: %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould allow a negative balance.", success, testID)
		}
	}
}

func Test_Difficulty(t *testing.T) {
	type table struct {
		set int
		exp int
	}

	tt := []table{
		{set: 0, exp: 1},
		{set: -5, exp: 1},
		{set: 10, exp: 6},
		{set: 3, exp: 3},
		{set: 6, exp: 6},
		{set: 1, exp: 1},
	}

	t.Log("Given the need to configure the mining difficulty.")
	{
		s := newState(t, state.Config{})

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen setting difficulty %d.", testID, tst.set)
			{
				s.SetDifficulty(tst.set)
				if got := s.Difficulty(); got != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould have difficulty %d: got %d", failed, testID, tst.exp, got)
				}
				t.Logf("\t%s\tTest %d:\tShould have difficulty %d.", success, testID, tst.exp)
			}
		}

		testID := len(tt)
		t.Logf("\tTest %d:\tWhen changing difficulty between blocks.", testID)
		{
			s.SetDifficulty(1)
			mine(t, s, "miner")
			s.SetDifficulty(2)
			block := mine(t, s, "miner")

			chain := s.Chain()
			if chain[1].Difficulty != 1 || chain[2].Difficulty != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould stamp each block with its own difficulty.", failed, testID)
			}
			if database.LeadingZeros(block.Hash) < 2 {
				t.Fatalf("\t%s\tTest %d:\tShould mine at the new difficulty: %s", failed, testID, block.Hash)
			}
			t.Logf("\t%s\tTest %d:\tShould stamp each block with its own difficulty.", success, testID)

			if !s.IsChainValid() {
				t.Fatalf("\t%s\tTest %d:\tShould have a valid chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
		}
	}
}

func Test_ConfigDifficulty(t *testing.T) {
	type table struct {
		name string
		cfg  int
		exp  int
	}

	tt := []table{
		{name: "zero", cfg: state.ClampDifficulty(0), exp: state.MinDifficulty},
		{name: "negative", cfg: state.ClampDifficulty(-2), exp: state.MinDifficulty},
		{name: "high", cfg: state.ClampDifficulty(12), exp: state.MaxDifficulty},
		{name: "in-range", cfg: state.ClampDifficulty(2), exp: 2},
		{name: "unset", cfg: 0, exp: state.DefaultDifficulty},
	}

	t.Log("Given the need to start an engine at a configured difficulty.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen starting with a %s difficulty.", testID, tst.name)
			{
				s := state.New(state.Config{Difficulty: tst.cfg})

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				ifErrFailNow(t, s.WaitForInitialization(ctx))
				cancel()

				if got := s.Difficulty(); got != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould start at difficulty %d: got %d", failed, testID, tst.exp, got)
				}
				t.Logf("\t%s\tTest %d:\tShould start at difficulty %d.", success, testID, tst.exp)

				s.SetDifficulty(tst.cfg)
				if got := s.Difficulty(); tst.name != "unset" && got != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould agree with SetDifficulty: got %d", failed, testID, got)
				}
				t.Logf("\t%s\tTest %d:\tShould agree with SetDifficulty.", success, testID)
			}
		}
	}
}

func Test_Conservation(t *testing.T) {
	t.Log("Given the need to conserve value across the chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen submitting and mining a sequence of transactions.", testID)
		{
			s := newState(t, state.Config{})
			addresses := []string{"alice", "bob", "charlie", "demo_user"}

			var fees float64
			for i := 0; i < 12; i++ {
				from := addresses[i%len(addresses)]
				to := addresses[(i+1)%len(addresses)]
				fee := float64(i%3) * 0.5

				s.AddTransaction(database.NewTx(from, to, float64(i+1), fee))
				fees += fee

				if i%3 == 2 {
					mine(t, s, addresses[i%len(addresses)])
				}
			}

			mined := s.Length() - 1

			var sum float64
			for _, address := range addresses {
				sum += s.Balance(address)
			}

			exp := float64(mined)*state.DefaultMiningReward - fees
			if sum != exp {
				t.Fatalf("\t%s\tTest %d:\tShould sum to the minted rewards less burned fees: got %v, exp %v", failed, testID, sum, exp)
			}
			t.Logf("\t%s\tTest %d:\tShould sum to the minted rewards less burned fees.", success, testID)

			if got := s.Balance(database.SystemAddress); got != -float64(mined)*state.DefaultMiningReward {
				t.Fatalf("\t%s\tTest %d:\tShould show the minted rewards as system debits: %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould show the minted rewards as system debits.", success, testID)

			if got := s.TotalTransactions(); got != 12+mined {
				t.Fatalf("\t%s\tTest %d:\tShould count every transaction and reward: %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould count every transaction and reward.", success, testID)
		}
	}
}

func Test_DefensiveCopies(t *testing.T) {
	t.Log("Given the need to protect the engine from callers.")
	{
		s := newState(t, state.Config{})
		s.AddTransaction(database.NewTx("alice", "bob", 5, 0))
		mine(t, s, "bob")
		s.AddTransaction(database.NewTx("bob", "alice", 1, 0))

		testID := 0
		t.Logf("\tTest %d:\tWhen changing the returned chain.", testID)
		{
			chain := s.Chain()
			chain[1].Hash = "tampered"
			chain[1].Transactions[0].Amount = 1_000
			chain[0] = database.Block{}

			again := s.Chain()
			if again[1].Hash == "tampered" || again[1].Transactions[0].Amount != 5 || again[0].PreviousHash != "0" {
				t.Fatalf("\t%s\tTest %d:\tShould not change the engine chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not change the engine chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen changing the returned pending transactions.", testID)
		{
			pending := s.Pending()
			pending[0].Amount = 1_000

			if s.Pending()[0].Amount != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not change the engine mempool.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not change the engine mempool.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reading without any changes.", testID)
		{
			json1, err := s.ChainJSON()
			ifErrFailNow(t, err)
			json2, err := s.ChainJSON()
			ifErrFailNow(t, err)

			if json1 != json2 || s.Balance("bob") != s.Balance("bob") || s.IsChainValid() != s.IsChainValid() {
				t.Fatalf("\t%s\tTest %d:\tShould get identical results.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get identical results.", success, testID)
		}
	}
}

func Test_Stats(t *testing.T) {
	t.Log("Given the need to report chain statistics.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen blocks are a second apart.", testID)
		{
			var mu sync.Mutex
			clock := time.UnixMilli(1_700_000_000_000)
			now := func() time.Time {
				mu.Lock()
				defer mu.Unlock()

				clock = clock.Add(time.Second)
				return clock
			}

			s := newState(t, state.Config{Now: now})
			if got := s.AverageBlockTime(); got != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould be zero with only genesis: %v", failed, testID, got)
			}

			mine(t, s, "miner")
			mine(t, s, "miner")
			mine(t, s, "miner")

			if got := s.AverageBlockTime(); got != 1_000 {
				t.Fatalf("\t%s\tTest %d:\tShould average one second: %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould average one second.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen exporting the chain.", testID)
		{
			s := newState(t, state.Config{})
			mine(t, s, "miner")

			data, err := s.ChainJSON()
			ifErrFailNow(t, err)

			for _, field := range []string{`"index": 0`, `"previousHash": "0"`, `"transactions": []`, `"difficulty": 1`, `"from": "system"`, `"fee": 0`} {
				if !strings.Contains(data, field) {
					t.Fatalf("\t%s\tTest %d:\tShould export %s: %s", failed, testID, field, data)
				}
			}
			if !strings.HasPrefix(data, "[\n  {") {
				t.Fatalf("\t%s\tTest %d:\tShould pretty print an array: %s", failed, testID, data)
			}
			t.Logf("\t%s\tTest %d:\tShould export the chain as indented JSON.", success, testID)
		}
	}
}

func Test_MiningControl(t *testing.T) {
	t.Log("Given the need to control mining operations.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining is cancelled.", testID)
		{
			s := newState(t, state.Config{})
			s.AddTransaction(database.NewTx("alice", "bob", 5, 0))

			ctx, cancel := context.WithCancel(context.Background())
			_, err := s.MineBlock(ctx, "miner", func(nonce uint64) { cancel() })
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest %d:\tShould get a cancelled error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get a cancelled error.", success, testID)

			if s.Length() != 1 || s.PendingCount() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould leave the chain and mempool untouched.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the chain and mempool untouched.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining is already running.", testID)
		{
			s := newState(t, state.Config{})

			started := make(chan struct{})
			release := make(chan struct{})
			var once sync.Once

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			errs := make(chan error, 1)
			go func() {
				_, err := s.MineBlock(ctx, "first", func(nonce uint64) {
					once.Do(func() {
						close(started)
						<-release
						cancel()
					})
				})
				errs <- err
			}()

			<-started
			_, err := s.MineBlock(context.Background(), "second", nil)
			close(release)

			if !errors.Is(err, state.ErrMiningInProgress) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a second mining operation: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a second mining operation.", success, testID)

			if err := <-errs; !errors.Is(err, context.Canceled) {
				t.Fatalf("\t%s\tTest %d:\tShould cancel the first mining operation: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould cancel the first mining operation.", success, testID)

			mine(t, s, "third")
			if s.Length() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould mine again once free: %d", failed, testID, s.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould mine again once free.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen transactions arrive while mining.", testID)
		{
			s := newState(t, state.Config{})
			s.AddTransaction(database.Tx{ID: "before", From: "alice", To: "bob", Amount: 1})

			var once sync.Once
			block, err := s.MineBlock(context.Background(), "miner", func(nonce uint64) {
				once.Do(func() {
					s.AddTransaction(database.Tx{ID: "during", From: "bob", To: "alice", Amount: 1})
				})
			})
			ifErrFailNow(t, err)

			if len(block.Transactions) != 2 || block.Transactions[0].ID != "before" {
				t.Fatalf("\t%s\tTest %d:\tShould mine the snapshot taken at the start.", failed, testID)
			}
			pending := s.Pending()
			if len(pending) != 1 || pending[0].ID != "during" {
				t.Fatalf("\t%s\tTest %d:\tShould keep the late transaction pending: %+v", failed, testID, pending)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the late transaction pending.", success, testID)
		}
	}
}
