package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/faucet"
	"github.com/ardanlabs/blocksim/foundation/blockchain/state"
	"github.com/spf13/cobra"
)

var demoDifficulty int

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a short scripted session against an in process chain.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := demoRun(demoDifficulty); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().IntVarP(&demoDifficulty, "difficulty", "d", 3, "Difficulty used for the demo blocks, clamped to 1-6.")
}

func demoRun(difficulty int) error {
	st := state.New(state.Config{Difficulty: state.ClampDifficulty(difficulty)})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := st.WaitForInitialization(ctx); err != nil {
		return fmt.Errorf("waiting for genesis: %w", err)
	}

	mine := func(miner string) error {
		bar := newMiningBar(fmt.Sprintf("Mining block %d...", st.Length()))
		block, err := st.MineBlock(context.Background(), miner, localProgress(bar, st.Difficulty()))
		bar.Finish()
		fmt.Println()

		if err != nil {
			return fmt.Errorf("mining: %w", err)
		}

		fmt.Printf("block[%d] hash[%s] nonce[%d] trans[%d]\n", block.Index, block.Hash, block.Nonce, len(block.Transactions))
		return nil
	}

	fct := faucet.New(st, faucet.Config{})
	if _, err := fct.Request("alice"); err != nil {
		return fmt.Errorf("faucet: %w", err)
	}

	if err := mine("miner1"); err != nil {
		return err
	}

	st.AddTransaction(database.NewTx("alice", "bob", 25, 1))
	st.AddTransaction(database.NewTx("bob", "carol", 5, 0))

	if err := mine("miner1"); err != nil {
		return err
	}

	fmt.Println()
	sheet := st.Balances()
	for _, address := range sheet.Addresses() {
		fmt.Printf("%-8s %v\n", address, sheet.Value(address))
	}

	fmt.Printf("\nblocks: %d  transactions: %d  avg block time: %.0fms  valid: %t\n",
		st.Length(), st.TotalTransactions(), st.AverageBlockTime(), st.IsChainValid())

	return nil
}
