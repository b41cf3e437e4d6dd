package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var output string

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "List the blocks in the chain.",
	Run: func(cmd *cobra.Command, args []string) {
		var blocks []database.Block
		if err := call(http.MethodGet, "/v1/chain", nil, &blocks); err != nil {
			log.Fatal(err)
		}

		for _, block := range blocks {
			fmt.Printf("block[%d] hash[%s] prev[%s] nonce[%d] difficulty[%d]\n",
				block.Index, block.Hash, block.PreviousHash, block.Nonce, block.Difficulty)
			for _, tx := range block.Transactions {
				fmt.Printf("    %s\n", tx)
			}
		}
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the chain as JSON.",
	Run: func(cmd *cobra.Command, args []string) {
		var data []byte
		if err := call(http.MethodGet, "/v1/chain/export", nil, &data); err != nil {
			log.Fatal(err)
		}

		if output == "" {
			fmt.Println(string(data))
			return
		}

		if err := os.WriteFile(output, data, 0644); err != nil {
			log.Fatal(err)
		}
		fmt.Println("chain written to", output)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the chain links and stored hashes.",
	Run: func(cmd *cobra.Command, args []string) {
		var resp struct {
			Valid    bool   `json:"valid"`
			Verified bool   `json:"verified"`
			Error    string `json:"error"`
		}
		if err := call(http.MethodGet, "/v1/chain/validate", nil, &resp); err != nil {
			log.Fatal(err)
		}

		fmt.Printf("valid: %t\nverified: %t\n", resp.Valid, resp.Verified)
		if resp.Error != "" {
			fmt.Println(resp.Error)
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the chain statistics.",
	Run: func(cmd *cobra.Command, args []string) {
		var resp struct {
			Blocks            int     `json:"blocks"`
			TotalTransactions int     `json:"totalTransactions"`
			Pending           int     `json:"pending"`
			Difficulty        int     `json:"difficulty"`
			MiningReward      float64 `json:"miningReward"`
			AverageBlockTime  float64 `json:"averageBlockTime"`
			Valid             bool    `json:"valid"`
		}
		if err := call(http.MethodGet, "/v1/chain/stats", nil, &resp); err != nil {
			log.Fatal(err)
		}

		fmt.Printf("blocks: %d\ntransactions: %d\npending: %d\ndifficulty: %d\nreward: %v\navg block time: %.0fms\nvalid: %t\n",
			resp.Blocks, resp.TotalTransactions, resp.Pending, resp.Difficulty, resp.MiningReward, resp.AverageBlockTime, resp.Valid)
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List the transactions waiting to be mined.",
	Run: func(cmd *cobra.Command, args []string) {
		var trans []database.Tx
		if err := call(http.MethodGet, "/v1/tx/pending", nil, &trans); err != nil {
			log.Fatal(err)
		}

		for _, tx := range trans {
			fmt.Println(tx)
		}
	},
}

func init() {
	rootCmd.AddCommand(chainCmd, exportCmd, validateCmd, statsCmd, pendingCmd)
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "File to write the chain to.")
}
