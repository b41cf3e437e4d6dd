package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var faucetCmd = &cobra.Command{
	Use:   "faucet <address>",
	Short: "Request free coins for an address.",
	Args:  cobra.ExactArgs(1),
	Run:   faucetRun,
}

func init() {
	rootCmd.AddCommand(faucetCmd)
}

func faucetRun(cmd *cobra.Command, args []string) {
	req := struct {
		Address string `json:"address"`
	}{
		Address: args[0],
	}

	var resp struct {
		Amount float64     `json:"amount"`
		Tx     database.Tx `json:"tx"`
	}
	if err := call(http.MethodPost, "/v1/faucet", req, &resp); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%v coins pending for %s, mine a block to receive them\n", resp.Amount, resp.Tx.To)
}
