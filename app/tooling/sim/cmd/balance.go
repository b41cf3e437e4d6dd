package cmd

import (
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

type balance struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

type balances struct {
	LatestBlock string    `json:"latestBlock"`
	Pending     int       `json:"pending"`
	Balances    []balance `json:"balances"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Print the mined balance of an address.",
	Args:  cobra.ExactArgs(1),
	Run:   balanceRun,
}

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print the mined balance of every address.",
	Run:   balancesRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd, balancesCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	var bal balance
	if err := call(http.MethodGet, "/v1/balances/"+url.PathEscape(args[0]), nil, &bal); err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Address:", bal.Address)
	fmt.Println(bal.Balance)
}

func balancesRun(cmd *cobra.Command, args []string) {
	var bals balances
	if err := call(http.MethodGet, "/v1/balances", nil, &bals); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("latest block: %s\npending: %d\n\n", bals.LatestBlock, bals.Pending)
	for _, bal := range bals.Balances {
		fmt.Printf("%-20s %v\n", bal.Address, bal.Balance)
	}
}
