package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	from   string
	to     string
	amount float64
	fee    float64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		tx := struct {
			From   string  `json:"from"`
			To     string  `json:"to"`
			Amount float64 `json:"amount"`
			Fee    float64 `json:"fee"`
		}{
			From:   from,
			To:     to,
			Amount: amount,
			Fee:    fee,
		}

		var resp struct {
			Tx      database.Tx `json:"tx"`
			Pending int         `json:"pending"`
		}
		if err := call(http.MethodPost, "/v1/tx/submit", tx, &resp); err != nil {
			log.Fatal(err)
		}

		fmt.Printf("%s\npending: %d\n", resp.Tx, resp.Pending)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&from, "from", "f", "", "Address sending the coins.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address receiving the coins.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.Flags().Float64VarP(&fee, "fee", "c", 0, "Fee paid to send.")
}
