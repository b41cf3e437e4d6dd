package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/events"
	"github.com/gorilla/websocket"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var miner string

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine the pending transactions into a new block.",
	Run:   mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().StringVarP(&miner, "miner", "m", "miner1", "Address that receives the mining reward.")
}

func mineRun(cmd *cobra.Command, args []string) {
	bar := newMiningBar("Mining block...")

	// Progress is streamed over the events websocket. Mining still works
	// if the socket can't be opened, the bar just won't move.
	wsURL := strings.Replace(nodeURL, "http", "ws", 1) + "/v1/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		defer conn.Close()
		go watchProgress(conn, bar)
	}

	req := struct {
		Miner string `json:"miner"`
	}{
		Miner: miner,
	}

	var block database.Block
	err = call(http.MethodPost, "/v1/mining/mine", req, &block)
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("block[%d] hash[%s] nonce[%d] difficulty[%d] trans[%d]\n",
		block.Index, block.Hash, block.Nonce, block.Difficulty, len(block.Transactions))
}

func watchProgress(conn *websocket.Conn, bar *progressbar.ProgressBar) {
	for {
		var evt struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&evt); err != nil {
			return
		}

		if evt.Type != events.TypeProgress {
			continue
		}

		var p struct {
			Percent float64 `json:"percent"`
		}
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			continue
		}

		bar.Set(int(p.Percent))
	}
}
