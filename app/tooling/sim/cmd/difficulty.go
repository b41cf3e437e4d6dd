package cmd

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var difficultyCmd = &cobra.Command{
	Use:   "difficulty [value]",
	Short: "Show or change the mining difficulty.",
	Args:  cobra.MaximumNArgs(1),
	Run:   difficultyRun,
}

func init() {
	rootCmd.AddCommand(difficultyCmd)
}

func difficultyRun(cmd *cobra.Command, args []string) {
	var resp struct {
		Difficulty int `json:"difficulty"`
		Min        int `json:"min"`
		Max        int `json:"max"`
	}

	switch len(args) {
	case 0:
		if err := call(http.MethodGet, "/v1/mining/difficulty", nil, &resp); err != nil {
			log.Fatal(err)
		}

	default:
		d, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatalf("difficulty must be a number: %s", args[0])
		}

		upd := struct {
			Difficulty int `json:"difficulty"`
		}{
			Difficulty: d,
		}
		if err := call(http.MethodPut, "/v1/mining/difficulty", upd, &resp); err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("difficulty: %d (range %d-%d)\n", resp.Difficulty, resp.Min, resp.Max)
}
