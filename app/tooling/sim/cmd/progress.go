package cmd

import (
	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/schollz/progressbar/v3"
)

// newMiningBar constructs a bar that tracks the estimated percentage of
// the nonce search.
func newMiningBar(description string) *progressbar.ProgressBar {
	bar := progressbar.NewOptions(
		100,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	bar.RenderBlank()

	return bar
}

// localProgress returns a progress function for an in process mine that
// moves the bar every thousand nonces.
func localProgress(bar *progressbar.ProgressBar, difficulty int) func(nonce uint64) {
	return func(nonce uint64) {
		if nonce%1_000 != 0 {
			return
		}
		bar.Set(int(database.EstimateProgress(nonce, difficulty)))
	}
}
