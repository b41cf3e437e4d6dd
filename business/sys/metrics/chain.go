package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChainReader represents the read behavior needed from the chain engine.
type ChainReader interface {
	IsInitialized() bool
	Length() int
	TotalTransactions() int
	PendingCount() int
	Difficulty() int
	AverageBlockTime() float64
	IsChainValid() bool
}

// ChainCollector reports chain statistics every time it is scraped.
type ChainCollector struct {
	chain            ChainReader
	blocks           *prometheus.Desc
	transactions     *prometheus.Desc
	pending          *prometheus.Desc
	difficulty       *prometheus.Desc
	averageBlockTime *prometheus.Desc
	valid            *prometheus.Desc
}

// NewChainCollector constructs a collector for the chain.
func NewChainCollector(chain ChainReader) *ChainCollector {
	desc := func(subsystem string, name string, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, nil, nil)
	}

	return &ChainCollector{
		chain:            chain,
		blocks:           desc("chain", "blocks", "Number of blocks in the chain including genesis."),
		transactions:     desc("chain", "transactions_total", "Number of transactions mined into the chain."),
		pending:          desc("mempool", "pending", "Number of transactions waiting to be mined."),
		difficulty:       desc("mining", "difficulty", "Difficulty the next block will be mined at."),
		averageBlockTime: desc("chain", "average_block_time_milliseconds", "Mean time between consecutive blocks."),
		valid:            desc("chain", "valid", "1 when the chain passes validation."),
	}
}

// Describe implements the prometheus.Collector interface.
func (c *ChainCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.blocks
	ch <- c.transactions
	ch <- c.pending
	ch <- c.difficulty
	ch <- c.averageBlockTime
	ch <- c.valid
}

// Collect implements the prometheus.Collector interface.
func (c *ChainCollector) Collect(ch chan<- prometheus.Metric) {
	if !c.chain.IsInitialized() {
		return
	}

	valid := 0.0
	if c.chain.IsChainValid() {
		valid = 1
	}

	ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(c.chain.Length()))
	ch <- prometheus.MustNewConstMetric(c.transactions, prometheus.CounterValue, float64(c.chain.TotalTransactions()))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(c.chain.PendingCount()))
	ch <- prometheus.MustNewConstMetric(c.difficulty, prometheus.GaugeValue, float64(c.chain.Difficulty()))
	ch <- prometheus.MustNewConstMetric(c.averageBlockTime, prometheus.GaugeValue, c.chain.AverageBlockTime())
	ch <- prometheus.MustNewConstMetric(c.valid, prometheus.GaugeValue, valid)
}
