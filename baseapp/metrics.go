package baseapp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	blocksCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "corechain_blocks_committed_total",
		Help: "Number of blocks committed since process start.",
	})
	txsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "corechain_txs_delivered_total",
		Help: "Number of DeliverTx requests processed.",
	})
	txsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "corechain_txs_failed_total",
		Help: "Number of DeliverTx requests that returned a non-zero code.",
	})
	mempoolRejects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "corechain_checktx_rejects_total",
		Help: "Number of CheckTx requests rejected at admission.",
	})
	blockGasUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "corechain_block_gas_used",
		Help: "Gas consumed by the last committed block.",
	})
	committedHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "corechain_committed_height",
		Help: "Height of the last committed block.",
	})
)
