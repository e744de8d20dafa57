package keeper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bondedValidatorsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "corechain_bonded_validators",
		Help: "Number of validators in the bonded set after the last end-of-block recomputation.",
	})
	lastTotalPowerGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "corechain_last_total_power",
		Help: "Total consensus power of the bonded set.",
	})
)
