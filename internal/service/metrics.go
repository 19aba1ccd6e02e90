package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "stablecircle"

var (
	ContributionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "contributions_total",
			Help:      "Contribution attempts by result",
		},
		[]string{"result"},
	)
	ContributedAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "contributed_amount_total",
			Help:      "Sum of recorded contribution amounts",
		},
	)
	HubJoinsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hub_joins_total",
			Help:      "Hub join attempts by result",
		},
		[]string{"result"},
	)
	ReferralsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "referrals_total",
			Help:      "Referral rewards granted",
		},
	)
	StreakBonusesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "streak_bonuses_total",
			Help:      "Streak bonuses granted",
		},
	)
	RoundsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rounds_completed_total",
			Help:      "Hub rounds closed",
		},
	)
	UnrecordedPaymentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unrecorded_payments_total",
			Help:      "Transfers that succeeded but could not be written to the ledger",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ContributionsTotal,
		ContributedAmount,
		HubJoinsTotal,
		ReferralsTotal,
		StreakBonusesTotal,
		RoundsCompletedTotal,
		UnrecordedPaymentsTotal,
	)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return "error"
}
