package service

import (
	"stablecircle/internal/domain"

	"github.com/shopspring/decimal"
)

// Recipient returns the payout recipient for the hub's current round:
// members[currentRound mod len(members)]. payoutReceived is not consulted.
func Recipient(h *domain.Hub) (domain.Member, bool) {
	if len(h.Members) == 0 {
		return domain.Member{}, false
	}
	return h.Members[h.CurrentRound%len(h.Members)], true
}

// RoundComplete reports whether every member has paid at least the hub's
// contribution amount into the round described by totals.
func RoundComplete(h *domain.Hub, totals map[string]decimal.Decimal) bool {
	if len(h.Members) == 0 {
		return false
	}
	for _, m := range h.Members {
		if totals[m.Wallet].LessThan(h.ContributionAmount) {
			return false
		}
	}
	return true
}

// AdvanceRound closes the current round: the recipient is marked paid and the
// hub moves to the next round, or to completed after the final one.
func AdvanceRound(h *domain.Hub, totals map[string]decimal.Decimal) *domain.RoundOutcome {
	out := &domain.RoundOutcome{Round: h.CurrentRound}
	for _, amt := range totals {
		out.Pot = out.Pot.Add(amt)
	}
	if r, ok := Recipient(h); ok {
		idx := h.MemberIndex(r.Wallet)
		h.Members[idx].PayoutReceived = true
		h.Members[idx].PayoutRound = h.CurrentRound
		out.Recipient = h.Members[idx]
	}
	if h.CurrentRound >= h.TotalRounds {
		h.Status = domain.HubStatusCompleted
		out.Completed = true
		return out
	}
	h.CurrentRound++
	return out
}

// RotationView is a read-only summary of a hub's current round.
type RotationView struct {
	HubID        string                     `json:"hub_id"`
	Status       domain.HubStatus           `json:"status"`
	CurrentRound int                        `json:"current_round"`
	TotalRounds  int                        `json:"total_rounds"`
	Recipient    *domain.Member             `json:"recipient,omitempty"`
	RoundTotals  map[string]decimal.Decimal `json:"round_totals"`
	Complete     bool                       `json:"complete"`
}
