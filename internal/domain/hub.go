package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HubSchemaVersion is the canonical SavingsHub shape. Version 1 was the legacy Group.
const HubSchemaVersion = 2

type HubStatus string

const (
	HubStatusActive    HubStatus = "active"
	HubStatusCompleted HubStatus = "completed"
	HubStatusCancelled HubStatus = "cancelled"
)

// Terminal reports whether no further contributions are accepted.
func (s HubStatus) Terminal() bool {
	return s == HubStatusCompleted || s == HubStatusCancelled
}

// Member is one seat in a hub. Members are append-only.
type Member struct {
	Wallet         string    `db:"wallet" json:"wallet"`
	Name           string    `db:"name" json:"name"`
	Position       int       `db:"position" json:"position"`
	IsAdmin        bool      `db:"is_admin" json:"is_admin"`
	JoinedAt       time.Time `db:"joined_at" json:"joined_at"`
	PayoutReceived bool      `db:"payout_received" json:"payout_received"`
	PayoutRound    int       `db:"payout_round" json:"payout_round,omitempty"`
}

// Hub is a rotating savings pool.
type Hub struct {
	ID                 string           `db:"id" json:"id"`
	SchemaVersion      int              `db:"schema_version" json:"schema_version"`
	Name               string           `db:"name" json:"name"`
	Description        string           `db:"description" json:"description,omitempty"`
	Goal               *decimal.Decimal `db:"goal" json:"goal,omitempty"`
	ContributionAmount decimal.Decimal  `db:"contribution_amount" json:"contribution_amount"`
	DurationDays       int              `db:"duration_days" json:"duration_days,omitempty"`
	Deadline           *time.Time       `db:"deadline" json:"deadline,omitempty"`
	MaxMembers         int              `db:"max_members" json:"max_members"`
	Creator            string           `db:"creator" json:"creator"`
	Members            []Member         `json:"members"`
	InviteCode         string           `db:"invite_code" json:"invite_code"`
	Status             HubStatus        `db:"status" json:"status"`
	CurrentRound       int              `db:"current_round" json:"current_round"`
	TotalRounds        int              `db:"total_rounds" json:"total_rounds"`
	TotalSaved         decimal.Decimal  `db:"total_saved" json:"total_saved"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
}

func (h *Hub) Clone() *Hub {
	if h == nil {
		return nil
	}
	c := *h
	c.Members = append([]Member(nil), h.Members...)
	if h.Goal != nil {
		g := *h.Goal
		c.Goal = &g
	}
	if h.Deadline != nil {
		d := *h.Deadline
		c.Deadline = &d
	}
	return &c
}

func (h *Hub) MemberIndex(wallet string) int {
	for i, m := range h.Members {
		if m.Wallet == wallet {
			return i
		}
	}
	return -1
}

func (h *Hub) IsMember(wallet string) bool {
	return h.MemberIndex(wallet) >= 0
}

// Involves reports whether wallet created or belongs to the hub.
func (h *Hub) Involves(wallet string) bool {
	return h.Creator == wallet || h.IsMember(wallet)
}

// AddMember appends wallet, enforcing capacity and uniqueness.
func (h *Hub) AddMember(wallet, name string, at time.Time) error {
	if h.Status.Terminal() {
		return ErrHubNotActive
	}
	if h.IsMember(wallet) {
		return ErrAlreadyMember
	}
	if len(h.Members) >= h.MaxMembers {
		return ErrHubFull
	}
	h.Members = append(h.Members, Member{
		Wallet:   wallet,
		Name:     name,
		Position: len(h.Members),
		IsAdmin:  wallet == h.Creator,
		JoinedAt: at,
	})
	return nil
}
