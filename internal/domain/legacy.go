package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LegacyGroup is the schema version 1 hub shape written by the browser-only client.
type LegacyGroup struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	Goal               *decimal.Decimal `json:"goal"`
	ContributionAmount decimal.Decimal  `json:"contributionAmount"`
	Duration           int              `json:"duration"`
	Deadline           *time.Time       `json:"deadline"`
	MaxMembers         int              `json:"maxMembers"`
	CreatedBy          string           `json:"createdBy"`
	InviteCode         string           `json:"inviteCode"`
	Status             string           `json:"status"`
	CurrentRound       int              `json:"currentRound"`
	TotalRounds        int              `json:"totalRounds"`
	TotalSaved         decimal.Decimal  `json:"totalSaved"`
	CreatedAt          time.Time        `json:"createdAt"`
}

type LegacyMember struct {
	ID             string    `json:"id"`
	WalletAddress  string    `json:"walletAddress"`
	Name           string    `json:"name"`
	JoinedAt       time.Time `json:"joinedAt"`
	IsAdmin        bool      `json:"isAdmin"`
	PayoutReceived bool      `json:"payoutReceived"`
	PayoutRound    int       `json:"payoutRound"`
}

type LegacyContribution struct {
	ID              string          `json:"id"`
	GroupID         string          `json:"groupId"`
	MemberID        string          `json:"memberId"`
	Amount          decimal.Decimal `json:"amount"`
	Round           int             `json:"round"`
	TransactionHash string          `json:"transactionHash"`
	Date            time.Time       `json:"date"`
}

// LegacyExport is the JSON blob produced by the old client's data export.
type LegacyExport struct {
	User          json.RawMessage      `json:"user"`
	Groups        []LegacyGroup        `json:"groups"`
	Members       []LegacyMember       `json:"members"`
	Contributions []LegacyContribution `json:"contributions"`
}

// MigratedHub is a legacy group converted to the canonical shape, together
// with the ledger entries that belong to it.
type MigratedHub struct {
	Hub           *Hub
	Contributions []*Contribution
}

// MigrateGroup converts a legacy group. Membership is derived the way the old
// client did it: the creator plus every member with a contribution in the group.
func MigrateGroup(g LegacyGroup, members []LegacyMember, contribs []LegacyContribution) (*MigratedHub, error) {
	creator, err := NormalizeWallet(g.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("group %s creator: %w", g.ID, err)
	}
	byID := make(map[string]LegacyMember, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	h := &Hub{
		ID:                 g.ID,
		SchemaVersion:      HubSchemaVersion,
		Name:               g.Name,
		Description:        g.Description,
		Goal:               g.Goal,
		ContributionAmount: g.ContributionAmount,
		DurationDays:       g.Duration,
		Deadline:           g.Deadline,
		MaxMembers:         g.MaxMembers,
		Creator:            creator,
		InviteCode:         g.InviteCode,
		Status:             legacyStatus(g.Status),
		CurrentRound:       g.CurrentRound,
		TotalRounds:        g.TotalRounds,
		CreatedAt:          g.CreatedAt,
	}
	if h.TotalRounds < 1 {
		// the old client sized rotations by seat count
		h.TotalRounds = g.MaxMembers
	}
	if h.CurrentRound < 1 {
		h.CurrentRound = 1
	}
	if h.CurrentRound > h.TotalRounds {
		h.CurrentRound = h.TotalRounds
	}

	seat := func(wallet string, lm *LegacyMember, at time.Time) {
		if h.IsMember(wallet) {
			return
		}
		m := Member{Wallet: wallet, Position: len(h.Members), JoinedAt: at, IsAdmin: wallet == creator}
		if lm != nil {
			m.Name = lm.Name
			m.PayoutReceived = lm.PayoutReceived
			m.PayoutRound = lm.PayoutRound
			if !lm.JoinedAt.IsZero() {
				m.JoinedAt = lm.JoinedAt
			}
		}
		if m.Name == "" {
			m.Name = ShortWallet(wallet)
		}
		h.Members = append(h.Members, m)
	}

	var creatorMember *LegacyMember
	for i := range members {
		if w, err := NormalizeWallet(members[i].WalletAddress); err == nil && w == creator {
			creatorMember = &members[i]
			break
		}
	}
	seat(creator, creatorMember, g.CreatedAt)

	var out []*Contribution
	for _, lc := range contribs {
		if lc.GroupID != g.ID {
			continue
		}
		lm, ok := byID[lc.MemberID]
		wallet := lc.MemberID
		if ok {
			wallet = lm.WalletAddress
		}
		w, err := NormalizeWallet(wallet)
		if err != nil {
			return nil, fmt.Errorf("contribution %s: %w", lc.ID, err)
		}
		if ok {
			seat(w, &lm, lc.Date)
		} else {
			seat(w, nil, lc.Date)
		}
		round := lc.Round
		if round < 1 {
			round = 1
		}
		out = append(out, &Contribution{
			ID:             lc.ID,
			Wallet:         w,
			HubID:          g.ID,
			Amount:         lc.Amount,
			Round:          round,
			TransactionRef: lc.TransactionHash,
			CreatedAt:      lc.Date,
		})
	}
	if h.MaxMembers < len(h.Members) {
		h.MaxMembers = len(h.Members)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	for _, c := range out {
		h.TotalSaved = h.TotalSaved.Add(c.Amount)
	}
	return &MigratedHub{Hub: h, Contributions: out}, nil
}

func legacyStatus(s string) HubStatus {
	switch HubStatus(strings.ToLower(s)) {
	case HubStatusCompleted:
		return HubStatusCompleted
	case HubStatusCancelled:
		return HubStatusCancelled
	default:
		return HubStatusActive
	}
}

// DecodeHub reads either a canonical hub or a legacy group document.
func DecodeHub(raw []byte) (*Hub, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}
	if _, legacy := probe["createdBy"]; legacy {
		var g LegacyGroup
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, err
		}
		m, err := MigrateGroup(g, nil, nil)
		if err != nil {
			return nil, err
		}
		return m.Hub, nil
	}
	var h Hub
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	if h.SchemaVersion == 0 {
		h.SchemaVersion = HubSchemaVersion
	}
	return &h, nil
}
