package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"stablecircle/internal/celo"
	"stablecircle/internal/config"
	"stablecircle/internal/domain"
	"stablecircle/internal/repository"
	"stablecircle/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type countingCache struct {
	mu          sync.Mutex
	st          *domain.GlobalStats
	invalidated int
}

func (c *countingCache) Get(context.Context) (*domain.GlobalStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st, c.st != nil
}

func (c *countingCache) Set(_ context.Context, st *domain.GlobalStats) {
	c.mu.Lock()
	c.st = st
	c.mu.Unlock()
}

func (c *countingCache) Invalidate(context.Context) {
	c.mu.Lock()
	c.st = nil
	c.invalidated++
	c.mu.Unlock()
}

type fixture struct {
	store  *memory.Store
	tx     *celo.MockTransfer
	clock  *testClock
	cache  *countingCache
	audit  *AuditService
	users  *UserService
	hubs   *HubService
	ledger *LedgerService
	chat   *ChatService
	board  *LeaderboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.New(), nil)
}

// newFixtureWithStore lets a test wrap the ledger's store. The memory store
// still backs audit and chat.
func newFixtureWithStore(t *testing.T, mem *memory.Store, ledgerStore repository.Store) *fixture {
	t.Helper()
	if ledgerStore == nil {
		ledgerStore = mem
	}
	f := &fixture{
		store: mem,
		tx:    celo.NewMockTransfer(),
		clock: &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		cache: &countingCache{},
	}
	cfg := config.DefaultLedger()
	f.audit = NewAuditService(mem)
	f.chat = NewChatService(mem)
	f.users = NewUserService(mem, cfg, f.audit, f.cache)
	f.hubs = NewHubService(mem, f.users, cfg, f.audit, f.chat, f.cache)
	f.ledger = NewLedgerService(ledgerStore, f.users, f.tx, cfg, 2, f.audit, f.chat, f.cache)
	f.board = NewLeaderboardService(mem, cfg, f.cache)

	f.users.now = f.clock.Now
	f.hubs.now = f.clock.Now
	f.ledger.now = f.clock.Now
	f.ledger.backoff = time.Millisecond
	f.chat.now = f.clock.Now
	f.board.now = f.clock.Now
	return f
}

func wallet(i int) string {
	return fmt.Sprintf("0x%040x", i+1)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// goalHub creates a hub whose goal yields exactly rounds rounds.
func (f *fixture) goalHub(t *testing.T, members, rounds int) *domain.Hub {
	t.Helper()
	goal := dec(int64(10 * members * rounds))
	h, err := f.hubs.CreateHub(context.Background(), CreateHubParams{
		Creator:            wallet(0),
		CreatorName:        "Ada",
		Name:               "Market traders",
		Goal:               &goal,
		ContributionAmount: dec(10),
		MaxMembers:         members,
	})
	require.NoError(t, err)
	require.Equal(t, rounds, h.TotalRounds)
	for i := 1; i < members; i++ {
		h, err = f.hubs.JoinHub(context.Background(), h.InviteCode, wallet(i), fmt.Sprintf("Member %d", i))
		require.NoError(t, err)
	}
	return h
}

func (f *fixture) contribute(t *testing.T, hubID string, w int, amount int64) *domain.ContributionResult {
	t.Helper()
	res, err := f.ledger.Contribute(context.Background(), ContributeRequest{HubID: hubID, Wallet: wallet(w), Amount: dec(amount)})
	require.NoError(t, err)
	return res
}
