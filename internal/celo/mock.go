package celo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// MockTransfer returns random 32-byte hashes without touching a chain.
// Fail makes the next n transfers return ErrMockTransfer.
type MockTransfer struct {
	mu    sync.Mutex
	fail  int
	Calls []TransferRequest
}

var ErrMockTransfer = errors.New("mock transfer rejected")

func NewMockTransfer() *MockTransfer {
	return &MockTransfer{}
}

func (m *MockTransfer) Fail(n int) {
	m.mu.Lock()
	m.fail = n
	m.mu.Unlock()
}

func (m *MockTransfer) Transfer(_ context.Context, req TransferRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.fail > 0 {
		m.fail--
		return "", ErrMockTransfer
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

func (m *MockTransfer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockTransfer) BalanceOf(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
