package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeWallet validates a hex address and returns its lowercase form.
func NormalizeWallet(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%w: invalid wallet address %q", ErrValidation, addr)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

// ShortWallet renders 0x1234...abcd style names for users who never set one.
func ShortWallet(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
