package service

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"stablecircle/internal/domain"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	signInHeader   = "StableCircle sign-in"
	walletPrefix   = "Wallet: "
	issuedAtPrefix = "Issued At: "
	maxClockSkew   = 5 * time.Minute
)

var ErrBadSignature = errors.New("signature does not match wallet")

// SignInMessage is the text a wallet signs with personal_sign.
func SignInMessage(wallet string, issuedAt time.Time) string {
	return signInHeader + "\n" +
		walletPrefix + wallet + "\n" +
		issuedAtPrefix + issuedAt.UTC().Format(time.RFC3339)
}

// WalletAuthenticator verifies EIP-191 signed sign-in messages and rejects
// stale ones to limit replay.
type WalletAuthenticator struct {
	ttl     time.Duration
	devMode bool
	now     func() time.Time
}

func NewWalletAuthenticator(ttl time.Duration, devMode bool) *WalletAuthenticator {
	return &WalletAuthenticator{ttl: ttl, devMode: devMode, now: time.Now}
}

// Verify returns the normalized wallet when signature is valid for message.
// In dev mode only the wallet format is checked.
func (a *WalletAuthenticator) Verify(wallet, message, signature string) (string, error) {
	w, err := domain.NormalizeWallet(wallet)
	if err != nil {
		return "", err
	}
	if a.devMode {
		return w, nil
	}

	claimed, issuedAt, err := parseSignInMessage(message)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(claimed, w) {
		return "", fmt.Errorf("%w: message is for another wallet", domain.ErrUnauthorized)
	}
	now := a.now()
	if now.Sub(issuedAt) > a.ttl || issuedAt.Sub(now) > maxClockSkew {
		return "", fmt.Errorf("%w: sign-in message expired", domain.ErrUnauthorized)
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("%w: malformed signature", domain.ErrUnauthorized)
	}
	// wallets produce v in {27, 28}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !strings.EqualFold(crypto.PubkeyToAddress(*pub).Hex(), w) {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, ErrBadSignature)
	}
	return w, nil
}

func parseSignInMessage(message string) (string, time.Time, error) {
	lines := strings.Split(strings.ReplaceAll(message, "\r\n", "\n"), "\n")
	if len(lines) < 3 || lines[0] != signInHeader {
		return "", time.Time{}, fmt.Errorf("%w: unexpected sign-in message", domain.ErrUnauthorized)
	}
	var (
		wallet   string
		issuedAt time.Time
	)
	for _, l := range lines[1:] {
		switch {
		case strings.HasPrefix(l, walletPrefix):
			wallet = strings.TrimPrefix(l, walletPrefix)
		case strings.HasPrefix(l, issuedAtPrefix):
			t, err := time.Parse(time.RFC3339, strings.TrimPrefix(l, issuedAtPrefix))
			if err != nil {
				return "", time.Time{}, fmt.Errorf("%w: bad issued at", domain.ErrUnauthorized)
			}
			issuedAt = t
		}
	}
	if wallet == "" || issuedAt.IsZero() {
		return "", time.Time{}, fmt.Errorf("%w: incomplete sign-in message", domain.ErrUnauthorized)
	}
	return wallet, issuedAt, nil
}
