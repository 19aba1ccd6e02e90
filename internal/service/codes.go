package service

import (
	"crypto/rand"
	"math/big"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// codeAttempts bounds regeneration after a uniqueness collision.
const codeAttempts = 5

func randomCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b)
}

// GenerateInviteCode returns a code shaped like SC-7KQ2-M9XA.
func GenerateInviteCode() string {
	return "SC-" + randomCode(4) + "-" + randomCode(4)
}

// GenerateReferralCode returns a code shaped like REF-8H2KD.
func GenerateReferralCode() string {
	return "REF-" + randomCode(5)
}
