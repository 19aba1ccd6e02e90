package celo

import "time"

const (
	// TokenDecimals is the precision of cUSD (10^18 base units per token).
	TokenDecimals = 18

	// TxTimeout bounds a single transfer submission
	TxTimeout = 30 * time.Second
)

type Network struct {
	Name    string
	ChainID int64
	RPCURL  string
	// CUSD is the stable token contract
	CUSD string
}

var Networks = map[string]Network{
	"celo": {
		Name:    "celo",
		ChainID: 42220,
		RPCURL:  "https://forno.celo.org",
		CUSD:    "0x765DE816845861e75A25fCA122bb6898B8B1282a",
	},
	"alfajores": {
		Name:    "alfajores",
		ChainID: 44787,
		RPCURL:  "https://alfajores-forno.celo-testnet.org",
		CUSD:    "0x874069Fa1Eb16D44d622F2e0Ca25eeA172369bC1",
	},
}

// erc20ABI carries only the functions the ledger calls.
const erc20ABI = `[
{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`
