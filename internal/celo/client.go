package celo

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"stablecircle/internal/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// TransferRequest moves Amount of the stable token into a hub's pool.
type TransferRequest struct {
	From   string
	HubID  string
	Amount decimal.Decimal
}

var ErrNoSigner = errors.New("celo: no signing key configured")

// chain is the subset of ethclient.Client the token client uses.
type chain interface {
	ethereum.ContractCaller
	ethereum.GasEstimator
	ethereum.GasPricer
	ethereum.PendingStateReader
	ethereum.TransactionSender
}

// TokenClient wraps ERC20 calls against the cUSD contract. Transfers are
// signed by a custodial key and pay into the configured vault.
type TokenClient struct {
	client  chain
	token   common.Address
	vault   common.Address
	abi     abi.ABI
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
}

type Options struct {
	Network      string
	RPCURL       string
	TokenAddress string
	VaultAddress string
	PrivateKey   string
}

// Dial connects to the configured network.
func Dial(ctx context.Context, opts Options) (*TokenClient, error) {
	net, ok := Networks[opts.Network]
	if !ok {
		return nil, fmt.Errorf("celo: unknown network %q", opts.Network)
	}
	rpc := opts.RPCURL
	if rpc == "" {
		rpc = net.RPCURL
	}
	ec, err := ethclient.DialContext(ctx, rpc)
	if err != nil {
		return nil, fmt.Errorf("celo: dial %s: %w", rpc, err)
	}
	token := opts.TokenAddress
	if token == "" {
		token = net.CUSD
	}
	return NewTokenClient(ec, big.NewInt(net.ChainID), token, opts.VaultAddress, opts.PrivateKey)
}

func NewTokenClient(c chain, chainID *big.Int, token, vault, privateKey string) (*TokenClient, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("invalid token address: %s", token)
	}
	tc := &TokenClient{
		client:  c,
		token:   common.HexToAddress(token),
		abi:     parsed,
		chainID: chainID,
	}
	if vault != "" {
		if !common.IsHexAddress(vault) {
			return nil, fmt.Errorf("invalid vault address: %s", vault)
		}
		tc.vault = common.HexToAddress(vault)
	}
	if privateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		tc.key = key
		tc.from = crypto.PubkeyToAddress(key.PublicKey)
	}
	return tc, nil
}

// BalanceOf returns the token balance of wallet in whole-token units.
func (tc *TokenClient) BalanceOf(ctx context.Context, wallet string) (decimal.Decimal, error) {
	if !common.IsHexAddress(wallet) {
		return decimal.Zero, fmt.Errorf("invalid wallet address: %s", wallet)
	}
	callData, err := tc.abi.Pack("balanceOf", common.HexToAddress(wallet))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to pack balanceOf call data: %w", err)
	}
	result, err := tc.client.CallContract(ctx, ethereum.CallMsg{To: &tc.token, Data: callData}, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to call balanceOf: %w", err)
	}
	if len(result) == 0 {
		return decimal.Zero, errors.New("empty result from contract call")
	}
	var balance *big.Int
	if err := tc.abi.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return decimal.Zero, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	return FromBaseUnits(balance, TokenDecimals), nil
}

// Transfer submits an ERC20 transfer to the vault and returns the tx hash.
// It does not wait for the receipt.
func (tc *TokenClient) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if tc.key == nil {
		return "", ErrNoSigner
	}
	if tc.vault == (common.Address{}) {
		return "", errors.New("celo: vault address not configured")
	}
	amount, err := ToBaseUnits(req.Amount, TokenDecimals)
	if err != nil {
		return "", err
	}
	data, err := tc.abi.Pack("transfer", tc.vault, amount)
	if err != nil {
		return "", fmt.Errorf("failed to pack transfer call data: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, TxTimeout)
	defer cancel()

	nonce, err := tc.client.PendingNonceAt(ctx, tc.from)
	if err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	gasPrice, err := tc.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("gas price: %w", err)
	}
	gas, err := tc.client.EstimateGas(ctx, ethereum.CallMsg{From: tc.from, To: &tc.token, Data: data})
	if err != nil {
		return "", fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, tc.token, big.NewInt(0), gas, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(tc.chainID), tc.key)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	if err := tc.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}

	hash := signed.Hash().Hex()
	logger.Info("token transfer submitted", "tx_hash", hash, "hub_id", req.HubID, "from", req.From, "amount", req.Amount.String())
	return hash, nil
}
