package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/feral-file/achievement-minter/internal/adapter"
	"github.com/feral-file/achievement-minter/internal/domain"
	"github.com/feral-file/achievement-minter/internal/logger"
)

// MintRequest describes one achievement token to mint
type MintRequest struct {
	Recipient     string
	Description   string
	UserInfo      string
	CompletedAtMs int64
}

// MintClient submits achievement mints to the ledger and observes their outcome
//
//go:generate mockgen -source=client.go -destination=../../mocks/mint_client.go -package=mocks -mock_names=MintClient=MockMintClient
type MintClient interface {
	// SubmitMint signs and broadcasts a mint transaction and returns its hash
	SubmitMint(ctx context.Context, req MintRequest) (common.Hash, error)

	// AwaitConfirmation waits up to timeout for a successful receipt.
	// Returns domain.ErrConfirmationTimeout or domain.ErrTransactionReverted on failure.
	AwaitConfirmation(ctx context.Context, txHash common.Hash, timeout time.Duration) (*types.Receipt, error)

	// ParseMintedTokenID extracts the minted token id from a receipt, if present
	ParseMintedTokenID(receipt *types.Receipt) (*big.Int, bool)

	// BlockTime returns the timestamp of a block
	BlockTime(ctx context.Context, blockNumber *big.Int) (*time.Time, error)

	// Chain returns the CAIP-2 identifier of the connected network
	Chain() domain.Chain

	// ContractAddress returns the checksummed achievement contract address
	ContractAddress() string

	// Close closes the connection
	Close()
}

// Config holds the mint client settings
type Config struct {
	ContractAddress string
	PrivateKey      string
	PollInterval    time.Duration
	// Confirmations is the number of blocks (including the inclusion block) required before a receipt is final
	Confirmations uint64
	// GasLimit overrides gas estimation when non-zero
	GasLimit uint64
}

const (
	// gasEstimatePaddingPercent pads estimated gas to absorb state drift between estimate and inclusion
	gasEstimatePaddingPercent = 120
	defaultPollInterval       = 2 * time.Second
)

type mintClient struct {
	client   adapter.EthClient
	clock    adapter.Clock
	abi      abi.ABI
	chainID  *big.Int
	chain    domain.Chain
	contract common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	config   Config

	// mu serializes nonce allocation for the single signing identity
	mu sync.Mutex
}

// NewMintClient creates a mint client bound to the configured contract and signing key
func NewMintClient(ctx context.Context, client adapter.EthClient, clock adapter.Clock, cfg Config) (MintClient, error) {
	rawKey := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x")
	if rawKey == "" {
		return nil, domain.ErrMissingSigningKey
	}
	key, err := crypto.HexToECDSA(rawKey)
	if err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, domain.ErrMissingContractAddress
	}
	contract := common.HexToAddress(cfg.ContractAddress)
	if contract == (common.Address{}) {
		return nil, domain.ErrMissingContractAddress
	}

	parsedABI, err := parseAchievementABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 1
	}

	return &mintClient{
		client:   client,
		clock:    clock,
		abi:      parsedABI,
		chainID:  chainID,
		chain:    domain.NewEthereumChain(chainID),
		contract: contract,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		config:   cfg,
	}, nil
}

// SubmitMint signs and broadcasts a mintAchievement transaction
func (c *mintClient) SubmitMint(ctx context.Context, req MintRequest) (common.Hash, error) {
	if !domain.IsValidLedgerAddress(req.Recipient) {
		return common.Hash{}, fmt.Errorf("%w: %s", domain.ErrInvalidAddress, req.Recipient)
	}

	data, err := c.abi.Pack(mintMethod,
		common.HexToAddress(req.Recipient),
		req.Description,
		req.UserInfo,
		big.NewInt(req.CompletedAtMs),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack mint call: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	nonce, err := c.client.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gas := c.config.GasLimit
	if gas == 0 {
		estimated, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
			From: c.from,
			To:   &c.contract,
			Data: data,
		})
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
		}
		gas = estimated * gasEstimatePaddingPercent / 100
	}

	tx, err := c.buildTx(ctx, nonce, gas, data)
	if err != nil {
		return common.Hash{}, err
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	logger.InfoCtx(ctx, "Submitted mint transaction",
		zap.String("txHash", signed.Hash().Hex()),
		zap.String("recipient", req.Recipient),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
	)

	return signed.Hash(), nil
}

// buildTx builds an EIP-1559 transaction when the chain reports a base fee, a legacy one otherwise
func (c *mintClient) buildTx(ctx context.Context, nonce, gas uint64, data []byte) (*types.Transaction, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}

	if header.BaseFee != nil {
		tip, err := c.client.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to suggest gas tip cap: %w", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(header.BaseFee, big.NewInt(2)))

		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   c.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &c.contract,
			Value:     big.NewInt(0),
			Data:      data,
		}), nil
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &c.contract,
		Value:    big.NewInt(0),
		Data:     data,
	}), nil
}

// errReceiptPending marks a poll that found no final receipt yet
var errReceiptPending = errors.New("receipt pending")

// AwaitConfirmation polls for the receipt of txHash until it is final or timeout elapses
func (c *mintClient) AwaitConfirmation(ctx context.Context, txHash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.PollInterval
	b.MaxInterval = 5 * c.config.PollInterval
	b.MaxElapsedTime = 0 // bounded by waitCtx
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.2

	var receipt *types.Receipt
	operation := func() error {
		r, err := c.client.TransactionReceipt(waitCtx, txHash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				return errReceiptPending
			}
			logger.WarnCtx(ctx, "Failed to fetch receipt, retrying",
				zap.String("txHash", txHash.Hex()),
				zap.Error(err),
			)
			return fmt.Errorf("failed to get receipt: %w", err)
		}

		if r.Status == types.ReceiptStatusFailed {
			return backoff.Permanent(fmt.Errorf("%w: %s", domain.ErrTransactionReverted, txHash.Hex()))
		}

		if c.config.Confirmations > 1 && r.BlockNumber != nil {
			head, err := c.client.BlockNumber(waitCtx)
			if err != nil {
				return fmt.Errorf("failed to get block number: %w", err)
			}
			if head+1 < r.BlockNumber.Uint64()+c.config.Confirmations {
				return errReceiptPending
			}
		}

		receipt = r
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(b, waitCtx))
	if err == nil && receipt != nil {
		return receipt, nil
	}

	if errors.Is(err, domain.ErrTransactionReverted) {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if waitCtx.Err() != nil {
		return nil, fmt.Errorf("%w: %s after %s", domain.ErrConfirmationTimeout, txHash.Hex(), timeout)
	}
	return nil, fmt.Errorf("failed to await confirmation: %w", err)
}

// ParseMintedTokenID extracts the minted token id from receipt logs emitted by the contract
func (c *mintClient) ParseMintedTokenID(receipt *types.Receipt) (*big.Int, bool) {
	if receipt == nil {
		return nil, false
	}
	return tokenIDFromLogs(c.contract, receipt.Logs)
}

// BlockTime returns the timestamp of the given block
func (c *mintClient) BlockTime(ctx context.Context, blockNumber *big.Int) (*time.Time, error) {
	header, err := c.client.HeaderByNumber(ctx, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get header: %w", err)
	}
	t := c.clock.Unix(int64(header.Time), 0).UTC() //nolint:gosec,G115
	return &t, nil
}

func (c *mintClient) Chain() domain.Chain {
	return c.chain
}

func (c *mintClient) ContractAddress() string {
	return c.contract.Hex()
}

// Close closes the connection
func (c *mintClient) Close() {
	c.client.Close()
}
