package ethereum_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/achievement-minter/internal/domain"
	"github.com/feral-file/achievement-minter/internal/logger"
	"github.com/feral-file/achievement-minter/internal/mocks"
	mintereth "github.com/feral-file/achievement-minter/internal/providers/ethereum"
)

const (
	testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testContract   = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testRecipient  = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

var (
	sepoliaChainID = big.NewInt(11155111)
	gwei           = big.NewInt(1_000_000_000)
)

type testMocks struct {
	ctrl  *gomock.Controller
	eth   *mocks.MockEthClient
	clock *mocks.MockClock
}

func setupTestMocks(t *testing.T) *testMocks {
	require.NoError(t, logger.Initialize(logger.Config{Debug: true}))
	ctrl := gomock.NewController(t)
	return &testMocks{
		ctrl:  ctrl,
		eth:   mocks.NewMockEthClient(ctrl),
		clock: mocks.NewMockClock(ctrl),
	}
}

func newTestClient(t *testing.T, m *testMocks, cfg mintereth.Config) mintereth.MintClient {
	if cfg.PrivateKey == "" {
		cfg.PrivateKey = testPrivateKey
	}
	if cfg.ContractAddress == "" {
		cfg.ContractAddress = testContract
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Millisecond
	}

	m.eth.EXPECT().ChainID(gomock.Any()).Return(sepoliaChainID, nil)
	client, err := mintereth.NewMintClient(context.Background(), m.eth, m.clock, cfg)
	require.NoError(t, err)
	return client
}

func mul(a *big.Int, n int64) *big.Int {
	return new(big.Int).Mul(a, big.NewInt(n))
}

func TestNewMintClient_Validation(t *testing.T) {
	t.Run("missing signing key", func(t *testing.T) {
		m := setupTestMocks(t)
		_, err := mintereth.NewMintClient(context.Background(), m.eth, m.clock, mintereth.Config{
			ContractAddress: testContract,
		})
		assert.ErrorIs(t, err, domain.ErrMissingSigningKey)
	})

	t.Run("zero contract address", func(t *testing.T) {
		m := setupTestMocks(t)
		_, err := mintereth.NewMintClient(context.Background(), m.eth, m.clock, mintereth.Config{
			PrivateKey:      testPrivateKey,
			ContractAddress: domain.ETHEREUM_ZERO_ADDRESS,
		})
		assert.ErrorIs(t, err, domain.ErrMissingContractAddress)
	})

	t.Run("malformed signing key", func(t *testing.T) {
		m := setupTestMocks(t)
		_, err := mintereth.NewMintClient(context.Background(), m.eth, m.clock, mintereth.Config{
			PrivateKey:      "0xnothex",
			ContractAddress: testContract,
		})
		assert.Error(t, err)
	})

	t.Run("chain id failure", func(t *testing.T) {
		m := setupTestMocks(t)
		m.eth.EXPECT().ChainID(gomock.Any()).Return(nil, errors.New("dial refused"))
		_, err := mintereth.NewMintClient(context.Background(), m.eth, m.clock, mintereth.Config{
			PrivateKey:      "0x" + testPrivateKey,
			ContractAddress: testContract,
		})
		assert.ErrorContains(t, err, "dial refused")
	})

	t.Run("reports chain and contract", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{ContractAddress: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"})
		assert.Equal(t, domain.ChainEthereumSepolia, client.Chain())
		assert.Equal(t, testContract, client.ContractAddress())
	})
}

func TestSubmitMint(t *testing.T) {
	key, err := crypto.HexToECDSA(testPrivateKey)
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	mintSelector := crypto.Keccak256([]byte("mintAchievement(address,string,string,uint256)"))[:4]

	req := mintereth.MintRequest{
		Recipient:     testRecipient,
		Description:   "Run a marathon",
		UserInfo:      "Alice:engineer",
		CompletedAtMs: 1_735_689_600_000,
	}

	t.Run("dynamic fee transaction", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{})

		var sent *types.Transaction
		gomock.InOrder(
			m.eth.EXPECT().PendingNonceAt(gomock.Any(), signer).Return(uint64(7), nil),
			m.eth.EXPECT().EstimateGas(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
					assert.Equal(t, signer, msg.From)
					assert.Equal(t, common.HexToAddress(testContract), *msg.To)
					return 100_000, nil
				}),
			m.eth.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).
				Return(&types.Header{BaseFee: mul(gwei, 10)}, nil),
			m.eth.EXPECT().SuggestGasTipCap(gomock.Any()).Return(gwei, nil),
			m.eth.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, tx *types.Transaction) error {
					sent = tx
					return nil
				}),
		)

		hash, err := client.SubmitMint(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, sent)

		assert.Equal(t, sent.Hash(), hash)
		assert.Equal(t, uint8(types.DynamicFeeTxType), sent.Type())
		assert.Equal(t, uint64(7), sent.Nonce())
		assert.Equal(t, uint64(120_000), sent.Gas())
		assert.Equal(t, common.HexToAddress(testContract), *sent.To())
		assert.Equal(t, 0, sent.GasTipCap().Cmp(gwei))
		assert.Equal(t, 0, sent.GasFeeCap().Cmp(mul(gwei, 21)))
		assert.Equal(t, mintSelector, sent.Data()[:4])

		from, err := types.Sender(types.LatestSignerForChainID(sepoliaChainID), sent)
		require.NoError(t, err)
		assert.Equal(t, signer, from)
	})

	t.Run("legacy transaction when no base fee", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{GasLimit: 300_000})

		var sent *types.Transaction
		m.eth.EXPECT().PendingNonceAt(gomock.Any(), signer).Return(uint64(0), nil)
		m.eth.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(&types.Header{}, nil)
		m.eth.EXPECT().SuggestGasPrice(gomock.Any()).Return(mul(gwei, 3), nil)
		m.eth.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tx *types.Transaction) error {
				sent = tx
				return nil
			})

		_, err := client.SubmitMint(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, sent)

		assert.Equal(t, uint8(types.LegacyTxType), sent.Type())
		assert.Equal(t, uint64(300_000), sent.Gas())
		assert.Equal(t, 0, sent.GasPrice().Cmp(mul(gwei, 3)))
	})

	t.Run("invalid recipient makes no ledger call", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{})

		bad := req
		bad.Recipient = "0xfb6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
		_, err := client.SubmitMint(context.Background(), bad)
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	})

	t.Run("broadcast failure is returned", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{GasLimit: 200_000})

		m.eth.EXPECT().PendingNonceAt(gomock.Any(), signer).Return(uint64(1), nil)
		m.eth.EXPECT().HeaderByNumber(gomock.Any(), gomock.Nil()).Return(&types.Header{}, nil)
		m.eth.EXPECT().SuggestGasPrice(gomock.Any()).Return(gwei, nil)
		m.eth.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).Return(errors.New("nonce too low"))

		_, err := client.SubmitMint(context.Background(), req)
		assert.ErrorContains(t, err, "nonce too low")
	})

	t.Run("gas estimation failure is returned", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{})

		m.eth.EXPECT().PendingNonceAt(gomock.Any(), signer).Return(uint64(1), nil)
		m.eth.EXPECT().EstimateGas(gomock.Any(), gomock.Any()).Return(uint64(0), errors.New("execution reverted"))

		_, err := client.SubmitMint(context.Background(), req)
		assert.ErrorContains(t, err, "execution reverted")
	})
}

func TestAwaitConfirmation(t *testing.T) {
	txHash := common.HexToHash("0xabc123")

	t.Run("polls until the receipt appears", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{})

		want := &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(100), TxHash: txHash}
		gomock.InOrder(
			m.eth.EXPECT().TransactionReceipt(gomock.Any(), txHash).Return(nil, ethereum.NotFound),
			m.eth.EXPECT().TransactionReceipt(gomock.Any(), txHash).Return(nil, errors.New("connection reset")),
			m.eth.EXPECT().TransactionReceipt(gomock.Any(), txHash).Return(want, nil),
		)

		receipt, err := client.AwaitConfirmation(context.Background(), txHash, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, receipt)
	})

	t.Run("reverted receipt fails without retrying", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{})

		m.eth.EXPECT().TransactionReceipt(gomock.Any(), txHash).
			Return(&types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(100)}, nil).
			Times(1)

		_, err := client.AwaitConfirmation(context.Background(), txHash, 5*time.Second)
		assert.ErrorIs(t, err, domain.ErrTransactionReverted)
	})

	t.Run("times out when never mined", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{})

		m.eth.EXPECT().TransactionReceipt(gomock.Any(), txHash).Return(nil, ethereum.NotFound).AnyTimes()

		_, err := client.AwaitConfirmation(context.Background(), txHash, 30*time.Millisecond)
		assert.ErrorIs(t, err, domain.ErrConfirmationTimeout)
	})

	t.Run("waits for confirmation depth", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{Confirmations: 3})

		receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(100)}
		m.eth.EXPECT().TransactionReceipt(gomock.Any(), txHash).Return(receipt, nil).Times(2)
		gomock.InOrder(
			m.eth.EXPECT().BlockNumber(gomock.Any()).Return(uint64(101), nil),
			m.eth.EXPECT().BlockNumber(gomock.Any()).Return(uint64(102), nil),
		)

		got, err := client.AwaitConfirmation(context.Background(), txHash, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, receipt, got)
	})

	t.Run("parent cancellation is reported as such", func(t *testing.T) {
		m := setupTestMocks(t)
		client := newTestClient(t, m, mintereth.Config{})

		ctx, cancel := context.WithCancel(context.Background())
		m.eth.EXPECT().TransactionReceipt(gomock.Any(), txHash).
			DoAndReturn(func(context.Context, common.Hash) (*types.Receipt, error) {
				cancel()
				return nil, ethereum.NotFound
			}).AnyTimes()

		_, err := client.AwaitConfirmation(ctx, txHash, 5*time.Second)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, domain.ErrConfirmationTimeout)
	})
}

func TestParseMintedTokenID(t *testing.T) {
	m := setupTestMocks(t)
	client := newTestClient(t, m, mintereth.Config{})

	contract := common.HexToAddress(testContract)
	recipient := common.HexToAddress(testRecipient)
	mintedTopic := crypto.Keccak256Hash([]byte("AchievementMinted(uint256,address,uint256)"))
	transferTopic := crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	tests := []struct {
		name    string
		logs    []*types.Log
		want    *big.Int
		wantHit bool
	}{
		{
			name: "achievement minted event",
			logs: []*types.Log{{
				Address: contract,
				Topics:  []common.Hash{mintedTopic, common.BigToHash(big.NewInt(42)), common.BytesToHash(recipient.Bytes())},
			}},
			want:    big.NewInt(42),
			wantHit: true,
		},
		{
			name: "erc721 transfer from zero address",
			logs: []*types.Log{{
				Address: contract,
				Topics:  []common.Hash{transferTopic, {}, common.BytesToHash(recipient.Bytes()), common.BigToHash(big.NewInt(7))},
			}},
			want:    big.NewInt(7),
			wantHit: true,
		},
		{
			name: "achievement event preferred over transfer",
			logs: []*types.Log{
				{
					Address: contract,
					Topics:  []common.Hash{transferTopic, {}, common.BytesToHash(recipient.Bytes()), common.BigToHash(big.NewInt(7))},
				},
				{
					Address: contract,
					Topics:  []common.Hash{mintedTopic, common.BigToHash(big.NewInt(8)), common.BytesToHash(recipient.Bytes())},
				},
			},
			want:    big.NewInt(8),
			wantHit: true,
		},
		{
			name: "events from other contracts are ignored",
			logs: []*types.Log{{
				Address: common.HexToAddress(testRecipient),
				Topics:  []common.Hash{mintedTopic, common.BigToHash(big.NewInt(42)), common.BytesToHash(recipient.Bytes())},
			}},
			wantHit: false,
		},
		{
			name:    "no events",
			logs:    nil,
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := client.ParseMintedTokenID(&types.Receipt{Logs: tt.logs})
			assert.Equal(t, tt.wantHit, ok)
			if tt.wantHit {
				require.NotNil(t, got)
				assert.Equal(t, 0, tt.want.Cmp(got))
			} else {
				assert.Nil(t, got)
			}
		})
	}

	_, ok := client.ParseMintedTokenID(nil)
	assert.False(t, ok)
}

func TestBlockTime(t *testing.T) {
	m := setupTestMocks(t)
	client := newTestClient(t, m, mintereth.Config{})

	m.eth.EXPECT().HeaderByNumber(gomock.Any(), big.NewInt(100)).Return(&types.Header{Time: 1_735_689_600}, nil)
	m.clock.EXPECT().Unix(int64(1_735_689_600), int64(0)).Return(time.Unix(1_735_689_600, 0))

	got, err := client.BlockTime(context.Background(), big.NewInt(100))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	m.eth.EXPECT().HeaderByNumber(gomock.Any(), big.NewInt(101)).Return(nil, errors.New("unknown block"))
	_, err = client.BlockTime(context.Background(), big.NewInt(101))
	assert.Error(t, err)
}
