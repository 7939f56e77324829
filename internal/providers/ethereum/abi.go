package ethereum

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// achievementABIJSON is the subset of the achievement contract the minter calls
const achievementABIJSON = `[
	{"inputs":[{"name":"recipient","type":"address"},{"name":"description","type":"string"},{"name":"userInfo","type":"string"},{"name":"completedAt","type":"uint256"}],"name":"mintAchievement","outputs":[{"name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"tokenId","type":"uint256"},{"indexed":true,"name":"recipient","type":"address"},{"indexed":false,"name":"completedAt","type":"uint256"}],"name":"AchievementMinted","type":"event"}
]`

const mintMethod = "mintAchievement"

var (
	// achievementMintedTopic is keccak256("AchievementMinted(uint256,address,uint256)")
	achievementMintedTopic = crypto.Keccak256Hash([]byte("AchievementMinted(uint256,address,uint256)"))
	// transferTopic is the ERC-721 Transfer(address,address,uint256) event signature
	transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

func parseAchievementABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(achievementABIJSON))
}

// tokenIDFromLogs extracts the minted token id from the contract's receipt logs.
// AchievementMinted is preferred; an ERC-721 Transfer from the zero address is the fallback.
func tokenIDFromLogs(contract common.Address, logs []*types.Log) (*big.Int, bool) {
	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) < 2 {
			continue
		}
		if l.Topics[0] == achievementMintedTopic {
			return new(big.Int).SetBytes(l.Topics[1].Bytes()), true
		}
	}

	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) != 4 {
			continue
		}
		if l.Topics[0] == transferTopic && l.Topics[1] == (common.Hash{}) {
			return new(big.Int).SetBytes(l.Topics[3].Bytes()), true
		}
	}

	return nil, false
}
