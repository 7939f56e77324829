package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ETHEREUM_ZERO_ADDRESS is the zero address on EVM chains
const ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

// IsValidLedgerAddress reports whether address is a well-formed, mintable EVM address.
//
// The address must carry the 0x prefix and 40 hex digits. Single-case addresses are
// accepted as-is; mixed-case addresses must match their EIP-55 checksum. The zero
// address is rejected since tokens cannot be minted to it.
func IsValidLedgerAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return false
	}

	body := address[2:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if common.HexToAddress(address).Hex() != address {
			return false
		}
	}

	return common.HexToAddress(address) != common.Address{}
}

// NormalizeAddress returns the EIP-55 checksummed form of an EVM address
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
