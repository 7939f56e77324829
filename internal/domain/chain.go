package domain

import (
	"fmt"
	"math/big"
)

// Chain represents the ledger network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
)

// NewEthereumChain returns the CAIP-2 identifier for an EVM chain id
func NewEthereumChain(chainID *big.Int) Chain {
	return Chain(fmt.Sprintf("eip155:%s", chainID.String()))
}

// String returns the string form of the chain
func (c Chain) String() string {
	return string(c)
}
