package domain

import "errors"

var (
	// ErrInvalidAddress is returned when a recipient address is not a well-formed ledger address
	ErrInvalidAddress = errors.New("invalid address")

	// ErrMissingOwner is returned when a goal has no owning user
	ErrMissingOwner = errors.New("missing owner")

	// ErrConfirmationTimeout is returned when a submitted transaction is not confirmed in time
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrTransactionReverted is returned when a transaction was mined but failed
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrMintRecordExists is returned when a mint record already exists for a goal
	ErrMintRecordExists = errors.New("mint record already exists")

	// ErrMissingSigningKey is returned when no signing key is configured
	ErrMissingSigningKey = errors.New("missing signing key")

	// ErrMissingContractAddress is returned when no (or the zero) contract address is configured
	ErrMissingContractAddress = errors.New("missing contract address")
)
