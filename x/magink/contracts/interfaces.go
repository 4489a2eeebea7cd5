package contracts

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Binding is the encoding surface a contract handle needs.
type Binding interface {
	// Address returns the deployed contract address.
	Address() common.Address

	// ABI returns the parsed contract ABI.
	ABI() abi.ABI

	// Pack encodes calldata for method with args.
	Pack(method string, args ...any) ([]byte, error)

	// DecodeRevert maps revert data to a known contract error, or nil.
	DecodeRevert(data []byte) error
}
