package magink

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/magink/magink/x/chain"
)

var _ ChainAPI = (*chain.Client)(nil)

// ChainAPI is the chain handle the provider sends through. It is also the
// handle passed to transaction callbacks.
type ChainAPI interface {
	chain.Wallet

	ChainID() *big.Int
	DefaultCaller() common.Address
	Call(ctx context.Context, from, to common.Address, data []byte) ([]byte, error)
	EstimateGas(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (uint64, error)
	Send(ctx context.Context, to common.Address, data []byte, value *big.Int, gasLimit uint64) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}
