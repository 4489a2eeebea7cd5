// Package chaintest provides an in-memory EthClient for tests.
package chaintest

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CallFunc answers a CallContract or EstimateGas request.
type CallFunc func(msg ethereum.CallMsg) ([]byte, error)

// FakeEthClient records sent transactions and answers calls through
// configurable hooks. The zero value is usable.
type FakeEthClient struct {
	mu sync.Mutex

	ChainIDValue *big.Int
	Nonce        uint64
	GasEstimate  uint64
	TipCap       *big.Int
	GasPrice     *big.Int
	BaseFee      *big.Int
	HeadNumber   *big.Int

	// OnCall answers CallContract. Nil returns empty data.
	OnCall CallFunc
	// EstimateErr is returned by EstimateGas when set.
	EstimateErr error
	// SendErr is returned by SendTransaction when set.
	SendErr error
	// ReceiptStatus is the status of every receipt returned.
	ReceiptStatus uint64
	// MissingReceipts is the number of receipt lookups answered with NotFound.
	MissingReceipts int

	Sent          []*types.Transaction
	Calls         []ethereum.CallMsg
	EstimateCalls []ethereum.CallMsg

	Subscribed chan<- types.Log
	Query      ethereum.FilterQuery
}

// NewFakeEthClient returns a client with sane defaults and successful receipts.
func NewFakeEthClient() *FakeEthClient {
	return &FakeEthClient{
		ChainIDValue:  big.NewInt(1337),
		Nonce:         7,
		GasEstimate:   100_000,
		TipCap:        big.NewInt(2_000_000_000),
		GasPrice:      big.NewInt(3_000_000_000),
		BaseFee:       big.NewInt(10_000_000_000),
		HeadNumber:    big.NewInt(100),
		ReceiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (f *FakeEthClient) ChainID(context.Context) (*big.Int, error) { return f.ChainIDValue, nil }

func (f *FakeEthClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.Nonce, nil
}

func (f *FakeEthClient) SuggestGasTipCap(context.Context) (*big.Int, error) { return f.TipCap, nil }

func (f *FakeEthClient) SuggestGasPrice(context.Context) (*big.Int, error) { return f.GasPrice, nil }

func (f *FakeEthClient) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EstimateCalls = append(f.EstimateCalls, msg)
	if f.EstimateErr != nil {
		return 0, f.EstimateErr
	}
	return f.GasEstimate, nil
}

func (f *FakeEthClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: f.HeadNumber, BaseFee: f.BaseFee}, nil
}

func (f *FakeEthClient) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, msg)
	onCall := f.OnCall
	f.mu.Unlock()
	if onCall == nil {
		return nil, nil
	}
	return onCall(msg)
}

func (f *FakeEthClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, tx)
	return nil
}

func (f *FakeEthClient) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MissingReceipts > 0 {
		f.MissingReceipts--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{
		TxHash:      txHash,
		Status:      f.ReceiptStatus,
		BlockNumber: f.HeadNumber,
		GasUsed:     f.GasEstimate,
	}, nil
}

func (f *FakeEthClient) SubscribeFilterLogs(
	_ context.Context,
	q ethereum.FilterQuery,
	ch chan<- types.Log,
) (ethereum.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Query = q
	f.Subscribed = ch
	return &fakeSubscription{err: make(chan error)}, nil
}

// LastSent returns the most recently sent transaction, or nil.
func (f *FakeEthClient) LastSent() *types.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return nil
	}
	return f.Sent[len(f.Sent)-1]
}

// WaitSubscribed polls until SubscribeFilterLogs was called and returns the
// subscriber channel, or nil after timeout.
func (f *FakeEthClient) WaitSubscribed(timeout time.Duration) chan<- types.Log {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		ch := f.Subscribed
		f.mu.Unlock()
		if ch != nil {
			return ch
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

type fakeSubscription struct {
	once sync.Once
	err  chan error
}

func (s *fakeSubscription) Unsubscribe() { s.once.Do(func() { close(s.err) }) }

func (s *fakeSubscription) Err() <-chan error { return s.err }
