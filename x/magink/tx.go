package magink

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/magink/magink/x/magink/contracts"
)

// ErrTxReverted is returned when the transaction was mined with a failed status.
var ErrTxReverted = errors.New("transaction reverted")

// TxOptions tunes a transaction. A nil *TxOptions uses defaults.
type TxOptions struct {
	Value    *big.Int
	GasLimit uint64
}

func (o *TxOptions) value() *big.Int {
	if o == nil || o.Value == nil {
		return new(big.Int)
	}
	return o.Value
}

func (o *TxOptions) gasLimit() uint64 {
	if o == nil {
		return 0
	}
	return o.GasLimit
}

// TxResult is the final state of a sent transaction.
type TxResult struct {
	Method  string         `json:"method"`
	Hash    common.Hash    `json:"hash"`
	Status  TxStatus       `json:"status"`
	Receipt *types.Receipt `json:"-"`
}

// TxCallback receives the final outcome of SignAndSend. It is invoked
// exactly once per send. result is nil when nothing was broadcast.
type TxCallback func(result *TxResult, api ChainAPI, err error)

// Tx is a state-changing contract message.
type Tx struct {
	method  string
	binding *contracts.MaginkBinding
	api     ChainAPI
	metrics *Metrics
	log     zerolog.Logger

	mu        sync.RWMutex
	notifiers []Notifier
}

func newTx(p *Provider, method string) *Tx {
	return &Tx{method: method, binding: p.binding, api: p.api, metrics: p.metrics, log: p.log}
}

// Method returns the contract message name.
func (t *Tx) Method() string { return t.method }

// Subscribe registers a lifecycle notifier.
func (t *Tx) Subscribe(n Notifier) {
	if n == nil {
		return
	}
	t.mu.Lock()
	t.notifiers = append(t.notifiers, n)
	t.mu.Unlock()
}

// SignAndSend signs and broadcasts the message, then waits until it is
// mined. cb, when non-nil, is invoked exactly once with the final outcome.
func (t *Tx) SignAndSend(ctx context.Context, args []any, opts *TxOptions, cb TxCallback) (*TxResult, error) {
	result, err := t.signAndSend(ctx, args, opts)

	status := TxStatusInBlock
	if err != nil {
		status = TxStatusFailed
	}
	t.metrics.RecordTransaction(t.method, status)

	if cb != nil {
		cb(result, t.api, err)
	}
	return result, err
}

func (t *Tx) signAndSend(ctx context.Context, args []any, opts *TxOptions) (*TxResult, error) {
	data, err := t.binding.Pack(t.method, args...)
	if err != nil {
		return nil, err
	}

	tx, err := t.api.Send(ctx, t.binding.Address(), data, opts.value(), opts.gasLimit())
	if err != nil {
		err = decodeError(t.binding, t.method, err)
		t.notify(TxNotification{Method: t.method, Status: TxStatusFailed, Err: err})
		return nil, err
	}

	result := &TxResult{Method: t.method, Hash: tx.Hash(), Status: TxStatusPending}
	t.notify(TxNotification{Method: t.method, Status: TxStatusPending, Hash: tx.Hash()})

	sentAt := time.Now()
	receipt, err := t.api.WaitMined(ctx, tx)
	if err != nil {
		err = fmt.Errorf("%s: wait for %s: %w", t.method, tx.Hash().Hex(), err)
		t.notify(TxNotification{Method: t.method, Status: TxStatusFailed, Hash: tx.Hash(), Err: err})
		return result, err
	}
	t.metrics.ObserveConfirmation(t.method, time.Since(sentAt))

	result.Receipt = receipt
	if receipt.Status != types.ReceiptStatusSuccessful {
		result.Status = TxStatusFailed
		err = fmt.Errorf("%s: %w: %s", t.method, ErrTxReverted, tx.Hash().Hex())
		t.notify(TxNotification{Method: t.method, Status: TxStatusFailed, Hash: tx.Hash(), Err: err})
		return result, err
	}

	result.Status = TxStatusInBlock
	t.notify(TxNotification{Method: t.method, Status: TxStatusInBlock, Hash: tx.Hash()})
	return result, nil
}

func (t *Tx) notify(n TxNotification) {
	n.At = time.Now()
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, nf := range t.notifiers {
		nf.Notify(n)
	}
}
