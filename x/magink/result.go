package magink

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/magink/magink/x/magink/contracts"
)

// ErrEmptyResult is returned when a call succeeds without return data,
// which happens when the contract address has no code.
var ErrEmptyResult = errors.New("call returned no data")

// CallResult is the outcome of a read-only call. Exactly one of Value or Err
// is meaningful: Value when Err is nil.
type CallResult[T any] struct {
	Value T
	Raw   []byte
	Err   error
}

// Ok reports whether the call succeeded and Value was decoded.
func (r CallResult[T]) Ok() bool { return r.Err == nil }

// Decoded returns the value or the failure.
func (r CallResult[T]) Decoded() (T, error) { return r.Value, r.Err }

func okResult[T any](v T, raw []byte) CallResult[T] {
	return CallResult[T]{Value: v, Raw: raw}
}

func failedResult[T any](err error) CallResult[T] {
	return CallResult[T]{Err: err}
}

// decodeError wraps err with the matching contract sentinel when the node
// attached revert data to it.
func decodeError(b *contracts.MaginkBinding, method string, err error) error {
	if sentinel := b.DecodeRevert(revertData(err)); sentinel != nil {
		return fmt.Errorf("%s: %w: %w", method, sentinel, err)
	}
	return fmt.Errorf("%s: %w", method, err)
}

func revertData(err error) []byte {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return nil
	}
	switch d := de.ErrorData().(type) {
	case string:
		b, decodeErr := hexutil.Decode(d)
		if decodeErr != nil {
			return nil
		}
		return b
	case []byte:
		return d
	default:
		return nil
	}
}
