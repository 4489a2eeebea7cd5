package magink

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/magink/magink/x/magink/contracts"
)

// CallOptions tunes the origin of a read-only call.
type CallOptions struct {
	// DefaultCaller evaluates the call from the configured default caller
	// instead of the connected account.
	DefaultCaller bool
	// From overrides the origin entirely.
	From *common.Address
}

// Call is a read-only contract message decoded into T.
type Call[T any] struct {
	method  string
	binding *contracts.MaginkBinding
	api     ChainAPI
	decode  func([]byte) (T, error)
	metrics *Metrics
	log     zerolog.Logger
}

func newCall[T any](p *Provider, method string, decode func([]byte) (T, error)) *Call[T] {
	return &Call[T]{
		method:  method,
		binding: p.binding,
		api:     p.api,
		decode:  decode,
		metrics: p.metrics,
		log:     p.log,
	}
}

// Method returns the contract message name.
func (c *Call[T]) Method() string { return c.method }

// Send evaluates the message with args. It never returns a zero CallResult:
// either Value or Err is set.
func (c *Call[T]) Send(ctx context.Context, args []any, opts *CallOptions) CallResult[T] {
	start := time.Now()
	res := c.send(ctx, args, opts)
	c.metrics.RecordCall(c.method, res.Ok(), time.Since(start))

	if !res.Ok() {
		c.log.Debug().Err(res.Err).Str("method", c.method).Msg("Contract call failed")
	}
	return res
}

func (c *Call[T]) send(ctx context.Context, args []any, opts *CallOptions) CallResult[T] {
	data, err := c.binding.Pack(c.method, args...)
	if err != nil {
		return failedResult[T](err)
	}

	raw, err := c.api.Call(ctx, resolveCaller(c.api, opts), c.binding.Address(), data)
	if err != nil {
		return failedResult[T](decodeError(c.binding, c.method, err))
	}
	if len(raw) == 0 {
		return failedResult[T](ErrEmptyResult)
	}

	v, err := c.decode(raw)
	if err != nil {
		return failedResult[T](err)
	}
	return okResult(v, raw)
}

func resolveCaller(api ChainAPI, opts *CallOptions) common.Address {
	if opts != nil {
		if opts.From != nil {
			return *opts.From
		}
		if opts.DefaultCaller {
			return api.DefaultCaller()
		}
	}
	if account, ok := api.Account(); ok {
		return account
	}
	return api.DefaultCaller()
}
