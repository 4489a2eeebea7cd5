package magink

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/magink/magink/x/magink/contracts"
)

// DryRunResult is the simulated outcome of a transaction.
type DryRunResult struct {
	GasRequired uint64 `json:"gas_required"`
	ReturnData  []byte `json:"return_data,omitempty"`
	Err         error  `json:"-"`
}

// Ok reports whether the simulated transaction would succeed.
func (r DryRunResult) Ok() bool { return r.Err == nil }

// DryRun simulates a transaction for the connected account without
// submitting it.
type DryRun struct {
	method  string
	binding *contracts.MaginkBinding
	api     ChainAPI
	metrics *Metrics
	log     zerolog.Logger
}

func newDryRun(p *Provider, method string) *DryRun {
	return &DryRun{method: method, binding: p.binding, api: p.api, metrics: p.metrics, log: p.log}
}

// Method returns the contract message name.
func (d *DryRun) Method() string { return d.method }

// Send runs the message as a call and estimates its gas.
func (d *DryRun) Send(ctx context.Context, args []any, opts *TxOptions) DryRunResult {
	res := d.send(ctx, args, opts)
	d.metrics.RecordDryRun(d.method, res.Ok())
	return res
}

func (d *DryRun) send(ctx context.Context, args []any, opts *TxOptions) DryRunResult {
	data, err := d.binding.Pack(d.method, args...)
	if err != nil {
		return DryRunResult{Err: err}
	}

	from := resolveCaller(d.api, nil)
	to := d.binding.Address()

	ret, err := d.api.Call(ctx, from, to, data)
	if err != nil {
		return DryRunResult{Err: decodeError(d.binding, d.method, err)}
	}

	gas, err := d.api.EstimateGas(ctx, from, to, data, opts.value())
	if err != nil {
		return DryRunResult{ReturnData: ret, Err: decodeError(d.binding, d.method, err)}
	}

	d.log.Debug().Str("method", d.method).Uint64("gas_required", gas).Msg("Dry run completed")
	return DryRunResult{GasRequired: gas, ReturnData: ret}
}
