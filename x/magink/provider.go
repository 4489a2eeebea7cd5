// Package magink binds the magink challenge contract: dry runs, transactions
// with lifecycle notifications, and read-only calls, exposed as one value
// that callers receive explicitly.
package magink

import (
	"math/big"

	"github.com/rs/zerolog"

	"github.com/magink/magink/x/magink/contracts"
)

// MintThreshold is the badge count from which the wizard NFT can be minted.
const MintThreshold = 9

// Provider exposes the contract operations.
type Provider struct {
	binding *contracts.MaginkBinding
	api     ChainAPI
	metrics *Metrics
	log     zerolog.Logger

	StartDryRun *DryRun
	ClaimDryRun *DryRun

	Start      *Tx
	Claim      *Tx
	MintWizard *Tx

	GetRemaining    *Call[uint8]
	GetRemainingFor *Call[uint8]
	GetBadges       *Call[uint8]
	GetBadgesFor    *Call[uint8]

	GetProfile           *Call[contracts.ProfileLookup]
	GetAccountProfile    *Call[contracts.ProfileLookup]
	GetTotalWizardSupply *Call[*big.Int]
}

// Option configures a Provider.
type Option func(*providerOptions)

type providerOptions struct {
	notifiers []Notifier
	metrics   *Metrics
}

// WithNotifier adds a lifecycle notifier to every transaction handle.
func WithNotifier(n Notifier) Option {
	return func(o *providerOptions) { o.notifiers = append(o.notifiers, n) }
}

// WithMetrics replaces the default global metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *providerOptions) { o.metrics = m }
}

// NewProvider builds every handle for the contract behind binding. Without
// WithNotifier, transaction lifecycle notifications go to the logger.
func NewProvider(binding *contracts.MaginkBinding, api ChainAPI, log zerolog.Logger, opts ...Option) *Provider {
	o := &providerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}
	if len(o.notifiers) == 0 {
		o.notifiers = []Notifier{NewLogNotifier(log)}
	}

	p := &Provider{
		binding: binding,
		api:     api,
		metrics: o.metrics,
		log:     log.With().Str("component", "magink-contract").Logger(),
	}

	p.ClaimDryRun = newDryRun(p, contracts.MethodClaim)
	p.StartDryRun = newDryRun(p, contracts.MethodStart)

	p.Claim = newTx(p, contracts.MethodClaim)
	p.Start = newTx(p, contracts.MethodStart)
	p.MintWizard = newTx(p, contracts.MethodMintWizard)

	p.GetRemaining = newCall(p, contracts.MethodGetRemaining, p.uint8Decoder(contracts.MethodGetRemaining))
	p.GetBadges = newCall(p, contracts.MethodGetBadges, p.uint8Decoder(contracts.MethodGetBadges))
	p.GetBadgesFor = newCall(p, contracts.MethodGetBadgesFor, p.uint8Decoder(contracts.MethodGetBadgesFor))
	p.GetRemainingFor = newCall(p, contracts.MethodGetRemainingFor, p.uint8Decoder(contracts.MethodGetRemainingFor))

	p.GetProfile = newCall(p, contracts.MethodGetProfile, p.profileDecoder(contracts.MethodGetProfile))
	p.GetAccountProfile = newCall(p, contracts.MethodGetAccountProfile,
		p.profileDecoder(contracts.MethodGetAccountProfile))
	p.GetTotalWizardSupply = newCall(p, contracts.MethodGetTotalWizardSupply, binding.UnpackSupply)

	for _, n := range o.notifiers {
		for _, tx := range []*Tx{p.Claim, p.Start, p.MintWizard} {
			tx.Subscribe(n)
		}
	}

	p.log.Info().Str("contract", binding.Address().Hex()).Msg("Contract provider ready")
	return p
}

// Binding returns the underlying contract binding.
func (p *Provider) Binding() *contracts.MaginkBinding { return p.binding }

// API returns the chain handle used by every operation.
func (p *Provider) API() ChainAPI { return p.api }

func (p *Provider) uint8Decoder(method string) func([]byte) (uint8, error) {
	return func(raw []byte) (uint8, error) { return p.binding.UnpackUint8(method, raw) }
}

func (p *Provider) profileDecoder(method string) func([]byte) (contracts.ProfileLookup, error) {
	return func(raw []byte) (contracts.ProfileLookup, error) { return p.binding.UnpackProfile(method, raw) }
}
