package submit

import (
	"context"

	"github.com/magink/magink/x/magink"
	"github.com/magink/magink/x/nftstorage"
)

// BadgeReader reads a badge count for the account passed as sole argument.
type BadgeReader interface {
	Send(ctx context.Context, args []any, opts *magink.CallOptions) magink.CallResult[uint8]
}

// TxSender signs and sends a contract transaction.
type TxSender interface {
	SignAndSend(
		ctx context.Context,
		args []any,
		opts *magink.TxOptions,
		cb magink.TxCallback,
	) (*magink.TxResult, error)
}

// Contract is the slice of the contract the orchestrator uses.
type Contract struct {
	GetBadgesFor BadgeReader
	Claim        TxSender
	MintWizard   TxSender
}

// ContractFromProvider picks the handles the orchestrator needs.
func ContractFromProvider(p *magink.Provider) Contract {
	return Contract{
		GetBadgesFor: p.GetBadgesFor,
		Claim:        p.Claim,
		MintWizard:   p.MintWizard,
	}
}

// Uploader stores NFT metadata off-chain.
type Uploader interface {
	Store(ctx context.Context, token nftstorage.Token) (*nftstorage.Result, error)
}

// ImageSource provides the image attached to the NFT metadata.
type ImageSource interface {
	Image(ctx context.Context) (*nftstorage.File, error)
}

// Form carries the submitting state of whoever triggered the submission.
type Form interface {
	SetSubmitting(submitting bool)
}
