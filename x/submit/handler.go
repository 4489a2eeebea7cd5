// Package submit runs a challenge submission: read the badge count, then
// either mint the wizard NFT or claim the next badge.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/magink/magink/x/chain"
	"github.com/magink/magink/x/magink"
)

var (
	// ErrNoAccount is returned when no wallet account is connected.
	ErrNoAccount = errors.New("no connected account")
	// ErrBadgeReadFailed is returned under PolicyAbort when the badge read fails.
	ErrBadgeReadFailed = errors.New("badge count read failed")
)

// Branch is the path a submission took.
type Branch string

const (
	BranchMint  Branch = "mint"
	BranchClaim Branch = "claim"
	BranchNone  Branch = "none"
)

// Outcome describes a finished submission.
type Outcome struct {
	ID       uuid.UUID       `json:"id"`
	Account  common.Address  `json:"account"`
	Branch   Branch          `json:"branch"`
	Badges   uint8           `json:"badges"`
	BadgesOK bool            `json:"badges_ok"`
	IPNFT    string          `json:"ipnft,omitempty"`
	Digest   string          `json:"digest,omitempty"`
	TxHash   common.Hash     `json:"tx_hash,omitempty"`
	TxStatus magink.TxStatus `json:"tx_status,omitempty"`
	Err      error           `json:"-"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
}

// Handler orchestrates submissions.
type Handler struct {
	cfg      Config
	contract Contract
	wallet   chain.Wallet
	uploader Uploader
	images   ImageSource
	metrics  *Metrics
	log      zerolog.Logger
}

func NewHandler(
	cfg Config,
	contract Contract,
	wallet chain.Wallet,
	uploader Uploader,
	images ImageSource,
	log zerolog.Logger,
) *Handler {
	if images == nil {
		images = EmbeddedImage{}
	}
	if cfg.ReadFailurePolicy == "" {
		cfg.ReadFailurePolicy = PolicyClaim
	}
	return &Handler{
		cfg:      cfg,
		contract: contract,
		wallet:   wallet,
		uploader: uploader,
		images:   images,
		metrics:  NewMetrics(),
		log:      log.With().Str("component", "submit-handler").Logger(),
	}
}

// Submit runs one submission for the connected account. The form's
// submitting flag is cleared exactly once before Submit returns, whatever
// branch was taken and whatever failed. Failures are logged and reported on
// the Outcome; nothing is retried.
func (h *Handler) Submit(ctx context.Context, form Form) *Outcome {
	out := &Outcome{ID: uuid.New(), Branch: BranchNone, Started: time.Now()}
	log := h.log.With().Str("submission_id", out.ID.String()).Logger()

	var once sync.Once
	done := func() { once.Do(func() { form.SetSubmitting(false) }) }
	defer done()

	h.metrics.InFlight.Inc()
	defer func() {
		h.metrics.InFlight.Dec()
		out.Finished = time.Now()
		h.metrics.RecordSubmission(out.Branch, out.Err)
	}()

	account, ok := h.wallet.Account()
	if !ok {
		out.Err = ErrNoAccount
		log.Error().Err(out.Err).Msg("Submission rejected")
		return out
	}
	out.Account = account

	badges := h.contract.GetBadgesFor.Send(ctx, []any{account}, &magink.CallOptions{DefaultCaller: true})
	if badges.Ok() {
		out.Badges, out.BadgesOK = badges.Value, true
	} else {
		if h.cfg.ReadFailurePolicy == PolicyAbort {
			out.Err = fmt.Errorf("%w: %w", ErrBadgeReadFailed, badges.Err)
			log.Error().Err(badges.Err).Msg("Badge count unavailable, submission aborted")
			return out
		}
		log.Warn().Err(badges.Err).Msg("Badge count unavailable, falling back to claim")
	}

	if badges.Ok() && badges.Value >= magink.MintThreshold {
		out.Branch = BranchMint
		log.Info().Uint8("badges", badges.Value).Msg("Badge threshold reached, sending mint wizard transaction")
		h.mint(ctx, log, account, out, done)
		return out
	}

	out.Branch = BranchClaim
	log.Info().Uint8("badges", out.Badges).Bool("badges_ok", out.BadgesOK).Msg("Sending claim transaction")
	_, _ = h.contract.Claim.SignAndSend(ctx, nil, nil, h.completion(log, out, done))
	return out
}

func (h *Handler) mint(ctx context.Context, log zerolog.Logger, account common.Address, out *Outcome, done func()) {
	result, err := h.createNFTMetadata(ctx, account)
	if err != nil {
		out.Err = err
		log.Error().Err(err).Msg("Failed to create NFT metadata")
		return
	}
	out.IPNFT = result.IPNFT
	out.Digest = ContentDigest(result.IPNFT)

	log.Debug().Str("ipnft", out.IPNFT).Str("digest", out.Digest).Msg("NFT metadata stored")

	mintArgs := []any{[]byte(out.Digest)}
	_, _ = h.contract.MintWizard.SignAndSend(ctx, mintArgs, nil, h.completion(log, out, done))
}

// completion records the transaction outcome, logs failures and clears the
// submitting flag.
func (h *Handler) completion(log zerolog.Logger, out *Outcome, done func()) magink.TxCallback {
	return func(result *magink.TxResult, api magink.ChainAPI, err error) {
		if result != nil {
			out.TxHash = result.Hash
			out.TxStatus = result.Status
		}
		if err != nil {
			out.Err = err
			evt := log.Error().Err(err).Interface("result", result)
			if api != nil {
				evt = evt.Str("chain_id", api.ChainID().String())
			}
			evt.Msg("Transaction failed")
		}
		done()
	}
}
