package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apicommon "github.com/magink/magink/server/api"
	"github.com/magink/magink/x/chain"
	"github.com/magink/magink/x/magink"
	"github.com/magink/magink/x/magink/contracts"
)

type Handler struct {
	provider *magink.Provider
	log      zerolog.Logger
}

func NewHandler(provider *magink.Provider, log zerolog.Logger) *Handler {
	return &Handler{
		provider: provider,
		log:      log.With().Str("component", "magink-http").Logger(),
	}
}

// readOpts evaluates account reads from the default caller so they work
// without a signing key.
var readOpts = &magink.CallOptions{DefaultCaller: true}

func (h *Handler) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := h.provider.API().Account()
	if !ok {
		apicommon.WriteError(w, r, http.StatusServiceUnavailable, "no_account", "no connected account", nil)
		return
	}

	ctx := r.Context()
	resp := accountResp{Account: account.Hex(), Errors: map[string]string{}}
	if res := h.provider.GetBadges.Send(ctx, nil, nil); res.Ok() {
		resp.Badges = &res.Value
	} else {
		resp.Errors["badges"] = res.Err.Error()
	}
	if res := h.provider.GetRemaining.Send(ctx, nil, nil); res.Ok() {
		resp.Remaining = &res.Value
	} else {
		resp.Errors["remaining"] = res.Err.Error()
	}
	if res := h.provider.GetProfile.Send(ctx, nil, nil); res.Ok() {
		resp.Profile = &res.Value
	} else {
		resp.Errors["profile"] = res.Err.Error()
	}
	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}

	apicommon.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBadges(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	badges, err := h.provider.GetBadgesFor.Send(r.Context(), []any{account}, readOpts).Decoded()
	if err != nil {
		h.writeCallError(w, r, err)
		return
	}

	next := "claim"
	if badges >= magink.MintThreshold {
		next = "mint"
	}
	apicommon.WriteJSON(w, http.StatusOK, badgesResp{
		Account:    account.Hex(),
		Badges:     badges,
		CanMint:    badges >= magink.MintThreshold,
		Threshold:  magink.MintThreshold,
		NextAction: next,
	})
}

func (h *Handler) handleRemaining(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	remaining, err := h.provider.GetRemainingFor.Send(r.Context(), []any{account}, readOpts).Decoded()
	if err != nil {
		h.writeCallError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, remainingResp{Account: account.Hex(), Remaining: remaining})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	lookup, err := h.provider.GetAccountProfile.Send(r.Context(), []any{account}, readOpts).Decoded()
	if err != nil {
		h.writeCallError(w, r, err)
		return
	}
	if !lookup.Found {
		apicommon.WriteError(w, r, http.StatusNotFound, "not_found", "account has no challenge profile", nil)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, profileResp{Account: account.Hex(), ProfileLookup: lookup})
}

func (h *Handler) handleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.provider.GetTotalWizardSupply.Send(r.Context(), nil, readOpts).Decoded()
	if err != nil {
		h.writeCallError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, supplyResp{TotalSupply: supply.String()})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := apicommon.DecodeJSON(w, r, &req); err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request", err.Error())
		return
	}

	res, err := h.provider.Start.SignAndSend(r.Context(), []any{req.Era}, nil, nil)
	if err != nil {
		h.writeTxError(w, r, res, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleDryRun(w http.ResponseWriter, r *http.Request) {
	op := strings.ToLower(mux.Vars(r)["op"])

	var res magink.DryRunResult
	switch op {
	case contracts.MethodStart:
		var req startReq
		if err := apicommon.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request", err.Error())
			return
		}
		res = h.provider.StartDryRun.Send(r.Context(), []any{req.Era}, nil)
	case contracts.MethodClaim:
		res = h.provider.ClaimDryRun.Send(r.Context(), nil, nil)
	default:
		apicommon.WriteError(w, r, http.StatusBadRequest, "unknown_operation",
			"operation must be start or claim", map[string]string{"op": op})
		return
	}

	resp := dryRunResp{Op: op, Ok: res.Ok(), GasRequired: res.GasRequired}
	if res.Err != nil {
		resp.Error = res.Err.Error()
		if name, ok := contracts.ErrorName(res.Err); ok {
			resp.Error = name
		}
	}
	apicommon.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) accountParam(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	addr := strings.TrimSpace(mux.Vars(r)["address"])
	if !common.IsHexAddress(addr) {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_address", "expect 20-byte hex address", nil)
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

func (h *Handler) writeCallError(w http.ResponseWriter, r *http.Request, err error) {
	if name, ok := contracts.ErrorName(err); ok {
		apicommon.WriteError(w, r, http.StatusUnprocessableEntity, "contract_error", err.Error(),
			map[string]string{"contract_error": name})
		return
	}
	h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("Contract call failed")
	apicommon.WriteError(w, r, http.StatusBadGateway, "call_failed", err.Error(), nil)
}

func (h *Handler) writeTxError(w http.ResponseWriter, r *http.Request, res *magink.TxResult, err error) {
	switch {
	case errors.Is(err, chain.ErrNoSigner):
		apicommon.WriteError(w, r, http.StatusServiceUnavailable, "no_signer", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, chain.ErrReceiptTimeout):
		apicommon.WriteError(w, r, http.StatusGatewayTimeout, "timeout", err.Error(), res)
	default:
		if name, ok := contracts.ErrorName(err); ok {
			apicommon.WriteError(w, r, http.StatusUnprocessableEntity, "contract_error", err.Error(),
				map[string]any{"contract_error": name, "result": res})
			return
		}
		apicommon.WriteError(w, r, http.StatusBadGateway, "transaction_failed", err.Error(), res)
	}
}
