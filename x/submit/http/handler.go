package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	apicommon "github.com/magink/magink/server/api"
	"github.com/magink/magink/x/submit"
)

// Submitter runs one submission.
type Submitter interface {
	Submit(ctx context.Context, form submit.Form) *submit.Outcome
}

type Handler struct {
	submitter Submitter
	flag      *submit.Flag
	log       zerolog.Logger
}

func NewHandler(submitter Submitter, flag *submit.Flag, log zerolog.Logger) *Handler {
	if flag == nil {
		flag = &submit.Flag{}
	}
	return &Handler{
		submitter: submitter,
		flag:      flag,
		log:       log.With().Str("component", "submit-http").Logger(),
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.flag.TryStart() {
		apicommon.WriteError(w, r, http.StatusConflict, "submission_in_progress",
			"a submission is already running", nil)
		return
	}

	out := h.submitter.Submit(r.Context(), h.flag)
	resp := newOutcomeResponse(out)
	if out.Err == nil {
		apicommon.WriteJSON(w, http.StatusOK, resp)
		return
	}

	status, code := classify(out.Err)
	apicommon.WriteError(w, r, status, code, out.Err.Error(), resp)
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	apicommon.WriteJSON(w, http.StatusOK, map[string]bool{"submitting": h.flag.Submitting()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, submit.ErrNoAccount):
		return http.StatusServiceUnavailable, "no_account"
	case errors.Is(err, submit.ErrBadgeReadFailed):
		return http.StatusBadGateway, "badge_read_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusBadGateway, "submission_failed"
	}
}

type outcomeResponse struct {
	ID       string `json:"id"`
	Account  string `json:"account,omitempty"`
	Branch   string `json:"branch"`
	Badges   *uint8 `json:"badges,omitempty"`
	IPNFT    string `json:"ipnft,omitempty"`
	Digest   string `json:"digest,omitempty"`
	TxHash   string `json:"tx_hash,omitempty"`
	TxStatus string `json:"tx_status,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

func newOutcomeResponse(out *submit.Outcome) outcomeResponse {
	resp := outcomeResponse{
		ID:       out.ID.String(),
		Branch:   string(out.Branch),
		IPNFT:    out.IPNFT,
		Digest:   out.Digest,
		TxStatus: string(out.TxStatus),
	}
	if out.Account != (common.Address{}) {
		resp.Account = out.Account.Hex()
	}
	if out.BadgesOK {
		badges := out.Badges
		resp.Badges = &badges
	}
	if out.TxHash != (common.Hash{}) {
		resp.TxHash = out.TxHash.Hex()
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	if !out.Finished.IsZero() {
		resp.Duration = out.Finished.Sub(out.Started).Round(time.Millisecond).String()
	}
	return resp
}
