package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/magink/magink/x/magink"
	"github.com/magink/magink/x/submit"
)

type stubSubmitter struct {
	out   *submit.Outcome
	calls int
}

func (s *stubSubmitter) Submit(_ context.Context, form submit.Form) *submit.Outcome {
	s.calls++
	form.SetSubmitting(false)
	return s.out
}

func newRouter(s Submitter, flag *submit.Flag) *mux.Router {
	r := mux.NewRouter()
	NewHandler(s, flag, zerolog.New(io.Discard)).RegisterMux(r)
	return r
}

func TestSubmit_OK(t *testing.T) {
	start := time.Now()
	s := &stubSubmitter{out: &submit.Outcome{
		ID:       uuid.New(),
		Account:  common.HexToAddress("0x01"),
		Branch:   submit.BranchMint,
		Badges:   9,
		BadgesOK: true,
		IPNFT:    "bafy",
		Digest:   submit.ContentDigest("bafy"),
		TxHash:   common.HexToHash("0xaa"),
		TxStatus: magink.TxStatusInBlock,
		Started:  start,
		Finished: start.Add(1500 * time.Millisecond),
	}}
	flag := &submit.Flag{}
	r := newRouter(s, flag)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, routeSubmit, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp outcomeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "mint", resp.Branch)
	require.NotNil(t, resp.Badges)
	require.EqualValues(t, 9, *resp.Badges)
	require.Equal(t, submit.ContentDigest("bafy"), resp.Digest)
	require.Equal(t, common.HexToHash("0xaa").Hex(), resp.TxHash)
	require.Equal(t, "1.5s", resp.Duration)
	require.Empty(t, resp.Error)
	require.False(t, flag.Submitting())
}

func TestSubmit_Conflict(t *testing.T) {
	s := &stubSubmitter{out: &submit.Outcome{}}
	flag := &submit.Flag{}
	require.True(t, flag.TryStart())
	r := newRouter(s, flag)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, routeSubmit, nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Zero(t, s.calls)
	require.True(t, flag.Submitting())
}

func TestSubmit_Failures(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{submit.ErrNoAccount, http.StatusServiceUnavailable, "no_account"},
		{errors.Join(submit.ErrBadgeReadFailed, errors.New("rpc")), http.StatusBadGateway, "badge_read_failed"},
		{magink.ErrTxReverted, http.StatusBadGateway, "submission_failed"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	}
	for _, tc := range cases {
		s := &stubSubmitter{out: &submit.Outcome{Branch: submit.BranchClaim, Err: tc.err}}
		r := newRouter(s, nil)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, routeSubmit, nil))

		require.Equal(t, tc.status, rec.Code)
		var body struct {
			Error struct {
				Code    string          `json:"code"`
				Details outcomeResponse `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.code, body.Error.Code)
		require.Equal(t, "claim", body.Error.Details.Branch)
		require.Equal(t, tc.err.Error(), body.Error.Details.Error)
	}
}

func TestStatus(t *testing.T) {
	flag := &submit.Flag{}
	r := newRouter(&stubSubmitter{}, flag)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, routeStatus, nil))
	require.JSONEq(t, `{"submitting":false}`, rec.Body.String())

	flag.SetSubmitting(true)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, routeStatus, nil))
	require.JSONEq(t, `{"submitting":true}`, rec.Body.String())
}

func TestSubmit_MethodNotAllowed(t *testing.T) {
	r := newRouter(&stubSubmitter{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, routeSubmit, nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
