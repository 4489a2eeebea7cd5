package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/magink/magink/metrics"
	"github.com/magink/magink/x/chain"
	"github.com/magink/magink/x/chain/chaintest"
	"github.com/magink/magink/x/magink"
	"github.com/magink/magink/x/magink/contracts"
)

const testAccount = "0x3333333333333333333333333333333333333333"

type revertError struct{ data string }

func (e revertError) Error() string          { return "execution reverted" }
func (e revertError) ErrorData() interface{} { return e.data }

type fixture struct {
	eth      *chaintest.FakeEthClient
	provider *magink.Provider
	router   *mux.Router
	answers  map[string]func() ([]byte, error)
}

func newFixture(t *testing.T, withKey bool) *fixture {
	t.Helper()
	binding, err := contracts.NewMaginkBinding("0x000000000000000000000000000000000000dEaD")
	require.NoError(t, err)

	eth := chaintest.NewFakeEthClient()
	cfg := chain.DefaultConfig()
	cfg.DefaultCaller = "0x2222222222222222222222222222222222222222"
	cfg.ReceiptPollInterval = time.Millisecond

	var signer chain.Signer
	if withKey {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		signer = chain.NewLocalECDSASigner(big.NewInt(1337), key)
	}
	client := chain.NewClient(cfg, eth, signer, big.NewInt(1337), zerolog.Nop())
	m := magink.NewMetricsWith(metrics.NewComponentRegistryWith(prometheus.NewRegistry(), "magink", "http_test"))
	p := magink.NewProvider(binding, client, zerolog.Nop(), magink.WithMetrics(m))

	f := &fixture{eth: eth, provider: p, router: mux.NewRouter(), answers: map[string]func() ([]byte, error){}}
	NewHandler(p, zerolog.Nop()).RegisterMux(f.router)

	eth.OnCall = func(msg ethereum.CallMsg) ([]byte, error) {
		for name, m := range binding.ABI().Methods {
			if bytes.Equal(msg.Data[:4], m.ID) {
				if answer, ok := f.answers[name]; ok {
					return answer()
				}
			}
		}
		return nil, errors.New("unexpected call")
	}
	return f
}

func (f *fixture) answer(t *testing.T, method string, values ...any) {
	t.Helper()
	ret, err := f.provider.Binding().ABI().Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	f.answers[method] = func() ([]byte, error) { return ret, nil }
}

func (f *fixture) revert(method, contractErr string) {
	id := f.provider.Binding().ABI().Errors[contractErr].ID
	f.answers[method] = func() ([]byte, error) {
		return nil, revertError{data: hexutil.Encode(id[:4])}
	}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestBadges(t *testing.T) {
	f := newFixture(t, false)

	f.answer(t, contracts.MethodGetBadgesFor, uint8(9))
	rec := f.do(http.MethodGet, "/v1/accounts/"+testAccount+"/badges", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[badgesResp](t, rec)
	require.EqualValues(t, 9, resp.Badges)
	require.True(t, resp.CanMint)
	require.Equal(t, "mint", resp.NextAction)
	require.Equal(t, common.HexToAddress("0x2222222222222222222222222222222222222222"), f.eth.Calls[0].From)

	f.answer(t, contracts.MethodGetBadgesFor, uint8(8))
	resp = decode[badgesResp](t, f.do(http.MethodGet, "/v1/accounts/"+testAccount+"/badges", ""))
	require.False(t, resp.CanMint)
	require.Equal(t, "claim", resp.NextAction)
}

func TestBadges_InvalidAddress(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodGet, "/v1/accounts/0x1234/badges", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_address", decode[errorEnvelope](t, rec).Error.Code)
	require.Empty(t, f.eth.Calls)
}

func TestBadges_CallFailed(t *testing.T) {
	f := newFixture(t, false)
	f.answers[contracts.MethodGetBadgesFor] = func() ([]byte, error) { return nil, errors.New("connection refused") }

	rec := f.do(http.MethodGet, "/v1/accounts/"+testAccount+"/badges", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "call_failed", decode[errorEnvelope](t, rec).Error.Code)
}

func TestRemaining(t *testing.T) {
	f := newFixture(t, false)
	f.answer(t, contracts.MethodGetRemainingFor, uint8(4))

	rec := f.do(http.MethodGet, "/v1/accounts/"+testAccount+"/remaining", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 4, decode[remainingResp](t, rec).Remaining)
}

func TestProfile(t *testing.T) {
	f := newFixture(t, false)
	f.answer(t, contracts.MethodGetAccountProfile, true, struct {
		ClaimEra      uint8
		StartBlock    uint32
		BadgesClaimed uint8
	}{ClaimEra: 10, StartBlock: 1234, BadgesClaimed: 3})

	rec := f.do(http.MethodGet, "/v1/accounts/"+testAccount+"/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[profileResp](t, rec)
	require.True(t, resp.Found)
	require.Equal(t, contracts.Profile{ClaimEra: 10, StartBlock: 1234, BadgesClaimed: 3}, resp.Profile)
}

func TestProfile_NotFound(t *testing.T) {
	f := newFixture(t, false)
	f.answer(t, contracts.MethodGetAccountProfile, false, struct {
		ClaimEra      uint8
		StartBlock    uint32
		BadgesClaimed uint8
	}{})

	rec := f.do(http.MethodGet, "/v1/accounts/"+testAccount+"/profile", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfile_ContractError(t *testing.T) {
	f := newFixture(t, false)
	f.revert(contracts.MethodGetAccountProfile, "UserNotFound")

	rec := f.do(http.MethodGet, "/v1/accounts/"+testAccount+"/profile", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode[errorEnvelope](t, rec)
	require.Equal(t, "contract_error", env.Error.Code)
	require.Equal(t, "UserNotFound", env.Error.Details["contract_error"])
}

func TestSupply(t *testing.T) {
	f := newFixture(t, false)
	supply, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	require.True(t, ok)
	f.answer(t, contracts.MethodGetTotalWizardSupply, supply)

	rec := f.do(http.MethodGet, "/v1/wizard/supply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, supply.String(), decode[supplyResp](t, rec).TotalSupply)
}

func TestAccount(t *testing.T) {
	f := newFixture(t, true)
	f.answer(t, contracts.MethodGetBadges, uint8(2))
	f.answer(t, contracts.MethodGetRemaining, uint8(5))
	f.revert(contracts.MethodGetProfile, "UserNotFound")

	rec := f.do(http.MethodGet, "/v1/account", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[accountResp](t, rec)
	require.NotNil(t, resp.Badges)
	require.EqualValues(t, 2, *resp.Badges)
	require.NotNil(t, resp.Remaining)
	require.EqualValues(t, 5, *resp.Remaining)
	require.Nil(t, resp.Profile)
	require.Contains(t, resp.Errors["profile"], "user not found")
}

func TestAccount_NoSigner(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(http.MethodGet, "/v1/account", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStart(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodPost, "/v1/challenges/start", `{"era":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[magink.TxResult](t, rec)
	require.Equal(t, contracts.MethodStart, res.Method)
	require.Equal(t, magink.TxStatusInBlock, res.Status)

	sent := f.eth.LastSent()
	require.NotNil(t, sent)
	args, err := f.provider.Binding().ABI().Methods[contracts.MethodStart].Inputs.Unpack(sent.Data()[4:])
	require.NoError(t, err)
	require.Equal(t, uint8(10), args[0])
}

func TestStart_Errors(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(http.MethodPost, "/v1/challenges/start", `{"era":300}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/v1/challenges/start", `{"era":10}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "no_signer", decode[errorEnvelope](t, rec).Error.Code)
	require.Empty(t, f.eth.Sent)
}

func TestDryRun(t *testing.T) {
	f := newFixture(t, true)
	f.eth.GasEstimate = 42_000
	f.answers[contracts.MethodStart] = func() ([]byte, error) { return nil, nil }
	f.revert(contracts.MethodClaim, "TooEarlyToClaim")

	rec := f.do(http.MethodPost, "/v1/dry-run/start", `{"era":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[dryRunResp](t, rec)
	require.True(t, resp.Ok)
	require.EqualValues(t, 42_000, resp.GasRequired)

	rec = f.do(http.MethodPost, "/v1/dry-run/start", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/v1/dry-run/claim", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[dryRunResp](t, rec)
	require.False(t, resp.Ok)
	require.Equal(t, "TooEarlyToClaim", resp.Error)

	rec = f.do(http.MethodPost, "/v1/dry-run/mint", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, f.eth.Sent)
}
