package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func captureID(seen *string) http.Handler {
	return RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = RequestIDFrom(r.Context())
	}))
}

func TestRequestID_GeneratesUUID(t *testing.T) {
	var seen string
	rec := httptest.NewRecorder()
	captureID(&seen).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	require.Equal(t, seen, rec.Header().Get(HeaderRequestID))
}

func TestRequestID_ClientIDs(t *testing.T) {
	cases := []struct {
		name string
		in   string
		keep bool
	}{
		{"token", "abc-123_x.y", true},
		{"too long", strings.Repeat("x", maxRequestIDLen+1), false},
		{"spaces", "a b", false},
		{"newline", "abc\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tc.in)
			captureID(&seen).ServeHTTP(httptest.NewRecorder(), req)
			if tc.keep {
				require.Equal(t, tc.in, seen)
				return
			}
			require.NotEqual(t, tc.in, seen)
			require.Len(t, seen, 36)
		})
	}
}

func TestLogger_WritesAccessLineWithRoute(t *testing.T) {
	var buf bytes.Buffer
	r := mux.NewRouter()
	r.HandleFunc("/v1/accounts/{address}/badges", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	}).Methods(http.MethodGet).Name("account-badges")

	h := RequestID()(Logger(zerolog.New(&buf), r)(r))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/accounts/0xabc/badges", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "warn", line["level"])
	require.Equal(t, "account-badges", line["route"])
	require.Equal(t, "/v1/accounts/0xabc/badges", line["path"])
	require.EqualValues(t, http.StatusTeapot, line["status"])
	require.EqualValues(t, 2, line["bytes"])
	require.NotEmpty(t, line["request_id"])
}

func TestLogger_QuietPaths(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.InfoLevel)
	h := Logger(log, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Zero(t, buf.Len())
}

func TestRecover(t *testing.T) {
	h := RequestID()(Recover(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-7")
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, req) })
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "internal", body.Error.Code)
	require.Equal(t, "req-7", body.Error.RequestID)
}

func TestRecover_AfterPartialWrite(t *testing.T) {
	h := Recover(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Empty(t, rec.Body.String())
}
