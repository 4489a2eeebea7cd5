package nftstorage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func testToken() Token {
	return Token{
		Name:        "0x4444444444444444444444444444444444444444",
		Description: "Wizard NFT reward for completing Magink challenges",
		Image:       &File{Name: "wizard.png", ContentType: "image/png", Data: pngHeader},
	}
}

func TestStore_SendsMultipartAndDecodesResult(t *testing.T) {
	var meta map[string]any
	var image []byte
	var imageType, auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/store", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			body, err := io.ReadAll(part)
			require.NoError(t, err)
			switch part.FormName() {
			case "meta":
				require.NoError(t, json.Unmarshal(body, &meta))
			case "image":
				require.Equal(t, "wizard.png", part.FileName())
				imageType = part.Header.Get("Content-Type")
				image = body
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"ok":true,"value":{"ipnft":%q,"url":"ipfs://%s/metadata.json"}}`, testCID, testCID)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "secret", srv.Client(), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := c.Store(ctx, testToken())
	require.NoError(t, err)
	require.Equal(t, testCID, res.IPNFT)
	require.Equal(t, "ipfs://"+testCID+"/metadata.json", res.URL)
	require.Equal(t, testCID, res.CID.String())
	require.EqualValues(t, 1, res.CID.Version())

	require.Equal(t, "Bearer secret", auth)
	require.Equal(t, "0x4444444444444444444444444444444444444444", meta["name"])
	require.Equal(t, "Wizard NFT reward for completing Magink challenges", meta["description"])
	require.Contains(t, meta, "image")
	require.Nil(t, meta["image"])
	require.Equal(t, pngHeader, image)
	require.Equal(t, "image/png", imageType)
}

func TestStore_ErrorResponses(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"api error", http.StatusBadRequest, `{"ok":false,"error":{"name":"HTTPError","message":"bad meta"}}`, "bad meta"},
		{"not ok", http.StatusOK, `{"ok":false}`, "store failed"},
		{"plain text 5xx", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"missing ipnft", http.StatusOK, `{"ok":true,"value":{"url":"ipfs://x"}}`, "missing ipnft"},
		{"malformed ipnft", http.StatusOK, `{"ok":true,"value":{"ipnft":"bafyreiabc"}}`, "invalid content identifier"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL, "secret", srv.Client(), zerolog.Nop())
			require.NoError(t, err)
			_, err = c.Store(context.Background(), testToken())
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestStore_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "bad", srv.Client(), zerolog.Nop())
	require.NoError(t, err)
	_, err = c.Store(context.Background(), testToken())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestStore_RequiresImage(t *testing.T) {
	c, err := NewClient("http://example.com", "secret", nil, zerolog.Nop())
	require.NoError(t, err)

	tok := testToken()
	tok.Image = nil
	_, err = c.Store(context.Background(), tok)
	require.ErrorIs(t, err, ErrMissingImage)
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("", " ", nil, zerolog.Nop())
	require.Error(t, err)
}
