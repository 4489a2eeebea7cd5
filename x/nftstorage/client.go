package nftstorage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"
)

// DefaultEndpoint is the public nft.storage API.
const DefaultEndpoint = "https://api.nft.storage"

var (
	// ErrMissingImage is returned when a token has no image file.
	ErrMissingImage = errors.New("token image is required")
	// ErrUnauthorized is returned for rejected API tokens.
	ErrUnauthorized = errors.New("nft.storage rejected the API token")
	// ErrInvalidCID is returned when the service answers with a malformed ipnft.
	ErrInvalidCID = errors.New("invalid content identifier")
)

// Client stores NFT metadata through the nft.storage HTTP API.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	metrics    *Metrics
	log        zerolog.Logger
}

// NewClient builds a client for endpoint authenticated with token.
func NewClient(endpoint, token string, httpClient *http.Client, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("API token is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid nft.storage endpoint: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := log.With().Str("component", "nftstorage-client").Logger()

	logger.Info().
		Str("endpoint", endpoint).
		Dur("timeout", httpClient.Timeout).
		Msg("nft.storage client initialized")

	return &Client{
		baseURL:    parsed,
		token:      token,
		httpClient: httpClient,
		metrics:    NewMetrics(),
		log:        logger,
	}, nil
}

// Store uploads the token image and metadata and returns the content
// identifier of the metadata root.
func (c *Client) Store(ctx context.Context, token Token) (*Result, error) {
	start := time.Now()
	res, err := c.store(ctx, token)
	c.metrics.RecordUpload(err == nil, time.Since(start))
	return res, err
}

func (c *Client) store(ctx context.Context, token Token) (*Result, error) {
	if token.Image == nil || len(token.Image.Data) == 0 {
		return nil, ErrMissingImage
	}

	body, contentType, err := encodeToken(token)
	if err != nil {
		return nil, fmt.Errorf("encode token: %w", err)
	}
	c.metrics.ObserveSize(body.Len())

	endpoint := c.buildURL("store")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("prepare request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.log.Debug().
		Str("endpoint", endpoint).
		Str("name", token.Name).
		Int("image_bytes", len(token.Image.Data)).
		Msg("storing token metadata")

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("store request failed")
		return nil, fmt.Errorf("post store request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read store response: %w", err)
	}

	var decoded storeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if res.StatusCode >= 400 {
			return nil, fmt.Errorf("store failed with %s: %s", res.Status, strings.TrimSpace(string(raw)))
		}
		return nil, fmt.Errorf("decode store response: %w", err)
	}

	if res.StatusCode >= 400 || !decoded.OK || decoded.Value == nil {
		msg := res.Status
		if decoded.Error != nil {
			msg = fmt.Sprintf("%s: %s", decoded.Error.Name, decoded.Error.Message)
		}
		c.log.Error().Int("status_code", res.StatusCode).Str("error", msg).Msg("nft.storage returned error response")
		return nil, fmt.Errorf("store failed: %s", msg)
	}
	if decoded.Value.IPNFT == "" {
		return nil, errors.New("store response missing ipnft")
	}
	root, err := cid.Decode(decoded.Value.IPNFT)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidCID, decoded.Value.IPNFT, err)
	}
	decoded.Value.CID = root

	c.log.Info().
		Str("ipnft", decoded.Value.IPNFT).
		Str("url", decoded.Value.URL).
		Msg("token metadata stored")

	return decoded.Value, nil
}

// encodeToken writes the multipart form nft.storage expects: a "meta" JSON
// field with file slots set to null, plus one part per file keyed by its
// slot name.
func encodeToken(token Token) (*bytes.Buffer, string, error) {
	meta := map[string]any{
		"name":        token.Name,
		"description": token.Description,
		"image":       nil,
	}
	if len(token.Properties) > 0 {
		meta["properties"] = token.Properties
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	if err := mw.WriteField("meta", string(metaJSON)); err != nil {
		return nil, "", err
	}

	contentType := token.Image.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(token.Image.Data)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, token.Image.Name))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(token.Image.Data); err != nil {
		return nil, "", err
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

func (c *Client) buildURL(p string) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	return u.String()
}
