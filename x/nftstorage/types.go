package nftstorage

import "github.com/ipfs/go-cid"

// File is a binary asset attached to token metadata.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Token is the metadata stored for an NFT. Image is uploaded alongside the
// JSON document and referenced from it by its IPFS URL.
type Token struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       *File          `json:"-"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// Result is the outcome of a store request.
type Result struct {
	// IPNFT is the content identifier of the stored metadata root.
	IPNFT string `json:"ipnft"`
	// URL is the ipfs:// URL of metadata.json.
	URL string `json:"url"`
	// Data echoes the stored metadata with files replaced by URLs.
	Data map[string]any `json:"data,omitempty"`

	// CID is IPNFT parsed.
	CID cid.Cid `json:"-"`
}

type storeResponse struct {
	OK    bool      `json:"ok"`
	Value *Result   `json:"value,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}
