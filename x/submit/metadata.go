package submit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/magink/magink/x/nftstorage"
)

// NFTDescription is the description stored with every wizard NFT.
const NFTDescription = "Wizard NFT reward for completing Magink challenges"

// ContentDigest is the hex SHA-256 of a content identifier. It is the
// argument passed to mintWizard.
func ContentDigest(cid string) string {
	sum := sha256.Sum256([]byte(cid))
	return hex.EncodeToString(sum[:])
}

// createNFTMetadata uploads the wizard image and metadata named after account.
func (h *Handler) createNFTMetadata(ctx context.Context, account common.Address) (*nftstorage.Result, error) {
	image, err := h.images.Image(ctx)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	result, err := h.uploader.Store(ctx, nftstorage.Token{
		Image:       image,
		Name:        account.Hex(),
		Description: NFTDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("store metadata: %w", err)
	}
	return result, nil
}
