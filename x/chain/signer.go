package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var _ Signer = (*LocalECDSASigner)(nil)

// LocalECDSASigner signs with an in-memory private key.
type LocalECDSASigner struct {
	key    *ecdsa.PrivateKey
	addr   common.Address
	signer types.Signer
}

// NewLocalECDSASigner creates a signer bound to chainID.
func NewLocalECDSASigner(chainID *big.Int, key *ecdsa.PrivateKey) *LocalECDSASigner {
	return &LocalECDSASigner{
		key:    key,
		addr:   crypto.PubkeyToAddress(key.PublicKey),
		signer: types.LatestSignerForChainID(chainID),
	}
}

// NewLocalECDSASignerFromHex parses a hex private key with or without 0x.
func NewLocalECDSASignerFromHex(chainID *big.Int, pkHex string) (*LocalECDSASigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(pkHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewLocalECDSASigner(chainID, key), nil
}

func (s *LocalECDSASigner) Address() common.Address { return s.addr }

func (s *LocalECDSASigner) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, s.signer, s.key)
}
