package contracts

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Magink ABI JSON embedded at compile time
//
//go:embed abi/magink.json
var maginkABIJSON string

var _ Binding = (*MaginkBinding)(nil)

// MaginkBinding encodes calls to and decodes results from the magink
// challenge contract.
type MaginkBinding struct {
	address common.Address
	abi     abi.ABI
}

// NewMaginkBinding parses the embedded ABI and validates the contract address.
func NewMaginkBinding(contractAddr string) (*MaginkBinding, error) {
	if strings.TrimSpace(contractAddr) == "" {
		return nil, fmt.Errorf("contract address cannot be empty")
	}
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddr)
	}

	parsedABI, err := abi.JSON(strings.NewReader(maginkABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Magink ABI: %w", err)
	}

	return &MaginkBinding{
		address: common.HexToAddress(contractAddr),
		abi:     parsedABI,
	}, nil
}

// Address returns the address of the magink contract.
func (b *MaginkBinding) Address() common.Address {
	return b.address
}

// ABI returns the parsed ABI of the magink contract.
func (b *MaginkBinding) ABI() abi.ABI {
	return b.abi
}

// Pack encodes calldata for the named method.
func (b *MaginkBinding) Pack(method string, args ...any) ([]byte, error) {
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s calldata: %w", method, err)
	}
	return data, nil
}

// UnpackUint8 decodes the single uint8 output shared by the remaining/badge reads.
func (b *MaginkBinding) UnpackUint8(method string, data []byte) (uint8, error) {
	out, err := b.unpack(method, data, 1)
	if err != nil {
		return 0, err
	}
	v, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%s: unexpected output type %T", method, out[0])
	}
	return v, nil
}

// UnpackProfile decodes getProfile / getAccountProfile outputs.
func (b *MaginkBinding) UnpackProfile(method string, data []byte) (ProfileLookup, error) {
	out, err := b.unpack(method, data, 2)
	if err != nil {
		return ProfileLookup{}, err
	}
	found, ok := out[0].(bool)
	if !ok {
		return ProfileLookup{}, fmt.Errorf("%s: unexpected found type %T", method, out[0])
	}
	arg, ok := abi.ConvertType(out[1], new(profileArg)).(*profileArg)
	if !ok {
		return ProfileLookup{}, fmt.Errorf("%s: unexpected profile type %T", method, out[1])
	}
	return ProfileLookup{
		Found: found,
		Profile: Profile{
			ClaimEra:      arg.ClaimEra,
			StartBlock:    arg.StartBlock,
			BadgesClaimed: arg.BadgesClaimed,
		},
	}, nil
}

// UnpackSupply decodes getTotalWizardSupply.
func (b *MaginkBinding) UnpackSupply(data []byte) (*big.Int, error) {
	out, err := b.unpack(MethodGetTotalWizardSupply, data, 1)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", MethodGetTotalWizardSupply, out[0])
	}
	return v, nil
}

func (b *MaginkBinding) unpack(method string, data []byte, want int) ([]any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: empty return data", method)
	}
	out, err := b.abi.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s output: %w", method, err)
	}
	if len(out) != want {
		return nil, fmt.Errorf("%s: expected %d outputs, got %d", method, want, len(out))
	}
	return out, nil
}
