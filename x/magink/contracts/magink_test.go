package contracts

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testContract = "0x000000000000000000000000000000000000dEaD"

func newTestBinding(t *testing.T) *MaginkBinding {
	t.Helper()
	b, err := NewMaginkBinding(testContract)
	require.NoError(t, err)
	return b
}

func TestNewMaginkBinding_RejectsBadAddress(t *testing.T) {
	_, err := NewMaginkBinding("  ")
	require.Error(t, err)

	_, err = NewMaginkBinding("not-an-address")
	require.Error(t, err)
}

func TestMaginkBinding_ExposesContractSurface(t *testing.T) {
	b := newTestBinding(t)
	require.Equal(t, common.HexToAddress(testContract), b.Address())

	for _, m := range []string{
		MethodStart, MethodClaim, MethodMintWizard,
		MethodGetRemaining, MethodGetRemainingFor, MethodGetBadges, MethodGetBadgesFor,
		MethodGetProfile, MethodGetAccountProfile, MethodGetTotalWizardSupply,
	} {
		_, ok := b.ABI().Methods[m]
		require.True(t, ok, "missing method %s", m)
	}
	for _, e := range []string{EventEraStarted, EventBadgeClaimed, EventNFTClaimed} {
		_, ok := b.ABI().Events[e]
		require.True(t, ok, "missing event %s", e)
	}
}

func TestPackMintWizard_RoundTripsMetadata(t *testing.T) {
	b := newTestBinding(t)
	digest := []byte("9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08")

	data, err := b.Pack(MethodMintWizard, digest)
	require.NoError(t, err)

	method := b.ABI().Methods[MethodMintWizard]
	require.Equal(t, method.ID, data[:4])

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Equal(t, digest, args[0].([]byte))
}

func TestPack_WrongArgs(t *testing.T) {
	b := newTestBinding(t)
	_, err := b.Pack(MethodStart, "ten")
	require.Error(t, err)
}

func TestUnpackUint8(t *testing.T) {
	b := newTestBinding(t)
	ret, err := b.ABI().Methods[MethodGetBadgesFor].Outputs.Pack(uint8(9))
	require.NoError(t, err)

	v, err := b.UnpackUint8(MethodGetBadgesFor, ret)
	require.NoError(t, err)
	require.Equal(t, uint8(9), v)

	_, err = b.UnpackUint8(MethodGetBadgesFor, nil)
	require.Error(t, err)
}

func TestUnpackProfile(t *testing.T) {
	b := newTestBinding(t)
	ret, err := b.ABI().Methods[MethodGetAccountProfile].Outputs.Pack(true, profileArg{
		ClaimEra:      10,
		StartBlock:    1234,
		BadgesClaimed: 3,
	})
	require.NoError(t, err)

	got, err := b.UnpackProfile(MethodGetAccountProfile, ret)
	require.NoError(t, err)
	require.True(t, got.Found)
	require.Equal(t, Profile{ClaimEra: 10, StartBlock: 1234, BadgesClaimed: 3}, got.Profile)
}

func TestUnpackSupply(t *testing.T) {
	b := newTestBinding(t)
	ret, err := b.ABI().Methods[MethodGetTotalWizardSupply].Outputs.Pack(big.NewInt(42))
	require.NoError(t, err)

	v, err := b.UnpackSupply(ret)
	require.NoError(t, err)
	require.Equal(t, int64(42), v.Int64())
}

func TestDecodeRevert(t *testing.T) {
	b := newTestBinding(t)
	id := b.ABI().Errors["TooEarlyToClaim"].ID

	require.ErrorIs(t, b.DecodeRevert(id[:4]), ErrTooEarlyToClaim)
	require.NoError(t, b.DecodeRevert([]byte{0x01, 0x02, 0x03, 0x04}))
	require.NoError(t, b.DecodeRevert(nil))
}

func TestErrorName(t *testing.T) {
	name, ok := ErrorName(fmt.Errorf("claim: %w", ErrTooEarlyToClaim))
	require.True(t, ok)
	require.Equal(t, "TooEarlyToClaim", name)

	_, ok = ErrorName(errors.New("execution reverted"))
	require.False(t, ok)
	_, ok = ErrorName(nil)
	require.False(t, ok)
}
