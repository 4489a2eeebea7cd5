package contracts

import "github.com/ethereum/go-ethereum/common"

// Contract method names as they appear in the ABI.
const (
	MethodStart                = "start"
	MethodClaim                = "claim"
	MethodMintWizard           = "mintWizard"
	MethodGetRemaining         = "getRemaining"
	MethodGetRemainingFor      = "getRemainingFor"
	MethodGetBadges            = "getBadges"
	MethodGetBadgesFor         = "getBadgesFor"
	MethodGetProfile           = "getProfile"
	MethodGetAccountProfile    = "getAccountProfile"
	MethodGetTotalWizardSupply = "getTotalWizardSupply"
)

// Event names as they appear in the ABI.
const (
	EventEraStarted   = "EraStarted"
	EventBadgeClaimed = "BadgeClaimed"
	EventNFTClaimed   = "NFTClaimed"
)

// Profile is the per-account challenge state kept by the contract.
type Profile struct {
	// ClaimEra is the era length in blocks between claims.
	ClaimEra uint8 `json:"claim_era"`
	// StartBlock is the block of the last start or claim.
	StartBlock uint32 `json:"start_block"`
	// BadgesClaimed is the number of badges claimed so far.
	BadgesClaimed uint8 `json:"badges_claimed"`
}

// ProfileLookup is the decoded result of a profile read. Found is false for
// accounts that never started a challenge.
type ProfileLookup struct {
	Found   bool    `json:"found"`
	Profile Profile `json:"profile"`
}

// profileArg mirrors the ABI tuple so the decoded anonymous struct converts
// to it directly.
type profileArg struct {
	ClaimEra      uint8
	StartBlock    uint32
	BadgesClaimed uint8
}

// EraStarted is emitted by start.
type EraStarted struct {
	Account    common.Address
	Era        uint8
	StartBlock uint32
}

// BadgeClaimed is emitted by a successful claim.
type BadgeClaimed struct {
	Account    common.Address
	ClaimBlock uint32
}

// NFTClaimed is emitted when the wizard NFT is minted.
type NFTClaimed struct {
	Account   common.Address
	CID       []byte
	MintBlock uint32
}
