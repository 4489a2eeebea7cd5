package http

import "github.com/magink/magink/x/magink/contracts"

// startReq is the JSON schema for POST routeStartChallenge and the optional
// body of a start dry run.
type startReq struct {
	Era uint8 `json:"era"`
}

type badgesResp struct {
	Account    string `json:"account"`
	Badges     uint8  `json:"badges"`
	CanMint    bool   `json:"can_mint"`
	Threshold  uint8  `json:"threshold"`
	NextAction string `json:"next_action"`
}

type remainingResp struct {
	Account   string `json:"account"`
	Remaining uint8  `json:"remaining"`
}

type profileResp struct {
	Account string `json:"account"`
	contracts.ProfileLookup
}

type accountResp struct {
	Account   string                   `json:"account"`
	Badges    *uint8                   `json:"badges,omitempty"`
	Remaining *uint8                   `json:"remaining,omitempty"`
	Profile   *contracts.ProfileLookup `json:"profile,omitempty"`
	Errors    map[string]string        `json:"errors,omitempty"`
}

type supplyResp struct {
	TotalSupply string `json:"total_supply"`
}

type dryRunResp struct {
	Op          string `json:"op"`
	Ok          bool   `json:"ok"`
	GasRequired uint64 `json:"gas_required"`
	Error       string `json:"error,omitempty"`
}
