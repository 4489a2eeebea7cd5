package http

// Route patterns for the contract HTTP surface.
const (
	routeAccount          = "/v1/account"
	routeAccountBadges    = "/v1/accounts/{address}/badges"
	routeAccountRemaining = "/v1/accounts/{address}/remaining"
	routeAccountProfile   = "/v1/accounts/{address}/profile"
	routeWizardSupply     = "/v1/wizard/supply"
	routeStartChallenge   = "/v1/challenges/start"
	routeDryRun           = "/v1/dry-run/{op}"
)

// Route names for mux URL building.
const (
	routeNameAccount          = "magink_account"
	routeNameAccountBadges    = "magink_account_badges"
	routeNameAccountRemaining = "magink_account_remaining"
	routeNameAccountProfile   = "magink_account_profile"
	routeNameWizardSupply     = "magink_wizard_supply"
	routeNameStartChallenge   = "magink_challenge_start"
	routeNameDryRun           = "magink_dry_run"
)
