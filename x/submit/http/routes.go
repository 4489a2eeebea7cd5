package http

// Route patterns for the submission HTTP surface.
const (
	routeSubmit = "/v1/submissions"
	routeStatus = "/v1/submissions/status"
)

// Route names for mux URL building.
const (
	routeNameSubmit = "submissions_create"
	routeNameStatus = "submissions_status"
)
