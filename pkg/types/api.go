package types

// NameCount pairs an event name with the number of handlers that would
// currently fire for it.
type NameCount struct {
	// Event name.
	// example: cart.updated
	Name string `json:"name" example:"cart.updated"`
	// Live handler registrations for the name.
	// example: 3
	Registrations int `json:"registrations" example:"3"`
}

// NotifierSnapshot is returned by GET /status.
type NotifierSnapshot struct {
	// Tracking entries held by the notifier, including entries whose bag
	// has not been pruned yet.
	// example: 4
	TrackedBags int `json:"tracked_bags" example:"4"`
	// Tracked bags whose owner is still alive and that have not been closed.
	// example: 3
	LiveBags int `json:"live_bags" example:"3"`
	// Per-name registration counts, sorted by name.
	Names []NameCount `json:"names"`
	// Total number of publish calls served.
	// example: 120
	PublishesTotal uint64 `json:"publishes_total" example:"120"`
	// Total number of stale tracking entries dropped.
	// example: 2
	PrunedTotal uint64 `json:"pruned_total" example:"2"`
	// Uptime of the notifier in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// RegistrationsResponse is returned by GET /registrations/{name}.
type RegistrationsResponse struct {
	// Event name that was queried.
	// example: cart.updated
	Name string `json:"name" example:"cart.updated"`
	// Number of handlers that would fire if the name were published now.
	// example: 2
	Count int `json:"count" example:"2"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: event name is required
	Error string `json:"error" example:"event name is required"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
