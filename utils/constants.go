// File: utils/constants.go
package utils

import "time"

// Upstream booking surface. The warm-up page establishes the session the
// itinerary endpoint expects; both paths present it as origin/referer.
const (
	UpstreamOrigin     = "https://www.aa.com"
	UpstreamBookingURL = "https://www.aa.com/booking/choose-flights/1"
	UpstreamSearchURL  = "https://www.aa.com/booking/api/search/itinerary"
)

// FlightsCachePrefix is the prefix used for Redis comparison cache keys.
const FlightsCachePrefix = "flights:"

// HealthCheckInterval is how often external dependencies are probed.
const HealthCheckInterval = 60 * time.Second
