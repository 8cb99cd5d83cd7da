package models

// Cabin cross-reference buckets for which both award and cash responses
// expose an identifiable pricing block.
const (
	CabinMain           = "MAIN"
	CabinPremiumEconomy = "PREMIUM_ECONOMY"
)

// SupportedCabin reports whether the given bucket can be cross-referenced.
func SupportedCabin(cabin string) bool {
	switch cabin {
	case CabinMain, CabinPremiumEconomy:
		return true
	}
	return false
}

// Search types understood by the upstream itinerary endpoint.
const (
	SearchTypeAward   = "Award"
	SearchTypeRevenue = "Revenue"
)

// SearchRequest describes one one-way itinerary search. Immutable once built.
type SearchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"` // YYYY-MM-DD
	Passengers  int    `json:"passengers"`
	CabinClass  string `json:"cabin_class"`
}

// AwardPricing is the award side of a cabin's pricing block.
type AwardPricing struct {
	PointsPerPassenger float64 `json:"pointsPerPassenger"`
	TaxesFeesUSD       float64 `json:"taxesFeesUsd"`
}

// CashPricing is the revenue side of a cabin's pricing block.
type CashPricing struct {
	TotalUSD float64 `json:"totalUsd"`
}

// RawOffer is one priced flight option from a single search type, normalized
// from the upstream payload. Only one of Award/Cash is populated, depending
// on which search produced it. Offers without a hash cannot be matched.
type RawOffer struct {
	Hash         string                  `json:"hash,omitempty"`
	FlightNumber string                  `json:"flightNumber"`
	Departure    string                  `json:"departureDateTime"`
	Arrival      string                  `json:"arrivalDateTime"`
	Award        map[string]AwardPricing `json:"award,omitempty"`
	Cash         map[string]CashPricing  `json:"cash,omitempty"`
}

// MatchedFlight joins one award offer and one cash offer that share an
// identity hash, with the derived cents-per-point value.
type MatchedFlight struct {
	FlightNumber   string  `json:"flight_number"`
	DepartureTime  string  `json:"departure_time"`
	ArrivalTime    string  `json:"arrival_time"`
	PointsRequired int     `json:"points_required"`
	CashPriceUSD   float64 `json:"cash_price_usd"`
	TaxesFeesUSD   float64 `json:"taxes_fees_usd"`
	CPP            float64 `json:"cpp"`
}

// SearchMetadata echoes the validated search parameters in the response.
type SearchMetadata struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Passengers  int    `json:"passengers"`
	CabinClass  string `json:"cabin_class"`
}

// FlightsResult is the comparison response payload.
type FlightsResult struct {
	SearchMetadata SearchMetadata  `json:"search_metadata"`
	Flights        []MatchedFlight `json:"flights"`
	TotalResults   int             `json:"total_results"`
}
