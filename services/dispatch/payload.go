package dispatch

import (
	"strings"

	"pointbreak/models"
)

// The upstream itinerary endpoint takes the same request body for both
// search types; only tripOptions.searchType distinguishes Award from
// Revenue pricing.

type searchPayload struct {
	Metadata      payloadMetadata    `json:"metadata"`
	Passengers    []payloadPassenger `json:"passengers"`
	RequestHeader payloadHeader      `json:"requestHeader"`
	Slices        []payloadSlice     `json:"slices"`
	TripOptions   payloadTripOptions `json:"tripOptions"`
	LoyaltyInfo   interface{}        `json:"loyaltyInfo"`
	Version       string             `json:"version"`
	QueryParams   payloadQueryParams `json:"queryParams"`
}

type payloadMetadata struct {
	SelectedProducts []interface{}     `json:"selectedProducts"`
	TripType         string            `json:"tripType"`
	UDO              map[string]string `json:"udo"`
}

type payloadPassenger struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type payloadHeader struct {
	ClientID string `json:"clientId"`
}

type payloadSlice struct {
	AllCarriers               bool        `json:"allCarriers"`
	Cabin                     string      `json:"cabin"`
	DepartureDate             string      `json:"departureDate"`
	Destination               string      `json:"destination"`
	DestinationNearbyAirports bool        `json:"destinationNearbyAirports"`
	MaxStops                  interface{} `json:"maxStops"`
	Origin                    string      `json:"origin"`
	OriginNearbyAirports      bool        `json:"originNearbyAirports"`
}

type payloadTripOptions struct {
	CorporateBooking bool        `json:"corporateBooking"`
	FareType         string      `json:"fareType"`
	Locale           string      `json:"locale"`
	PointOfSale      interface{} `json:"pointOfSale"`
	SearchType       string      `json:"searchType"`
}

type payloadQueryParams struct {
	SliceIndex  int    `json:"sliceIndex"`
	SessionID   string `json:"sessionId"`
	SolutionSet string `json:"solutionSet"`
	SolutionID  string `json:"solutionId"`
	Sort        string `json:"sort"`
}

// BuildSearchPayload assembles the upstream request body for a one-way
// lowest-fare search of the given type (models.SearchTypeAward or
// models.SearchTypeRevenue).
func BuildSearchPayload(req models.SearchRequest, searchType string) searchPayload {
	return searchPayload{
		Metadata: payloadMetadata{
			SelectedProducts: []interface{}{},
			TripType:         "OneWay",
			UDO:              map[string]string{"search_method": "Lowest"},
		},
		Passengers:    []payloadPassenger{{Type: "adult", Count: req.Passengers}},
		RequestHeader: payloadHeader{ClientID: "AAcom"},
		Slices: []payloadSlice{{
			AllCarriers:   true,
			DepartureDate: req.Date,
			Destination:   strings.ToUpper(req.Destination),
			Origin:        strings.ToUpper(req.Origin),
		}},
		TripOptions: payloadTripOptions{
			FareType:   "Lowest",
			Locale:     "en_US",
			SearchType: searchType,
		},
		Version: "cfr",
		QueryParams: payloadQueryParams{
			Sort: "CARRIER",
		},
	}
}
