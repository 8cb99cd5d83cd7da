package dispatch

import (
	"encoding/json"
	"fmt"

	"pointbreak/models"
)

// Upstream response shape, reduced to the fields the matcher needs.

type upstreamResponse struct {
	Slices []upstreamSlice `json:"slices"`
}

type upstreamSlice struct {
	Hash              string                       `json:"hash"`
	DepartureDateTime string                       `json:"departureDateTime"`
	ArrivalDateTime   string                       `json:"arrivalDateTime"`
	Segments          []upstreamSegment            `json:"segments"`
	ProductPricing    []upstreamProductPricing     `json:"productPricing"`
	ProductGroups     map[string][]upstreamProduct `json:"productGroups"`
}

type upstreamSegment struct {
	Flight upstreamFlight `json:"flight"`
}

type upstreamFlight struct {
	CarrierCode  string `json:"carrierCode"`
	FlightNumber string `json:"flightNumber"`
}

type upstreamProductPricing struct {
	ProductTypes []string         `json:"productTypes"`
	RegularPrice *upstreamProduct `json:"regularPrice"`
}

type upstreamProduct struct {
	SlicePricing upstreamSlicePricing `json:"slicePricing"`
}

type upstreamSlicePricing struct {
	PerPassengerAwardPoints  float64        `json:"perPassengerAwardPoints"`
	AllPassengerDisplayTotal upstreamAmount `json:"allPassengerDisplayTotal"`
}

type upstreamAmount struct {
	Amount float64 `json:"amount"`
}

// ParseOffers normalizes an upstream pricing payload into RawOffers.
// Slices without a hash are kept (the matcher drops them) so callers can
// still observe how much of the response was unmatched.
func ParseOffers(body []byte, searchType string) ([]models.RawOffer, error) {
	var resp upstreamResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unable to parse upstream response body: %w", err)
	}

	offers := make([]models.RawOffer, 0, len(resp.Slices))
	for _, slice := range resp.Slices {
		offer := models.RawOffer{
			Hash:         slice.Hash,
			FlightNumber: flightNumber(slice),
			Departure:    slice.DepartureDateTime,
			Arrival:      slice.ArrivalDateTime,
		}

		if searchType == models.SearchTypeAward {
			offer.Award = awardPricing(slice)
		} else {
			offer.Cash = cashPricing(slice)
		}

		offers = append(offers, offer)
	}
	return offers, nil
}

func flightNumber(slice upstreamSlice) string {
	if len(slice.Segments) == 0 {
		return ""
	}
	flight := slice.Segments[0].Flight
	carrier := flight.CarrierCode
	if carrier == "" {
		carrier = "AA"
	}
	return carrier + flight.FlightNumber
}

// awardPricing extracts the award block for each supported cabin bucket the
// slice prices. A bucket missing points is omitted rather than zero-filled.
func awardPricing(slice upstreamSlice) map[string]models.AwardPricing {
	pricing := make(map[string]models.AwardPricing)
	for _, entry := range slice.ProductPricing {
		if entry.RegularPrice == nil {
			continue
		}
		slicePricing := entry.RegularPrice.SlicePricing
		if slicePricing.PerPassengerAwardPoints <= 0 {
			continue
		}
		for _, productType := range entry.ProductTypes {
			if !models.SupportedCabin(productType) {
				continue
			}
			pricing[productType] = models.AwardPricing{
				PointsPerPassenger: slicePricing.PerPassengerAwardPoints,
				TaxesFeesUSD:       slicePricing.AllPassengerDisplayTotal.Amount,
			}
		}
	}
	if len(pricing) == 0 {
		return nil
	}
	return pricing
}

func cashPricing(slice upstreamSlice) map[string]models.CashPricing {
	pricing := make(map[string]models.CashPricing)
	for cabin, products := range slice.ProductGroups {
		if !models.SupportedCabin(cabin) || len(products) == 0 {
			continue
		}
		pricing[cabin] = models.CashPricing{
			TotalUSD: products[0].SlicePricing.AllPassengerDisplayTotal.Amount,
		}
	}
	if len(pricing) == 0 {
		return nil
	}
	return pricing
}
