package flights

import (
	"math"
	"time"

	"pointbreak/models"
)

// MatchOffers joins award and cash offers that share an identity hash and
// derives the cents-per-point value for the requested cabin bucket. Pure
// and order-independent on input; output follows the award list's order.
//
// Pairings are silently skipped when either side lacks a hash, either side
// lacks a complete pricing block for the cabin, points come out to zero, or
// the CPP would be non-finite. Upstream pricing blocks are unreliable by
// nature; absence is data, not an error.
func MatchOffers(awardOffers, cashOffers []models.RawOffer, passengers int, cabin string) []models.MatchedFlight {
	cashByHash := make(map[string]models.RawOffer, len(cashOffers))
	for _, offer := range cashOffers {
		if offer.Hash == "" {
			continue
		}
		if _, seen := cashByHash[offer.Hash]; !seen {
			cashByHash[offer.Hash] = offer
		}
	}

	matched := make([]models.MatchedFlight, 0)
	for _, award := range awardOffers {
		if award.Hash == "" {
			continue
		}
		cash, ok := cashByHash[award.Hash]
		if !ok {
			continue
		}
		awardBlock, ok := award.Award[cabin]
		if !ok {
			continue
		}
		cashBlock, ok := cash.Cash[cabin]
		if !ok {
			continue
		}

		points := int(awardBlock.PointsPerPassenger * float64(passengers))
		if points <= 0 {
			continue
		}
		cpp, ok := centsPerPoint(cashBlock.TotalUSD, awardBlock.TaxesFeesUSD, points)
		if !ok {
			continue
		}
		departure, err := clockTime(cash.Departure)
		if err != nil {
			continue
		}
		arrival, err := clockTime(cash.Arrival)
		if err != nil {
			continue
		}

		matched = append(matched, models.MatchedFlight{
			FlightNumber:   award.FlightNumber,
			DepartureTime:  departure,
			ArrivalTime:    arrival,
			PointsRequired: points,
			CashPriceUSD:   round2(cashBlock.TotalUSD),
			TaxesFeesUSD:   round2(awardBlock.TaxesFeesUSD),
			CPP:            cpp,
		})
	}
	return matched
}

// centsPerPoint computes (cash − taxes) / points × 100 rounded to two
// decimal places, rejecting non-finite results.
func centsPerPoint(cashUSD, taxesUSD float64, points int) (float64, bool) {
	value := (cashUSD - taxesUSD) / float64(points) * 100
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return round2(value), true
}

// clockTime extracts HH:MM from an ISO-like datetime with optional offset.
func clockTime(value string) (string, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		parsed, err = time.Parse("2006-01-02T15:04:05", value)
		if err != nil {
			return "", err
		}
	}
	return parsed.Format("15:04"), nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
