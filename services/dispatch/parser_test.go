package dispatch

import (
	"encoding/json"
	"testing"

	"pointbreak/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOffers_AwardPricing(t *testing.T) {
	t.Parallel()

	body := `{
		"slices": [
			{
				"hash": "h1",
				"departureDateTime": "2026-09-01T08:00:00-04:00",
				"arrivalDateTime": "2026-09-01T16:30:00-04:00",
				"segments": [{"flight": {"carrierCode": "AA", "flightNumber": "123"}}],
				"productPricing": [
					{
						"productTypes": ["MAIN"],
						"regularPrice": {
							"slicePricing": {
								"perPassengerAwardPoints": 12500,
								"allPassengerDisplayTotal": {"amount": 5.60}
							}
						}
					},
					{
						"productTypes": ["FIRST"],
						"regularPrice": {
							"slicePricing": {
								"perPassengerAwardPoints": 50000,
								"allPassengerDisplayTotal": {"amount": 5.60}
							}
						}
					}
				]
			}
		]
	}`

	offers, err := ParseOffers([]byte(body), models.SearchTypeAward)
	require.NoError(t, err)
	require.Len(t, offers, 1)

	offer := offers[0]
	assert.Equal(t, "h1", offer.Hash)
	assert.Equal(t, "AA123", offer.FlightNumber)
	assert.Equal(t, "2026-09-01T08:00:00-04:00", offer.Departure)

	require.Contains(t, offer.Award, models.CabinMain)
	assert.Equal(t, 12500.0, offer.Award[models.CabinMain].PointsPerPassenger)
	assert.Equal(t, 5.60, offer.Award[models.CabinMain].TaxesFeesUSD)
	assert.NotContains(t, offer.Award, "FIRST", "unsupported cabins are dropped")
	assert.Nil(t, offer.Cash)
}

func TestParseOffers_CashPricing(t *testing.T) {
	t.Parallel()

	body := `{
		"slices": [
			{
				"hash": "h1",
				"segments": [{"flight": {"carrierCode": "AA", "flightNumber": "123"}}],
				"productGroups": {
					"MAIN": [
						{"slicePricing": {"allPassengerDisplayTotal": {"amount": 289.00}}},
						{"slicePricing": {"allPassengerDisplayTotal": {"amount": 450.00}}}
					],
					"PREMIUM_ECONOMY": [
						{"slicePricing": {"allPassengerDisplayTotal": {"amount": 612.00}}}
					],
					"BUSINESS": [
						{"slicePricing": {"allPassengerDisplayTotal": {"amount": 1400.00}}}
					]
				}
			}
		]
	}`

	offers, err := ParseOffers([]byte(body), models.SearchTypeRevenue)
	require.NoError(t, err)
	require.Len(t, offers, 1)

	offer := offers[0]
	assert.Equal(t, 289.00, offer.Cash[models.CabinMain].TotalUSD, "first product in a group is the lowest fare")
	assert.Equal(t, 612.00, offer.Cash[models.CabinPremiumEconomy].TotalUSD)
	assert.NotContains(t, offer.Cash, "BUSINESS")
	assert.Nil(t, offer.Award)
}

func TestParseOffers_KeepsHashlessSlices(t *testing.T) {
	t.Parallel()

	body := `{
		"slices": [
			{"segments": [{"flight": {"flightNumber": "99"}}]},
			{"hash": "h2", "segments": []}
		]
	}`

	offers, err := ParseOffers([]byte(body), models.SearchTypeAward)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Empty(t, offers[0].Hash)
	assert.Equal(t, "AA99", offers[0].FlightNumber, "missing carrier code defaults to AA")
	assert.Empty(t, offers[1].FlightNumber)
}

func TestParseOffers_ZeroPointBucketsOmitted(t *testing.T) {
	t.Parallel()

	body := `{
		"slices": [
			{
				"hash": "h1",
				"productPricing": [
					{
						"productTypes": ["MAIN"],
						"regularPrice": {
							"slicePricing": {
								"perPassengerAwardPoints": 0,
								"allPassengerDisplayTotal": {"amount": 5.60}
							}
						}
					}
				]
			}
		]
	}`

	offers, err := ParseOffers([]byte(body), models.SearchTypeAward)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Nil(t, offers[0].Award)
}

func TestParseOffers_MalformedBody(t *testing.T) {
	t.Parallel()

	_, err := ParseOffers([]byte(`<html>blocked</html>`), models.SearchTypeAward)
	assert.Error(t, err)
}

func TestBuildSearchPayload(t *testing.T) {
	t.Parallel()

	req := models.SearchRequest{
		Origin:      "jfk",
		Destination: "lax",
		Date:        "2026-09-01",
		Passengers:  2,
		CabinClass:  models.CabinMain,
	}

	for _, searchType := range []string{models.SearchTypeAward, models.SearchTypeRevenue} {
		t.Run(searchType, func(t *testing.T) {
			t.Parallel()

			raw, err := json.Marshal(BuildSearchPayload(req, searchType))
			require.NoError(t, err)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &body))

			metadata := body["metadata"].(map[string]interface{})
			assert.Equal(t, "OneWay", metadata["tripType"])

			header := body["requestHeader"].(map[string]interface{})
			assert.Equal(t, "AAcom", header["clientId"])

			assert.Equal(t, "cfr", body["version"])

			tripOptions := body["tripOptions"].(map[string]interface{})
			assert.Equal(t, searchType, tripOptions["searchType"])
			assert.Equal(t, "Lowest", tripOptions["fareType"])

			slices := body["slices"].([]interface{})
			require.Len(t, slices, 1)
			slice := slices[0].(map[string]interface{})
			assert.Equal(t, "JFK", slice["origin"])
			assert.Equal(t, "LAX", slice["destination"])
			assert.Equal(t, "2026-09-01", slice["departureDate"])

			passengers := body["passengers"].([]interface{})
			require.Len(t, passengers, 1)
			adult := passengers[0].(map[string]interface{})
			assert.Equal(t, "adult", adult["type"])
			assert.Equal(t, float64(2), adult["count"])
		})
	}
}
