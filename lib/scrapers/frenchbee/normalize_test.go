package frenchbee

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const validFare = `{
	"arrival_airport": "ORY",
	"currency": "USD",
	"day": "2026-10-14",
	"departure_airport": "EWR",
	"is_offer": false,
	"price": 349,
	"tax": 113.4,
	"total": 462.4
}`

func leaf(year, month, day, fare string) calendarTree {
	return calendarTree{
		year: {month: {day: json.RawMessage(fare)}},
	}
}

func TestNormalizeCalendar(t *testing.T) {
	normalized, err := normalizeCalendar(leaf("2026", "10", "14", validFare))
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, normalized, 1)

	date := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	flight, ok := normalized[date]
	require.True(t, ok, "flight must be keyed at the date it was nested under")
	require.Equal(t, date, flight.Day)
	require.Equal(t, "EWR", flight.DepartureAirport)
	require.Equal(t, "ORY", flight.ArrivalAirport)
	require.Equal(t, "USD", flight.Currency)
	require.Equal(t, 349.0, flight.Price)
	require.Equal(t, 113.4, flight.Tax)
	require.Equal(t, 462.4, flight.Total)
	require.False(t, flight.IsOffer)
}

func TestNormalizeCalendarLeafCount(t *testing.T) {
	tree := calendarTree{
		"2026": {
			"10": {
				"14": json.RawMessage(validFare),
				"21": json.RawMessage(validFare),
			},
			"11": {
				"2": json.RawMessage(validFare),
			},
		},
	}
	normalized, err := normalizeCalendar(tree)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, normalized, 3)
}

func TestNormalizeCalendarInvalidDate(t *testing.T) {
	testCases := []struct {
		name             string
		year, month, day string
	}{
		{"month 13", "2022", "13", "01"},
		{"february 30", "2023", "2", "30"},
		{"non-integer year", "twenty", "1", "1"},
		{"non-integer day", "2023", "1", "1.5"},
	}
	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			_, err := normalizeCalendar(leaf(c.year, c.month, c.day, validFare))
			require.Error(t, err)
		})
	}
}

func TestNormalizeCalendarMissingField(t *testing.T) {
	fare := `{
		"arrival_airport": "ORY",
		"currency": "USD",
		"departure_airport": "EWR",
		"tax": 113.4,
		"total": 462.4
	}`
	_, err := normalizeCalendar(leaf("2026", "10", "14", fare))
	require.Error(t, err)
	require.Contains(t, err.Error(), "price")
}

func TestNormalizeCalendarMalformedFare(t *testing.T) {
	_, err := normalizeCalendar(leaf("2026", "10", "14", `"not an object"`))
	require.Error(t, err)
}
