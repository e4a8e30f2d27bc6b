package frenchbee

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"frenchbee-client/lib/datadome"
	"frenchbee-client/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const bookingFormFragment = `<div class="search-results">
<form method="post" action="/book/itinerary?session=abc&amp;lang=en">
<input type="hidden" name="EMBEDDED_TRANSACTION" value="FlexPricerAvailability"/>
<input type="hidden" value="EWR &amp; ORY" name="B_LOCATION_1">
<input type="hidden" name="TRIP_TYPE" value="R">
<input type="submit" value="Search">
</form></div>`

const itineraryPage = `<html><head>
<script>
var ready = true;
pageEngine.init({
	flights: [
		{
			number: "BF 720",
			departure: {airport: "EWR", name: "Newark Liberty", terminal: "B", time: "2026-10-14 20:30"},
			arrival: {airport: "ORY", name: "Paris Orly", terminal: "4", time: "2026-10-15 09:45"},
		},
		{
			number: "BF 721",
			departure: {airport: "ORY", name: "Paris Orly", terminal: "4", time: "2026-10-21 11:20"},
			arrival: {airport: "EWR", name: "Newark Liberty", terminal: "B", time: "2026-10-21 14:05"},
		},
	],
});
</script>
</head><body></body></html>`

func insertCommandResponse(t *testing.T, fragment string) []byte {
	t.Helper()
	body, err := json.Marshal([]map[string]any{
		{"command": "settings", "settings": map[string]any{}},
		{"command": "insert", "method": "replaceWith", "selector": "#main", "data": fragment},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func testTrip() *Trip {
	return &Trip{
		Departure: DateAndLocation{
			Date:     time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
			Location: Location{Code: "EWR"},
		},
		Return: DateAndLocation{
			Date:     time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC),
			Location: Location{Code: "ORY"},
		},
		Passengers: PassengerInfo{Adults: 1},
	}
}

func TestParseBookingForm(t *testing.T) {
	action, fields, err := parseBookingForm(bookingFormFragment)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "/book/itinerary?session=abc&lang=en", action)
	require.Equal(t, "FlexPricerAvailability", fields.Get("EMBEDDED_TRANSACTION"))
	// attribute order must not matter and entities must be unescaped
	require.Equal(t, "EWR & ORY", fields.Get("B_LOCATION_1"))
	require.Equal(t, "R", fields.Get("TRIP_TYPE"))
	// the nameless submit input is not a field
	require.Len(t, fields, 3)
}

func TestParseBookingFormNoAction(t *testing.T) {
	_, _, err := parseBookingForm(`<div><input name="a" value="b"></div>`)
	require.ErrorIs(t, err, ErrPageShapeChanged)
}

func TestFetchItinerary(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/frenchbee/itinerary")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/en", func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		require.NoError(t, err)
		require.Equal(t, triggerItinerarySubmit, r.PostForm.Get("_triggering_element_name"))
		require.Equal(t, "2026-10-14", r.PostForm.Get("newsearch_flights_departure_date"))
		require.Equal(t, "2026-10-21", r.PostForm.Get("newsearch_flights_return_date"))
		w.Write(insertCommandResponse(t, bookingFormFragment))
	})
	mux.HandleFunc("/book/itinerary", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "datadome=tok", r.Header.Get("Cookie"))

		err := r.ParseForm()
		require.NoError(t, err)
		require.Equal(t, "abc", r.URL.Query().Get("session"))
		require.Equal(t, "FlexPricerAvailability", r.PostForm.Get("EMBEDDED_TRANSACTION"))
		require.Equal(t, "EWR & ORY", r.PostForm.Get("B_LOCATION_1"))

		w.Write([]byte(itineraryPage))
	})

	client := newTestClient(t, mux, ClientOptions{Tokens: datadome.Static("tok")})

	trip := testTrip()
	err := client.FetchItinerary(context.Background(), trip)
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, trip.Segments, 2)
	out := trip.Segments[0]
	require.Equal(t, "BF 720", out.Number)
	require.Equal(t, "EWR", out.From.Code)
	require.Equal(t, "ORY", out.To.Code)
	require.Equal(t, time.Date(2026, 10, 14, 20, 30, 0, 0, time.UTC), out.Departure)
	require.Equal(t, time.Date(2026, 10, 15, 9, 45, 0, 0, time.UTC), out.Arrival)

	// endpoints picked up display metadata from the page
	require.Equal(t, "Newark Liberty", trip.Departure.Location.Name)
	require.Equal(t, "B", trip.Departure.Location.Terminal)
	require.Equal(t, "Paris Orly", trip.Return.Location.Name)
}

func TestFetchItineraryNoForm(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"command":"settings","settings":{}}]`))
	}), ClientOptions{Tokens: datadome.Static("tok")})

	err := client.FetchItinerary(context.Background(), testTrip())
	require.ErrorIs(t, err, ErrPageShapeChanged)
}

func TestFetchItineraryNoInitScript(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/en", func(w http.ResponseWriter, r *http.Request) {
		w.Write(insertCommandResponse(t, bookingFormFragment))
	})
	mux.HandleFunc("/book/itinerary", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><script>var unrelated = 1;</script></head><body></body></html>`))
	})

	client := newTestClient(t, mux, ClientOptions{Tokens: datadome.Static("tok")})

	err := client.FetchItinerary(context.Background(), testTrip())
	require.ErrorIs(t, err, ErrPageShapeChanged)
}

func TestFetchItineraryNoTokenProvider(t *testing.T) {
	client, err := NewClient(context.Background(), ClientOptions{})
	if err != nil {
		t.Fatal(err)
	}
	err = client.FetchItinerary(context.Background(), testTrip())
	require.Error(t, err)
}
