package frenchbee

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

const homepage = `<html><body>
<form class="frenchbee-amadeus-search-flights-form">
<select id="edit-visible-newsearch-flights-from" name="visible_newsearch_flights_from">
	<option value="">- Select -</option>
	<option value="EWR">Newark</option>
	<option value="ORY"> Paris Orly </option>
	<option value="PTP">Pointe-à-Pitre</option>
</select>
</form>
</body></html>`

func TestAirports(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/en", r.URL.Path)
		w.Write([]byte(homepage))
	}), ClientOptions{})

	airports, err := client.Airports(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, []Location{
		{Code: "EWR", Name: "Newark"},
		{Code: "ORY", Name: "Paris Orly"},
		{Code: "PTP", Name: "Pointe-à-Pitre"},
	}, airports)
}

func TestAirportsMissingSelect(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>maintenance</p></body></html>`))
	}), ClientOptions{})

	_, err := client.Airports(context.Background())
	require.ErrorIs(t, err, ErrPageShapeChanged)
}
