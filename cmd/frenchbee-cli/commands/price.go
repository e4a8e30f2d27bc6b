package commands

import (
	"fmt"
	"os"
	"time"

	"frenchbee-client/lib/scrapers/frenchbee"
	"frenchbee-client/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var priceAdults *int
var priceChildren *int
var priceInfants *int
var priceDetails *bool

func init() {
	priceAdults = priceCmd.Flags().Int("adults", 1, "Number of adult passengers.")
	priceChildren = priceCmd.Flags().Int("children", 0, "Number of child passengers.")
	priceInfants = priceCmd.Flags().Int("infants", 0, "Number of infant passengers.")
	priceDetails = priceCmd.Flags().Bool("details", false, "Also fetch flight numbers and times from the itinerary page (needs a challenge token).")
	rootCmd.AddCommand(priceCmd)
}

const dateLayout = "2006-01-02"

func appendFlightRow(t table.Writer, label string, flight *frenchbee.Flight) {
	if flight == nil {
		t.AppendRow(table.Row{label, "", "no fare", "", ""})
		return
	}
	offer := ""
	if flight.IsOffer {
		offer = "offer"
	}
	t.AppendRow(table.Row{
		label,
		fmt.Sprintf("%s -> %s", flight.DepartureAirport, flight.ArrivalAirport),
		fmt.Sprintf("%.2f %s", flight.Total, flight.Currency),
		fmt.Sprintf("%.2f tax", flight.Tax),
		offer,
	})
}

var priceCmd = &cobra.Command{
	Use:   "price <origin> <departure-date> <destination> <return-date>",
	Short: "Prices a round trip, dates are YYYY-MM-DD.",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		departureDate, err := time.Parse(dateLayout, args[1])
		if err != nil {
			serviceutil.Fatal("invalid departure date", err)
		}
		returnDate, err := time.Parse(dateLayout, args[3])
		if err != nil {
			serviceutil.Fatal("invalid return date", err)
		}

		cfg := readConfig()
		client := createClient(cmd.Context(), cfg)

		trip := &frenchbee.Trip{
			Departure: frenchbee.DateAndLocation{
				Date:     departureDate,
				Location: frenchbee.Location{Code: args[0]},
			},
			Return: frenchbee.DateAndLocation{
				Date:     returnDate,
				Location: frenchbee.Location{Code: args[2]},
			},
			Passengers: frenchbee.PassengerInfo{
				Adults:   *priceAdults,
				Children: *priceChildren,
				Infants:  *priceInfants,
			},
		}

		t1 := time.Now()
		err = client.PriceTrip(cmd.Context(), trip)
		if err != nil {
			serviceutil.Fatal("failed to price trip", err)
		}

		if *priceDetails {
			err = client.FetchItinerary(cmd.Context(), trip)
			if err != nil {
				serviceutil.Fatal("failed to fetch itinerary", err)
			}
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Leg", "Route", "Total", "Tax", ""})
		appendFlightRow(t, "departure", trip.DepartureFlight)
		appendFlightRow(t, "return", trip.ReturnFlight)
		if total, ok := trip.Total(); ok {
			t.AppendFooter(table.Row{"", "", fmt.Sprintf("%.2f", total), "", ""})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if len(trip.Segments) > 0 {
			s := table.NewWriter()
			s.SetOutputMirror(os.Stdout)
			s.AppendHeader(table.Row{"Flight", "From", "Departs", "To", "Arrives"})
			for _, seg := range trip.Segments {
				s.AppendRow(table.Row{
					seg.Number,
					seg.From.Code,
					seg.Departure.Format("2006-01-02 15:04"),
					seg.To.Code,
					seg.Arrival.Format("2006-01-02 15:04"),
				})
			}
			s.SetStyle(table.StyleRounded)
			s.Render()
		}

		fmt.Printf("search took %.1fs\n", time.Since(t1).Seconds())
	},
}
