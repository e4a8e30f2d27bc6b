package frenchbee

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"frenchbee-client/lib/htmlutil"
	"frenchbee-client/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"
	"go.opentelemetry.io/otel/codes"
)

// the vendor booking engine renders its state through one init call in
// an inline script on the itinerary page. these markers change whenever
// the vendor redeploys, which is why everything below is best-effort.
const initScriptPrefix = "pageEngine.init("
const initScriptTrailer = ");"

var ErrPageShapeChanged = fmt.Errorf("vendor page shape changed")

// the fragment markup is not reliably well-formed, so the form is
// pattern matched rather than parsed
var formActionRegex = regexp.MustCompile(`(?is)<form[^>]*\baction\s*=\s*"([^"]*)"`)
var inputTagRegex = regexp.MustCompile(`(?is)<input[^>]*>`)
var nameAttrRegex = regexp.MustCompile(`(?i)\bname\s*=\s*"([^"]*)"`)
var valueAttrRegex = regexp.MustCompile(`(?i)\bvalue\s*=\s*"([^"]*)"`)

// parseBookingForm extracts the action url and hidden fields from the
// form fragment embedded in an insert command.
func parseBookingForm(fragment string) (string, url.Values, error) {
	actionMatch := formActionRegex.FindStringSubmatch(fragment)
	if actionMatch == nil {
		return "", nil, fmt.Errorf("booking form has no action: %w", ErrPageShapeChanged)
	}
	action := html.UnescapeString(actionMatch[1])

	fields := url.Values{}
	for _, tag := range inputTagRegex.FindAllString(fragment, -1) {
		nameMatch := nameAttrRegex.FindStringSubmatch(tag)
		if nameMatch == nil || nameMatch[1] == "" {
			continue
		}
		value := ""
		if valueMatch := valueAttrRegex.FindStringSubmatch(tag); valueMatch != nil {
			value = html.UnescapeString(valueMatch[1])
		}
		fields.Set(html.UnescapeString(nameMatch[1]), value)
	}
	return action, fields, nil
}

type itineraryStop struct {
	Airport  string `json:"airport"`
	Name     string `json:"name"`
	Terminal string `json:"terminal"`
	Time     string `json:"time"`
}

type itineraryFlight struct {
	Number    string        `json:"number"`
	Departure itineraryStop `json:"departure"`
	Arrival   itineraryStop `json:"arrival"`
}

type itineraryConfig struct {
	Flights []itineraryFlight `json:"flights"`
}

const stopTimeLayout = "2006-01-02 15:04"

func segmentsFromConfig(config itineraryConfig) ([]FlightSegment, error) {
	var segments []FlightSegment
	for _, flight := range config.Flights {
		departure, err := time.Parse(stopTimeLayout, flight.Departure.Time)
		if err != nil {
			return nil, fmt.Errorf("flight %s departure time: %w", flight.Number, ErrPageShapeChanged)
		}
		arrival, err := time.Parse(stopTimeLayout, flight.Arrival.Time)
		if err != nil {
			return nil, fmt.Errorf("flight %s arrival time: %w", flight.Number, ErrPageShapeChanged)
		}
		segments = append(segments, FlightSegment{
			Number: flight.Number,
			From: Location{
				Code:     flight.Departure.Airport,
				Name:     flight.Departure.Name,
				Terminal: flight.Departure.Terminal,
			},
			To: Location{
				Code:     flight.Arrival.Airport,
				Name:     flight.Arrival.Name,
				Terminal: flight.Arrival.Terminal,
			},
			Departure: departure,
			Arrival:   arrival,
		})
	}
	return segments, nil
}

// FetchItinerary follows the booking form the vendor returns for a
// fully specified search through to the itinerary page and scrapes
// flight-time detail out of its init script, enriching the trip in
// place. the whole path is fragile by nature: any missing marker fails
// with ErrPageShapeChanged and no retry.
func (c *Client) FetchItinerary(ctx context.Context, trip *Trip) error {
	ctx, span := tracer.Start(ctx, "client:FetchItinerary")
	defer span.End()

	if c.tokens == nil {
		err := fmt.Errorf("no challenge token provider configured")
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	payload := c.searchPayload(
		trip.Departure.Location.Code,
		trip.Return.Location.Code,
		trip.Passengers,
		trip.Departure.Date,
		trip.Return.Date,
		triggerItinerarySubmit,
	)
	cmds, err := c.search(ctx, payload)
	if err != nil {
		return err
	}

	fragment := ""
	for _, cmd := range cmds {
		if cmd.Command == "insert" && strings.Contains(cmd.Data, "<form") {
			fragment = cmd.Data
			break
		}
	}
	if fragment == "" {
		err := fmt.Errorf("no booking form in response: %w", ErrPageShapeChanged)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	action, fields, err := parseBookingForm(fragment)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse booking form")
		return err
	}
	actionUrl, err := c.BaseUrl.Parse(action)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve form action")
		return err
	}

	token, err := c.tokens.Token(ctx, actionUrl.Hostname())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to obtain challenge token")
		return fmt.Errorf("challenge token: %w", err)
	}

	res, err := c.Http.R().
		SetContext(ctx).
		// the itinerary subdomain wants the anti-bot cookie, not the
		// market cookies of the search site
		SetHeader("Cookie", "datadome="+token).
		SetFormDataFromValues(fields).
		Post(actionUrl.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit booking form")
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse itinerary page")
		return err
	}

	blob := ""
	for _, script := range doc.Find("script").Nodes {
		text := htmlutil.GetText(script)
		if !strings.Contains(text, initScriptPrefix) {
			continue
		}
		blob, err = textutil.ExtractObjectBetween(text, initScriptPrefix, initScriptTrailer)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to extract init config")
			return fmt.Errorf("extract init config: %v: %w", err, ErrPageShapeChanged)
		}
		break
	}
	if blob == "" {
		err := fmt.Errorf("init script not found: %w", ErrPageShapeChanged)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	// the blob is a JS object literal, not guaranteed to be strict json
	var config itineraryConfig
	if err := json5.Unmarshal([]byte(blob), &config); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode init config")
		return fmt.Errorf("decode init config: %w", err)
	}

	segments, err := segmentsFromConfig(config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read flight segments")
		return err
	}
	trip.Segments = segments
	enrichTripLocations(trip)

	return nil
}

// enrichTripLocations copies display metadata discovered on the
// itinerary page back onto the trip's endpoints.
func enrichTripLocations(trip *Trip) {
	for _, seg := range trip.Segments {
		if seg.From.Equal(trip.Departure.Location) {
			fillLocation(&trip.Departure.Location, seg.From)
		}
		if seg.To.Equal(trip.Return.Location) {
			fillLocation(&trip.Return.Location, seg.To)
		}
	}
}

func fillLocation(dst *Location, src Location) {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Terminal == "" {
		dst.Terminal = src.Terminal
	}
	if dst.Transport == "" {
		dst.Transport = src.Transport
	}
}
