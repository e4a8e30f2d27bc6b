package frenchbee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"frenchbee-client/lib/httpcache"

	"github.com/spf13/cast"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// the vendor signals an attached date->fare calendar with one of these
// values as a command's first argument.
const (
	eventDepartureCalendarReady = "departureCalendarPriceIsReady"
	eventReturnCalendarReady    = "returnCalendarPriceIsReady"
)

// _triggering_element_name values. the backend decides which calendar
// (or page) to return based on which widget supposedly fired the
// request.
const (
	triggerDepartureCalendar = "visible_newsearch_flights_to"
	triggerReturnCalendar    = "visible_newsearch_flights_departure_date"
	triggerItinerarySubmit   = "newsearch_flights_submit"
)

const searchEndpoint = "/en?ajax_form=1"
const searchFormId = "frenchbee-amadeus-search-flights-form"

var ErrCalendarNotReady = fmt.Errorf("calendar prices are not ready")

func formatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// searchPayload builds the vendor form verbatim. nothing is validated
// here, the vendor is the source of truth for what it accepts.
func (c *Client) searchPayload(source, destination string, passengers PassengerInfo, departure, ret time.Time, trigger string) map[string]string {
	return map[string]string{
		"visible_newsearch_flights_travel_type": "R",
		"visible_newsearch_flights_from":        source,
		"visible_newsearch_flights_to":          destination,
		"newsearch_flights_travel_type":         "R",
		"newsearch_flights_from":                source,
		"newsearch_flights_to":                  destination,
		"newsearch_flights_departure_date":      formatDate(departure),
		"newsearch_flights_return_date":         formatDate(ret),
		"adults-count":                          cast.ToString(passengers.Adults),
		"children-count":                        cast.ToString(passengers.Children),
		"infants-count":                         cast.ToString(passengers.Infants),
		"um_youth-count":                        "0",
		"form_id":                               searchFormId,
		"_triggering_element_name":              trigger,
	}
}

func decodeCommands(body []byte) ([]Command, error) {
	var cmds []Command
	err := json.Unmarshal(body, &cmds)
	if err != nil {
		return nil, err
	}
	return cmds, nil
}

func (c *Client) search(ctx context.Context, payload map[string]string) ([]Command, error) {
	ctx, span := tracer.Start(ctx, "client:search")
	defer span.End()

	form := url.Values{}
	for k, v := range payload {
		form.Set(k, v)
	}
	encoded := form.Encode()
	cacheUrl := c.BaseUrl.String() + searchEndpoint

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, http.MethodPost, cacheUrl, []byte(encoded))
		if err == nil {
			span.SetStatus(codes.Ok, "CACHE HIT")
			return decodeCommands(cached)
		}
		if err != httpcache.ErrNotFound {
			span.RecordError(err)
			span.AddEvent("CACHE ERROR", trace.WithAttributes(attribute.KeyValue{
				Key:   "log.severity",
				Value: attribute.StringValue("WARN"),
			}))
		}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetBody(encoded).
		Post(searchEndpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post search form")
		return nil, err
	}

	cmds, err := decodeCommands(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode command stream")
		return nil, fmt.Errorf("decode vendor response: %w", err)
	}

	if c.cache != nil {
		err = c.cache.Set(ctx, http.MethodPost, cacheUrl, []byte(encoded), res.Body())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to cache response")
		}
	}

	return cmds, nil
}

type calendarTree map[string]map[string]map[string]json.RawMessage

// calendarFor scans the command stream for the calendar-ready event and
// extracts the leg's availability. a missing event is fatal for the
// call; a present event with a short or empty argument list means the
// vendor has no availability, which is not an error.
func calendarFor(cmds []Command, event, leg string) (map[time.Time]Flight, error) {
	var info *Command
	for i := range cmds {
		if cmds[i].Event() == event {
			info = &cmds[i]
			break
		}
	}
	if info == nil {
		return nil, ErrCalendarNotReady
	}
	if len(info.Args) < 2 {
		return nil, nil
	}

	arg := bytes.TrimSpace(info.Args[1])
	if len(arg) == 0 || bytes.Equal(arg, []byte("null")) || bytes.Equal(arg, []byte(`""`)) {
		return nil, nil
	}

	var payload map[string]calendarTree
	if err := json.Unmarshal(arg, &payload); err != nil {
		return nil, fmt.Errorf("decode calendar payload: %w", err)
	}
	tree := payload[leg]
	if len(tree) == 0 {
		return nil, nil
	}
	return normalizeCalendar(tree)
}

// DepartureAvailability returns every day the vendor priced for the
// outbound leg, keyed by calendar date at UTC midnight.
func (c *Client) DepartureAvailability(ctx context.Context, source, destination string, passengers PassengerInfo) (map[time.Time]Flight, error) {
	ctx, span := tracer.Start(ctx, "client:DepartureAvailability")
	defer span.End()

	payload := c.searchPayload(source, destination, passengers, time.Time{}, time.Time{}, triggerDepartureCalendar)
	cmds, err := c.search(ctx, payload)
	if err != nil {
		return nil, err
	}

	availability, err := calendarFor(cmds, eventDepartureCalendarReady, "departure")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract departure calendar")
		return nil, err
	}
	return availability, nil
}

// ReturnAvailability returns every day the vendor priced for the
// inbound leg given a chosen departure date.
func (c *Client) ReturnAvailability(ctx context.Context, source, destination string, passengers PassengerInfo, departure time.Time) (map[time.Time]Flight, error) {
	ctx, span := tracer.Start(ctx, "client:ReturnAvailability")
	defer span.End()

	payload := c.searchPayload(source, destination, passengers, departure, time.Time{}, triggerReturnCalendar)
	cmds, err := c.search(ctx, payload)
	if err != nil {
		return nil, err
	}

	availability, err := calendarFor(cmds, eventReturnCalendarReady, "return")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract return calendar")
		return nil, err
	}
	return availability, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DepartureInfoFor prices the outbound leg on a specific date. a date
// the vendor did not price yields a nil Flight, not an error.
func (c *Client) DepartureInfoFor(ctx context.Context, source, destination string, passengers PassengerInfo, date time.Time) (*Flight, error) {
	availability, err := c.DepartureAvailability(ctx, source, destination, passengers)
	if err != nil {
		return nil, err
	}
	flight, ok := availability[day(date)]
	if !ok {
		return nil, nil
	}
	return &flight, nil
}

// ReturnInfoFor prices the inbound leg on a specific date.
func (c *Client) ReturnInfoFor(ctx context.Context, source, destination string, passengers PassengerInfo, departure, date time.Time) (*Flight, error) {
	availability, err := c.ReturnAvailability(ctx, source, destination, passengers, departure)
	if err != nil {
		return nil, err
	}
	flight, ok := availability[day(date)]
	if !ok {
		return nil, nil
	}
	return &flight, nil
}

// PriceTrip fills in both legs of the trip in place. legs the vendor
// has no fare for stay nil.
func (c *Client) PriceTrip(ctx context.Context, trip *Trip) error {
	ctx, span := tracer.Start(ctx, "client:PriceTrip")
	defer span.End()

	source := trip.Departure.Location.Code
	destination := trip.Return.Location.Code

	departure, err := c.DepartureInfoFor(ctx, source, destination, trip.Passengers, trip.Departure.Date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to price departure leg")
		return err
	}
	trip.DepartureFlight = departure

	ret, err := c.ReturnInfoFor(ctx, source, destination, trip.Passengers, trip.Departure.Date, trip.Return.Date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to price return leg")
		return err
	}
	trip.ReturnFlight = ret

	return nil
}
