package frenchbee

import (
	"encoding/json"
	"time"
)

type PassengerInfo struct {
	Adults   int
	Children int
	Infants  int
}

// Location is an airport plus whatever display metadata the vendor
// volunteers about it. two locations are the same airport when their
// codes match.
type Location struct {
	Code      string
	Name      string
	Terminal  string
	Transport string
}

func (l Location) Equal(other Location) bool {
	return l.Code == other.Code
}

type DateAndLocation struct {
	Date     time.Time
	Location Location
}

// Trip accumulates everything discovered about one round trip. it
// starts out as just endpoints, dates and passenger counts, and is
// enriched in place as legs get priced and itinerary detail is
// scraped.
type Trip struct {
	Departure  DateAndLocation
	Return     DateAndLocation
	Passengers PassengerInfo

	DepartureFlight *Flight
	ReturnFlight    *Flight
	Segments        []FlightSegment
}

// Total reports the combined price of both legs, false until both
// have been priced.
func (t *Trip) Total() (float64, bool) {
	if t.DepartureFlight == nil || t.ReturnFlight == nil {
		return 0, false
	}
	return t.DepartureFlight.Price + t.ReturnFlight.Price, true
}

// Flight is a priced result for a single leg on a single day. only the
// calendar normalizer produces these.
type Flight struct {
	ArrivalAirport   string
	Currency         string
	Day              time.Time
	DepartureAirport string
	IsOffer          bool
	Price            float64
	Tax              float64
	Total            float64
}

// FlightSegment is flight-time detail recovered from the itinerary
// page.
type FlightSegment struct {
	Number    string
	From      Location
	To        Location
	Departure time.Time
	Arrival   time.Time
}

// Command is one unit of the vendor's ajax protocol: a UI update
// instruction with a heterogeneous argument list. the first argument,
// when it is a string, discriminates how the rest should be read.
// absent fields are tolerated, the protocol is the vendor's to change.
type Command struct {
	Command  string            `json:"command"`
	Selector string            `json:"selector"`
	Method   string            `json:"method"`
	Args     []json.RawMessage `json:"args"`
	Data     string            `json:"data"`
}

// Event returns the discriminating first argument, or "" when there is
// none or it is not a string.
func (c Command) Event() string {
	if len(c.Args) == 0 {
		return ""
	}
	var event string
	if err := json.Unmarshal(c.Args[0], &event); err != nil {
		return ""
	}
	return event
}
