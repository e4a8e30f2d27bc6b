package frenchbee

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// fareRecord is the vendor's leaf fare object. pointer fields are the
// required ones, so a record the vendor truncated fails loudly instead
// of turning into zero prices.
type fareRecord struct {
	ArrivalAirport   *string  `json:"arrival_airport"`
	Currency         *string  `json:"currency"`
	Day              string   `json:"day"`
	DepartureAirport *string  `json:"departure_airport"`
	IsOffer          bool     `json:"is_offer"`
	Price            *float64 `json:"price"`
	Tax              *float64 `json:"tax"`
	Total            *float64 `json:"total"`
}

func (r fareRecord) missingField() string {
	switch {
	case r.ArrivalAirport == nil:
		return "arrival_airport"
	case r.Currency == nil:
		return "currency"
	case r.DepartureAirport == nil:
		return "departure_airport"
	case r.Price == nil:
		return "price"
	case r.Tax == nil:
		return "tax"
	case r.Total == nil:
		return "total"
	}
	return ""
}

// normalizeCalendar flattens the vendor's year -> month -> day -> fare
// nesting into a flat date-keyed mapping. every leaf becomes exactly
// one Flight keyed at the date it was nested under; malformed dates or
// truncated fares are vendor contract changes and propagate as errors.
func normalizeCalendar(tree calendarTree) (map[time.Time]Flight, error) {
	normalized := map[time.Time]Flight{}
	for yearKey, months := range tree {
		year, err := strconv.Atoi(yearKey)
		if err != nil {
			return nil, fmt.Errorf("calendar year %q: %w", yearKey, err)
		}
		for monthKey, days := range months {
			month, err := strconv.Atoi(monthKey)
			if err != nil {
				return nil, fmt.Errorf("calendar month %q: %w", monthKey, err)
			}
			for dayKey, raw := range days {
				dayNo, err := strconv.Atoi(dayKey)
				if err != nil {
					return nil, fmt.Errorf("calendar day %q: %w", dayKey, err)
				}

				date := time.Date(year, time.Month(month), dayNo, 0, 0, 0, 0, time.UTC)
				// time.Date normalizes month 13 or feb 30 instead of
				// failing, so check the triple survived
				if date.Year() != year || date.Month() != time.Month(month) || date.Day() != dayNo {
					return nil, fmt.Errorf("invalid calendar date %s-%s-%s", yearKey, monthKey, dayKey)
				}

				var record fareRecord
				if err := json.Unmarshal(raw, &record); err != nil {
					return nil, fmt.Errorf("decode fare for %s: %w", date.Format("2006-01-02"), err)
				}
				if missing := record.missingField(); missing != "" {
					return nil, fmt.Errorf("fare for %s is missing %q", date.Format("2006-01-02"), missing)
				}

				normalized[date] = Flight{
					ArrivalAirport:   *record.ArrivalAirport,
					Currency:         *record.Currency,
					Day:              date,
					DepartureAirport: *record.DepartureAirport,
					IsOffer:          record.IsOffer,
					Price:            *record.Price,
					Tax:              *record.Tax,
					Total:            *record.Total,
				}
			}
		}
	}
	return normalized, nil
}
