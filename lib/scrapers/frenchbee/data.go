package frenchbee

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// Airports scrapes the airports the vendor sells out of the search
// form's origin select box.
func (c *Client) Airports(ctx context.Context) ([]Location, error) {
	ctx, span := tracer.Start(ctx, "client:Airports")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/en")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch homepage")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse homepage")
		return nil, err
	}

	var airports []Location
	doc.Find("select#edit-visible-newsearch-flights-from option").Each(func(_ int, opt *goquery.Selection) {
		code := strings.TrimSpace(opt.AttrOr("value", ""))
		if code == "" {
			return
		}
		airports = append(airports, Location{
			Code: code,
			Name: strings.TrimSpace(opt.Text()),
		})
	})
	if len(airports) == 0 {
		err := fmt.Errorf("airport select box not found: %w", ErrPageShapeChanged)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return airports, nil
}
