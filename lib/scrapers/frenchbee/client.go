// Package frenchbee prices French Bee round trips by driving the
// airline's web booking flow the way the site's own search widget
// does: form posts against an undocumented ajax endpoint, plus a
// best-effort scrape of the deeper itinerary page.
package frenchbee

import (
	"context"
	"net/http/cookiejar"
	"net/url"
	"time"

	"frenchbee-client/lib/datadome"
	"frenchbee-client/lib/httpcache"
	"frenchbee-client/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("scrapers/frenchbee")

const defaultBaseUrl = "https://us.frenchbee.com"
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Client is one vendor session. the backend is stateful per session,
// so the same Client (and its cookie jar) must be reused across the
// departure, return and itinerary calls of a trip.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	cache  *httpcache.Cache
	tokens datadome.Provider
}

type ClientOptions struct {
	// defaults to the US market site
	BaseUrl string
	// optional read-through response cache
	Cache *httpcache.Cache
	// anti-bot token provider, only needed for itinerary detail
	Tokens datadome.Provider
	// defaults to 30s
	Timeout time.Duration
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = defaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	// the booking form posts across frenchbee subdomains, so redirects
	// are allowed within the brand but nowhere else
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(
		baseUrl.Hostname(), "frenchbee.com", "us.frenchbee.com", "www.frenchbee.com",
	))

	client.SetHeader("user-agent", userAgent)
	client.SetHeader("content-type", "application/x-www-form-urlencoded; charset=UTF-8")
	client.SetHeader("Cookie", "base_host=frenchbee.com; market_lang=en; site_origin="+baseUrl.Hostname())
	client.SetTimeout(opts.Timeout)

	// 2 requests max per second
	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "scrapers/frenchbee/http")

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
		cache:   opts.Cache,
		tokens:  opts.Tokens,
	}
	return c, nil
}
