// Package datadome obtains the anti-bot token the vendor's deeper pages
// sit behind. callers treat the token as an opaque cookie value.
package datadome

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	hyper "github.com/Hyper-Solutions/hyper-sdk-go/v2"
	ddsolve "github.com/Hyper-Solutions/hyper-sdk-go/v2/datadome"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/datadome")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
const acceptLanguage = "en-US,en;q=0.9"

const interstitialEndpoint = "https://geo.captcha-delivery.com/interstitial/"

type Provider interface {
	Token(ctx context.Context, host string) (string, error)
}

// Static hands out a pre-solved cookie value, e.g. one exported from a
// browser session.
type Static string

func (s Static) Token(ctx context.Context, host string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("no static datadome token configured")
	}
	return string(s), nil
}

// HyperSolver resolves interstitial challenges through the Hyper
// Solutions API.
type HyperSolver struct {
	api  *hyper.Session
	http *resty.Client
}

func NewHyperSolver(apiKey string) (*HyperSolver, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept-language", acceptLanguage)
	client.SetTimeout(time.Second * 30)

	return &HyperSolver{
		api:  hyper.NewSession(apiKey),
		http: client,
	}, nil
}

func (s *HyperSolver) Token(ctx context.Context, host string) (string, error) {
	ctx, span := tracer.Start(ctx, "solver:Token")
	defer span.End()

	target := "https://" + host + "/"

	res, err := s.http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch protected host")
		return "", err
	}

	cookie := cookieValue(res.Cookies(), "datadome")
	body := res.Body()

	if !bytes.Contains(body, []byte("captcha-delivery.com")) {
		// not challenged, the plain cookie is enough
		if cookie == "" {
			err := fmt.Errorf("datadome cookie not present on %s", host)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		return cookie, nil
	}

	slog.Debug("datadome challenge detected", "host", host)

	deviceLink, err := ddsolve.ParseInterstitialDeviceCheckLink(
		bytes.NewReader(body),
		cookie,
		target,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse device check link")
		return "", err
	}

	challenge, err := s.http.R().
		SetContext(ctx).
		SetHeader("referer", target).
		Get(deviceLink)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch interstitial page")
		return "", err
	}

	ip, err := s.publicIP(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve public ip")
		return "", err
	}

	payload, _, err := s.api.GenerateDataDomeInterstitial(ctx, &hyper.DataDomeInterstitialInput{
		UserAgent:      userAgent,
		DeviceLink:     deviceLink,
		Html:           string(challenge.Body()),
		IP:             ip,
		AcceptLanguage: acceptLanguage,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "solver api error")
		return "", err
	}

	var solved struct {
		Cookie string `json:"cookie"`
	}
	res, err = s.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/x-www-form-urlencoded; charset=UTF-8").
		SetHeader("origin", "https://geo.captcha-delivery.com").
		SetHeader("referer", deviceLink).
		SetBody(payload).
		SetResult(&solved).
		Post(interstitialEndpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit interstitial solution")
		return "", err
	}

	token := extractCookieValue(solved.Cookie, "datadome")
	if token == "" {
		err := fmt.Errorf("interstitial response carried no datadome cookie")
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return token, nil
}

func (s *HyperSolver) publicIP(ctx context.Context) (string, error) {
	res, err := s.http.R().
		SetContext(ctx).
		Get("https://api.ipify.org")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.String()), nil
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// extractCookieValue reads `name=value` out of a Set-Cookie style string
// like "datadome=abc123; Max-Age=31536000; Domain=.frenchbee.com".
func extractCookieValue(header, name string) string {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, name+"=") {
			return part[len(name)+1:]
		}
	}
	return ""
}
