// Package geolocation answers "where is the widget?" with a one-shot position lookup.
package geolocation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/go-resty/resty/v2"
)

var (
	// ErrPermissionDenied means a position exists but may not be used or could not be resolved.
	ErrPermissionDenied = errors.New("geolocation permission denied")
	// ErrUnsupported means no geolocation source is configured at all.
	ErrUnsupported = errors.New("geolocation not supported")
)

// Locator resolves the current position.
type Locator interface {
	GetPosition(ctx context.Context) (model.Coordinates, error)
}

// New returns the locator selected by geolocation.driver ("ip", "static" or "none").
func New() (Locator, error) {
	switch driver := config.GetGeolocationDriver(); driver {
	case "ip":
		return NewIPLocator(config.GetGeolocationApiUrl()), nil
	case "static":
		lat, lon := config.GetGeolocationCoordinates()
		return StaticLocator{Coordinates: model.Coordinates{Latitude: lat, Longitude: lon}}, nil
	case "", "none":
		return Unsupported{}, nil
	default:
		return nil, fmt.Errorf("unknown geolocation driver %q", driver)
	}
}

// ipLookupResponse follows the ip-api.com JSON shape.
type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPLocator estimates the position from the caller's public IP address.
type IPLocator struct {
	client *resty.Client
	url    string
}

func NewIPLocator(url string, httpClient ...*http.Client) *IPLocator {
	client := resty.New()
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = resty.NewWithClient(httpClient[0])
	}
	client.SetHeader("Accept", "application/json")
	return &IPLocator{client: client, url: url}
}

func (l *IPLocator) GetPosition(ctx context.Context) (model.Coordinates, error) {
	var out ipLookupResponse
	resp, err := l.client.R().
		SetContext(ctx).
		SetResult(&out).
		ForceContentType("application/json").
		Get(l.url)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("ip lookup: %w", err)
	}
	if resp.IsError() {
		return model.Coordinates{}, fmt.Errorf("ip lookup returned status %d", resp.StatusCode())
	}
	if out.Status != "success" {
		if out.Message == "" {
			out.Message = "no position"
		}
		return model.Coordinates{}, fmt.Errorf("%w: %s", ErrPermissionDenied, out.Message)
	}
	return model.Coordinates{Latitude: out.Lat, Longitude: out.Lon}, nil
}

// StaticLocator always reports the configured coordinates.
type StaticLocator struct {
	Coordinates model.Coordinates
}

func (l StaticLocator) GetPosition(context.Context) (model.Coordinates, error) {
	return l.Coordinates, nil
}

// Unsupported is used when geolocation is switched off.
type Unsupported struct{}

func (Unsupported) GetPosition(context.Context) (model.Coordinates, error) {
	return model.Coordinates{}, ErrUnsupported
}

// Func adapts a plain function to Locator.
type Func func(ctx context.Context) (model.Coordinates, error)

func (f Func) GetPosition(ctx context.Context) (model.Coordinates, error) {
	return f(ctx)
}
