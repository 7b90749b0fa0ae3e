package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/model"
)

// Custom error types
var (
	ErrAPIKeyMissing     = errors.New("API key missing")
	ErrExternalAPI       = errors.New("external API error")
	ErrMalformedResponse = errors.New("malformed API response")
	ErrInvalidQuery      = errors.New("invalid query")
)

// APIError is a non-2xx answer from the weather API. Message is the API's own explanation,
// e.g. "city not found", and may be empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("weather API returned status %d", e.StatusCode)
	}
	return e.Message
}

// WeatherRepository fetches raw current conditions and forecasts.
type WeatherRepository interface {
	FetchCurrent(ctx context.Context, query model.Query) (*model.CurrentWeatherResponse, error)
	FetchForecast(ctx context.Context, query model.Query) (*model.ForecastResponse, error)
}

// weatherRepository implements WeatherRepository
type weatherRepository struct {
	httpClient *http.Client
}

// NewWeatherRepository creates a new weather repository instance
func NewWeatherRepository(httpClient ...*http.Client) WeatherRepository {
	client := &http.Client{Timeout: config.GetHTTPClientTimeout()}
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &weatherRepository{
		httpClient: client,
	}
}

// FetchCurrent retrieves current conditions from GET {base}/weather.
func (r *weatherRepository) FetchCurrent(ctx context.Context, query model.Query) (*model.CurrentWeatherResponse, error) {
	var data model.CurrentWeatherResponse
	if err := r.get(ctx, "/weather", query, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// FetchForecast retrieves the 5 day / 3 hour forecast from GET {base}/forecast.
func (r *weatherRepository) FetchForecast(ctx context.Context, query model.Query) (*model.ForecastResponse, error) {
	var data model.ForecastResponse
	if err := r.get(ctx, "/forecast", query, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (r *weatherRepository) get(ctx context.Context, endpoint string, query model.Query, out interface{}) error {
	u, err := buildURL(endpoint, query)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExternalAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body model.APIErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("%w: status %d: %v", ErrMalformedResponse, resp.StatusCode, err)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: body.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// buildURL assembles the request URL for endpoint, parameterized by query type.
func buildURL(endpoint string, query model.Query) (string, error) {
	apiKey := config.GetOpenWeatherMapAPIKey()
	if apiKey == "" {
		return "", ErrAPIKeyMissing
	}

	params := url.Values{}
	if query.IsCity() {
		if query.City == "" {
			return "", ErrInvalidQuery
		}
		params.Set("q", query.City)
	} else {
		params.Set("lat", strconv.FormatFloat(query.Coordinates.Latitude, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(query.Coordinates.Longitude, 'f', -1, 64))
	}
	params.Set("units", config.GetUnits())
	params.Set("appid", apiKey)

	return config.GetOpenWeatherApiUrl() + endpoint + "?" + params.Encode(), nil
}
