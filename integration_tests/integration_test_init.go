package integrationtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/geolocation"
	"github.com/fakhrymubarak/weather-widget/internal/handler"
	"github.com/fakhrymubarak/weather-widget/internal/service"
)

const testAPIKey = "test_api_key"

func createMockRedisServer() *miniredis.Miniredis {
	mr := miniredis.NewMiniRedis()
	if err := mr.StartAddr(config.GetTestRedisMockPort()); err != nil {
		// Port taken; any free port will do since redis.addr is set from mr.Addr().
		if err := mr.Start(); err != nil {
			panic(err)
		}
	}
	return mr
}

// setupIntegrationTestServer wires a widget built entirely from config, exactly as the
// serve command does, behind a test HTTP server.
func setupIntegrationTestServer(locator geolocation.Locator) (*httptest.Server, *service.Widget) {
	widget := service.NewWidget(service.Dependencies{Locator: locator})
	h := handler.NewWidgetHandler(widget)
	return httptest.NewServer(h.Routes()), widget
}

// mockOWMApi answers /weather and /forecast for London, Paris and the coordinates
// 6.9271,79.8612. Everything else is "city not found".
func mockOWMApi() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("appid") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
			return
		}

		city := q.Get("q")
		if city == "" && q.Get("lat") == "6.9271" && q.Get("lon") == "79.8612" {
			city = "Colombo"
		}

		var code string
		switch strings.ToLower(city) {
		case "london":
			city, code = "London", "04d"
		case "paris":
			city, code = "Paris", "10d"
		case "colombo":
			code = "01d"
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/forecast") {
			_, _ = w.Write([]byte(forecastBody(code)))
			return
		}
		_, _ = fmt.Fprintf(w, `{"name":%q,"main":{"temp":15.8,"humidity":72},"wind":{"speed":4.1},"weather":[{"id":800,"main":"Clouds","description":"clouds","icon":%q}]}`, city, code)
	}))
}

// forecastBody is a five day, three hourly forecast starting 2024-05-01 00:00 UTC.
func forecastBody(code string) string {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	entries := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		ts := start.Add(time.Duration(i) * 3 * time.Hour)
		entries = append(entries, fmt.Sprintf(
			`{"dt":%d,"dt_txt":%q,"main":{"temp":%d.5,"humidity":60},"wind":{"speed":2},"weather":[{"icon":%q}]}`,
			ts.Unix(), ts.Format("2006-01-02 15:04:05"), 10+i%8, code,
		))
	}
	return `{"list":[` + strings.Join(entries, ",") + `]}`
}
