package handler

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"net/http"
	"strconv"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/middleware"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/render"
	"github.com/fakhrymubarak/weather-widget/internal/service"
)

//go:embed templates/widget.html
var templates embed.FS

var page = template.Must(template.New("widget.html").Funcs(template.FuncMap{
	"glyph":        render.Glyph,
	"safeCSS":      func(s string) template.CSS { return template.CSS(s) },
	"forecastHead": func() string { return render.ForecastHead },
}).ParseFS(templates, "templates/widget.html"))

// StatePayload is the data of every JSON API answer.
type StatePayload struct {
	State  service.State `json:"state"`
	Screen render.Screen `json:"screen"`
}

type WidgetHandler struct {
	Widget service.WidgetInterface
	Units  string
}

func NewWidgetHandler(widget ...service.WidgetInterface) *WidgetHandler {
	var w service.WidgetInterface
	if len(widget) > 0 && widget[0] != nil {
		w = widget[0]
	} else {
		w = service.NewWidget(service.Dependencies{})
	}
	return &WidgetHandler{
		Widget: w,
		Units:  config.GetUnits(),
	}
}

// Routes registers the page, its form actions and the JSON API. Routes that start a
// search go through the rate limiter.
func (h *WidgetHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.HandlePage)
	mux.Handle("/search", middleware.RateLimitMiddleware(http.HandlerFunc(h.HandleSearchForm)))
	mux.Handle("/locate", middleware.RateLimitMiddleware(http.HandlerFunc(h.HandleLocateForm)))
	mux.HandleFunc("/forecast", h.HandleForecastForm)
	mux.HandleFunc("/api/state", h.HandleState)
	mux.Handle("/api/search", middleware.RateLimitMiddleware(http.HandlerFunc(h.HandleSearch)))
	mux.Handle("/api/locate", middleware.RateLimitMiddleware(http.HandlerFunc(h.HandleLocate)))
	mux.HandleFunc("/api/forecast/select", h.HandleSelectForecast)
	return mux
}

func (h *WidgetHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		config.GetLogger().Errorw("could not encode json", "error", err)
	}
}

func (h *WidgetHandler) writeError(w http.ResponseWriter, statusCode int, errMsg string) {
	h.writeJSONResponse(w, statusCode, model.ErrorResponse("Error", errMsg))
}

// writeState answers with the widget state. A widget error is reported in the envelope
// but is still a successful request.
func (h *WidgetHandler) writeState(w http.ResponseWriter, state service.State) {
	payload := StatePayload{State: state, Screen: render.Build(state, h.Units)}
	resp := model.SuccessResponse(payload)
	if state.Err != "" {
		resp = model.ErrorResponse("Error", state.Err)
		resp.Data = payload
	}
	h.writeJSONResponse(w, http.StatusOK, resp)
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", methods[0])
	return false
}

// searchContext keeps a search running after the client goes away; the result still
// lands in the shared widget state.
func searchContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// parseQuery reads either q or lat and lon.
func parseQuery(r *http.Request) (model.Query, error) {
	values := r.URL.Query()
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err == nil {
			values = r.Form
		}
	}
	lat, lon := values.Get("lat"), values.Get("lon")
	if lat == "" && lon == "" {
		return model.CityQuery(values.Get("q")), nil
	}
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil || math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return model.Query{}, errors.New("invalid 'lat' query parameter")
	}
	longitude, err := strconv.ParseFloat(lon, 64)
	if err != nil || math.IsNaN(longitude) || longitude < -180 || longitude > 180 {
		return model.Query{}, errors.New("invalid 'lon' query parameter")
	}
	return model.CoordinatesQuery(latitude, longitude), nil
}

func (h *WidgetHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	screen := render.Build(h.Widget.State(), h.Units)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, screen); err != nil {
		config.GetLogger().Errorw("could not render page", "error", err)
	}
}

func (h *WidgetHandler) HandleSearchForm(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	query, err := parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if query.IsCity() {
		h.Widget.SetInput(query.City)
	}
	h.Widget.Search(searchContext(r), query)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WidgetHandler) HandleLocateForm(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.Widget.SearchByLocation(searchContext(r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WidgetHandler) HandleForecastForm(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "Invalid 'index' parameter", http.StatusBadRequest)
		return
	}
	if _, err := h.Widget.SelectForecastIndex(index); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WidgetHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.writeState(w, h.Widget.State())
}

func (h *WidgetHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	query, err := parseQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state := h.Widget.Search(searchContext(r), query)
	if state.Err == service.MsgEmptyCity {
		h.writeError(w, http.StatusBadRequest, state.Err)
		return
	}
	h.writeState(w, state)
}

func (h *WidgetHandler) HandleLocate(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.writeState(w, h.Widget.SearchByLocation(searchContext(r)))
}

func (h *WidgetHandler) HandleSelectForecast(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid 'index' parameter")
		return
	}
	state, err := h.Widget.SelectForecastIndex(index)
	if errors.Is(err, service.ErrForecastIndex) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeState(w, state)
}
