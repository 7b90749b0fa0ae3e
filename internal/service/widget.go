package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/fakhrymubarak/weather-widget/internal/conditions"
	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/geolocation"
	"github.com/fakhrymubarak/weather-widget/internal/model"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrForecastIndex = errors.New("forecast index out of range")
	errNoCondition   = errors.New("response has no weather condition")
)

// WidgetInterface is what the render surfaces drive.
type WidgetInterface interface {
	State() State
	Search(ctx context.Context, query model.Query) State
	SearchByLocation(ctx context.Context) State
	InitialLoad(ctx context.Context) State
	SelectForecastDay(entry model.ForecastEntry) State
	SelectForecastIndex(index int) (State, error)
	SetInput(input string) State
	Subscribe(fn func(State)) (unsubscribe func())
}

// Dependencies are the capabilities a Widget talks to. Nil fields are filled from config.
type Dependencies struct {
	Repo        repository.WeatherRepository
	Store       storage.LastCityStore
	Locator     geolocation.Locator
	DefaultCity string
	Logger      *zap.SugaredLogger
}

// Widget owns the display state and runs searches against it. Every search takes a
// sequence number; updates from a search that is no longer the latest are dropped.
type Widget struct {
	repo        repository.WeatherRepository
	store       storage.LastCityStore
	locator     geolocation.Locator
	defaultCity string
	log         *zap.SugaredLogger

	mu     sync.Mutex
	state  State
	latest uint64

	// pendingCity is the city the store should end up holding; writing is set while one
	// search owns the store writes. Both are guarded by mu.
	pendingCity string
	writing     bool

	pubMu       sync.Mutex
	subMu       sync.RWMutex
	nextSubID   int
	subscribers map[int]func(State)
}

var _ WidgetInterface = (*Widget)(nil)

func NewWidget(deps Dependencies) *Widget {
	if deps.Logger == nil {
		deps.Logger = config.GetLogger()
	}
	if deps.Repo == nil {
		deps.Repo = repository.NewWeatherRepository()
	}
	if deps.Store == nil {
		store, err := storage.New()
		if err != nil {
			deps.Logger.Warnw("Falling back to in-memory last city store", "error", err)
			store = storage.NewMemoryStore()
		}
		deps.Store = store
	}
	if deps.Locator == nil {
		locator, err := geolocation.New()
		if err != nil {
			deps.Logger.Warnw("Geolocation disabled", "error", err)
			locator = geolocation.Unsupported{}
		}
		deps.Locator = locator
	}
	if deps.DefaultCity == "" {
		deps.DefaultCity = config.GetDefaultCity()
	}
	return &Widget{
		repo:        deps.Repo,
		store:       deps.Store,
		locator:     deps.Locator,
		defaultCity: deps.DefaultCity,
		log:         deps.Logger,
		state:       InitialState(),
		subscribers: make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return snapshot(w.state)
}

// Subscribe registers fn to receive every new snapshot.
func (w *Widget) Subscribe(fn func(State)) func() {
	w.subMu.Lock()
	defer w.subMu.Unlock()
	id := w.nextSubID
	w.nextSubID++
	w.subscribers[id] = fn
	return func() {
		w.subMu.Lock()
		defer w.subMu.Unlock()
		delete(w.subscribers, id)
	}
}

// Search fetches current conditions and then the forecast for query.
func (w *Widget) Search(ctx context.Context, query model.Query) State {
	if query.IsCity() {
		query.City = strings.TrimSpace(query.City)
		if query.City == "" {
			seq := w.nextSeq()
			w.update(seq, func(s State) State { return RejectEmptyQuery(s, seq) })
			return w.State()
		}
	}

	seq := w.nextSeq()
	w.update(seq, func(s State) State { return BeginSearch(s, seq) })
	w.search(ctx, seq, query)
	return w.State()
}

func (w *Widget) search(ctx context.Context, seq uint64, query model.Query) {
	defer w.update(seq, FinishSearch)

	current, err := w.repo.FetchCurrent(ctx, query)
	if err == nil && current.ConditionCode() == "" {
		err = fmt.Errorf("%w: %w", repository.ErrMalformedResponse, errNoCondition)
	}
	if err != nil {
		var apiErr *repository.APIError
		if errors.As(err, &apiErr) {
			w.log.Warnw("Weather API rejected request", "query", query.String(), "status", apiErr.StatusCode, "message", apiErr.Message)
			w.update(seq, func(s State) State {
				s = FailWithAPIError(s, apiErr.Message)
				if query.IsCity() {
					s = ClearInput(s)
				}
				return s
			})
			return
		}
		w.log.Errorw("Weather fetch error", "query", query.String(), "error", err)
		w.update(seq, FailWithError)
		return
	}

	if !w.update(seq, func(s State) State { return ApplyCurrent(s, current) }) {
		return
	}
	if code := current.ConditionCode(); !conditions.Known(code) {
		w.log.Debugw("Unknown condition code, showing default icon", "code", code, "location", current.Name)
	}
	if current.Name != "" {
		w.persist(ctx, seq, current.Name)
	}

	forecast, err := w.repo.FetchForecast(ctx, query)
	if err != nil {
		w.log.Warnw("Forecast fetch failed, keeping previous forecast", "query", query.String(), "error", err)
	} else {
		w.update(seq, func(s State) State { return ApplyForecast(s, forecast.List) })
	}

	if query.IsCity() {
		w.update(seq, ClearInput)
	}
}

// persist records city as the last city if seq is still the latest search. Writes are
// serialized: a search that finds a write in progress leaves its city for that writer,
// which keeps writing until the store holds the newest city.
func (w *Widget) persist(ctx context.Context, seq uint64, city string) {
	w.mu.Lock()
	if seq != w.latest {
		w.mu.Unlock()
		return
	}
	w.pendingCity = city
	if w.writing {
		w.mu.Unlock()
		return
	}
	w.writing = true
	w.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	for {
		if err := w.store.WriteLastCity(ctx, city); err != nil {
			w.log.Warnw("Could not persist last city", "city", city, "error", err)
		}
		w.mu.Lock()
		if w.pendingCity == city {
			w.writing = false
			w.mu.Unlock()
			return
		}
		city = w.pendingCity
		w.mu.Unlock()
	}
}

// SearchByLocation looks up the current position and searches it.
func (w *Widget) SearchByLocation(ctx context.Context) State {
	seq := w.nextSeq()
	w.update(seq, func(s State) State { return BeginSearch(s, seq) })

	pos, err := w.locator.GetPosition(ctx)
	if err != nil {
		msg := MsgLocationDenied
		if errors.Is(err, geolocation.ErrUnsupported) {
			msg = MsgLocationUnsupported
		}
		w.log.Infow("Geolocation unavailable", "error", err)
		w.update(seq, func(s State) State { return LocationFailed(s, msg) })
		return w.State()
	}
	return w.Search(ctx, model.CoordinatesQuery(pos.Latitude, pos.Longitude))
}

// InitialLoad runs the startup sequence: the current position if available, otherwise
// the last stored city, otherwise the default city.
func (w *Widget) InitialLoad(ctx context.Context) State {
	pos, err := w.locator.GetPosition(ctx)
	if err == nil {
		return w.Search(ctx, model.CoordinatesQuery(pos.Latitude, pos.Longitude))
	}
	w.log.Infow("Geolocation unavailable, falling back to last city", "error", err)
	return w.Search(ctx, model.CityQuery(w.fallbackCity(ctx)))
}

func (w *Widget) fallbackCity(ctx context.Context) string {
	city, err := w.store.ReadLastCity(ctx)
	if err != nil {
		w.log.Warnw("Could not read last city", "error", err)
	}
	if city == "" {
		return w.defaultCity
	}
	return city
}

// SelectForecastDay shows a forecast entry in the main display.
func (w *Widget) SelectForecastDay(entry model.ForecastEntry) State {
	return w.apply(func(s State) State { return SelectForecast(s, entry) })
}

// SelectForecastIndex selects the index-th entry of the forecast strip.
func (w *Widget) SelectForecastIndex(index int) (State, error) {
	w.mu.Lock()
	if index < 0 || index >= len(w.state.Forecast) {
		n := len(w.state.Forecast)
		w.mu.Unlock()
		return State{}, fmt.Errorf("%w: %d of %d", ErrForecastIndex, index, n)
	}
	entry := w.state.Forecast[index]
	w.mu.Unlock()
	return w.SelectForecastDay(entry), nil
}

// SetInput records the text in the search field.
func (w *Widget) SetInput(input string) State {
	return w.apply(func(s State) State { return SetInput(s, input) })
}

func (w *Widget) nextSeq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.latest++
	return w.latest
}

// update applies fn if seq is still the latest search and reports whether it did.
func (w *Widget) update(seq uint64, fn func(State) State) bool {
	w.mu.Lock()
	if latest := w.latest; seq != latest {
		w.mu.Unlock()
		w.log.Debugw("Dropping stale search update", "seq", seq, "latest", latest)
		return false
	}
	w.state = fn(w.state)
	w.publishLocked()
	return true
}

// apply runs fn regardless of searches in flight.
func (w *Widget) apply(fn func(State) State) State {
	w.mu.Lock()
	w.state = fn(w.state)
	snap := snapshot(w.state)
	w.publishLocked()
	return snap
}

// publishLocked hands the new snapshot to subscribers. It must be called with w.mu held
// and releases it; pubMu keeps deliveries in the order the updates were made.
func (w *Widget) publishLocked() {
	snap := snapshot(w.state)
	w.pubMu.Lock()
	w.mu.Unlock()
	defer w.pubMu.Unlock()

	w.subMu.RLock()
	subs := make([]func(State), 0, len(w.subscribers))
	for _, fn := range w.subscribers {
		subs = append(subs, fn)
	}
	w.subMu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func snapshot(s State) State {
	s.Forecast = slices.Clone(s.Forecast)
	return s
}
