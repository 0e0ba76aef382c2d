// Package server exposes the dashboard state over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/verte-zerg/covidash/internal/countries"
	"github.com/verte-zerg/covidash/internal/dashboard"
	"github.com/verte-zerg/covidash/internal/logging"
	"github.com/verte-zerg/covidash/internal/model"
	"github.com/verte-zerg/covidash/internal/stats"
)

// Server serves one dashboard and its country controller. Handlers are
// serialized by a mutex.
type Server struct {
	mu   sync.Mutex
	dash *dashboard.Dashboard
	ctrl *countries.Controller
	log  *zap.Logger
	e    *echo.Echo
}

type summaryResponse struct {
	Selection model.Selection `json:"selection"`
	Chart     string          `json:"chart"`
	Loading   bool            `json:"loading"`
	Report    stats.Report    `json:"report"`
}

type countriesResponse struct {
	Count     int                    `json:"count"`
	Criteria  criteriaResponse       `json:"criteria"`
	Countries []model.CountrySummary `json:"countries"`
}

type criteriaResponse struct {
	Search    string `json:"search"`
	Continent string `json:"continent"`
	Sort      string `json:"sort"`
	Direction string `json:"dir"`
}

type selectionRequest struct {
	Country string `json:"country"`
}

type favoriteResponse struct {
	Country  string `json:"country"`
	Favorite bool   `json:"favorite"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New wires a server around dash. Selections made through the API fetch
// synchronously and are recorded in recent.
func New(dash *dashboard.Dashboard, recent countries.RecentList, favorites countries.FavoriteSet, log *zap.Logger) *Server {
	s := &Server{
		dash: dash,
		log:  logging.OrNop(log),
	}
	s.ctrl = countries.NewController(recent, favorites, func(ctx context.Context, name string) {
		s.dash.Select(ctx, name)
	}, s.log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = goJSONSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	s.e = e
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.e.Group("/api")
	api.GET("/summary", s.getSummary)
	api.GET("/history", s.getHistory)
	api.GET("/countries", s.getCountries)
	api.GET("/continents", s.getContinents)
	api.POST("/selection", s.postSelection)
	api.GET("/recent", s.getRecent)
	api.DELETE("/recent", s.deleteRecent)
	api.GET("/favorites", s.getFavorites)
	api.POST("/favorites/:name", s.toggleFavorite)
}

// Load performs the initial fetch and fills the country list.
func (s *Server) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	initial := s.dash.LoadInitial(ctx)
	s.ctrl.SetCountries(initial.Countries)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.Info("api listening", zap.String("addr", addr))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) getSummary(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.summary())
}

func (s *Server) summary() summaryResponse {
	state := s.dash.State()
	return summaryResponse{
		Selection: state.Selection,
		Chart:     state.Chart.String(),
		Loading:   state.Loading,
		Report:    stats.NewReport(state.Selection, state.Snapshot),
	}
}

func (s *Server) getHistory(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.dash.State().Series)
}

func (s *Server) getCountries(c echo.Context) error {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	view := countries.ComputeView(s.ctrl.Countries(), criteria)
	return c.JSON(http.StatusOK, countriesResponse{
		Count: len(view),
		Criteria: criteriaResponse{
			Search:    criteria.Search,
			Continent: criteria.Continent,
			Sort:      string(criteria.SortKey),
			Direction: string(criteria.Direction),
		},
		Countries: view,
	})
}

func criteriaFromQuery(c echo.Context) (model.FilterCriteria, error) {
	criteria := model.DefaultCriteria()
	criteria.Search = c.QueryParam("search")
	if continent := strings.TrimSpace(c.QueryParam("continent")); continent != "" {
		criteria.Continent = continent
	}
	if raw := c.QueryParam("sort"); raw != "" {
		key, err := model.ParseSortKey(raw)
		if err != nil {
			return criteria, err
		}
		criteria.SortKey = key
		criteria.Direction = key.DefaultDirection()
	}
	if raw := c.QueryParam("dir"); raw != "" {
		dir, err := model.ParseSortDirection(raw)
		if err != nil {
			return criteria, err
		}
		criteria.Direction = dir
	}
	return criteria, nil
}

func (s *Server) getContinents(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.ctrl.ContinentOptions()
	if list == nil {
		list = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"continents": list})
}

func (s *Server) postSelection(c echo.Context) error {
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid selection body"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.SelectCountry(c.Request().Context(), strings.TrimSpace(req.Country))
	return c.JSON(http.StatusOK, s.summary())
}

func (s *Server) getRecent(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.ctrl.RecentCountries())
}

func (s *Server) deleteRecent(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.ClearRecent(c.Request().Context()); err != nil {
		s.log.Warn("failed to clear recent countries", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to clear recent countries"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getFavorites(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.ctrl.FavoriteCountries())
}

func (s *Server) toggleFavorite(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil || strings.TrimSpace(name) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid country name"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	added, err := s.ctrl.ToggleFavorite(c.Request().Context(), name)
	if err != nil {
		s.log.Warn("failed to persist favorites", zap.String("country", name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to save favorites"})
	}
	return c.JSON(http.StatusOK, favoriteResponse{Country: name, Favorite: added})
}
