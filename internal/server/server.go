package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yashubustudio/tasador/estimator"
)

//go:embed templates/*.html
var templateFS embed.FS

const requestTimeout = 30 * time.Second

// Server exposes the estimator over HTTP: an HTML form, a fragment endpoint
// for it, a JSON API, health and metrics.
type Server struct {
	svc      *estimator.Service
	logger   *zap.Logger
	gatherer prometheus.Gatherer
	page     *template.Template
	router   *chi.Mux
}

// New wires the routes. gatherer backs /metrics; nil uses the default
// registry.
func New(svc *estimator.Service, logger *zap.Logger, gatherer prometheus.Gatherer) (*Server, error) {
	if svc == nil {
		return nil, errors.New("service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	page, err := template.New("index.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{
		svc:      svc,
		logger:   logger,
		gatherer: gatherer,
		page:     page,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/", s.handleIndex)
	r.Post("/predict", s.handlePredictForm)
	r.Post("/api/v1/predict", s.handlePredictJSON)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type pageData struct {
	Title       string
	InputsText  string
	ResultText  string
	ExampleText string
	Fields      []estimator.FieldSpec
	Names       []string
	Rules       []string
	Examples    []estimator.RawInputs
	Result      template.HTML
}

func (s *Server) pageData(result template.HTML) pageData {
	schema := s.svc.Schema()
	return pageData{
		Title:       estimator.TitleText,
		InputsText:  estimator.InputsText,
		ResultText:  estimator.ResultText,
		ExampleText: estimator.ExampleText,
		Fields:      schema.Fields,
		Names:       schema.Names(),
		Rules:       schema.RuleSummaries(),
		Examples:    estimator.ExamplesFor(estimator.NewValidator(schema)),
		Result:      result,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "")
}

func (s *Server) renderPage(w http.ResponseWriter, result template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, s.pageData(result)); err != nil {
		s.logger.Error("render page", zap.Error(err))
	}
}

// handlePredictForm answers with the result or error card. Fetch requests
// get the bare fragment; plain form posts get the whole page around it.
func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	values := make(map[string]any, len(s.svc.Schema().Fields))
	for _, name := range s.svc.Schema().Names() {
		if _, ok := r.PostForm[name]; ok {
			values[name] = r.PostForm.Get(name)
		}
	}
	p, err := s.svc.PredictNamed(r.Context(), values)
	card := estimator.Render(p, err)

	if r.Header.Get("X-Requested-With") == "" {
		s.renderPage(w, card)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(card))
}

type predictRequest struct {
	Inputs map[string]any `json:"inputs"`
	Data   []any          `json:"data"`
}

type predictResponse struct {
	ID        string  `json:"id"`
	Estimate  float64 `json:"estimate"`
	Formatted string  `json:"formatted"`
}

func (s *Server) handlePredictJSON(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Inputs == nil && req.Data == nil {
		respondError(w, http.StatusBadRequest, "inputs or data is required", nil)
		return
	}

	var (
		p   estimator.Prediction
		err error
	)
	if req.Inputs != nil {
		p, err = s.svc.PredictNamed(r.Context(), req.Inputs)
	} else {
		p, err = s.svc.Predict(r.Context(), estimator.RawInputs(req.Data))
	}
	if err != nil {
		respondPredictionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, predictResponse{ID: p.ID, Estimate: p.Value, Formatted: p.Formatted})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"columns": s.svc.Estimator().Manifest().Width(),
	})
}

// requestLogger logs one zap line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func respondPredictionError(w http.ResponseWriter, err error) {
	var e *estimator.Error
	if !errors.As(err, &e) {
		respondError(w, http.StatusInternalServerError, "prediction failed", err)
		return
	}
	body := map[string]string{
		"error": estimator.Headline(err),
		"kind":  string(e.Kind),
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	status := http.StatusUnprocessableEntity
	if !e.Kind.UserCorrectable() {
		status = http.StatusInternalServerError
		if d := e.Details(); d != "" {
			body["details"] = d
		}
	}
	respondJSON(w, status, body)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// Run serves handler on cfg.Addr until ctx is canceled, then shuts down
// within cfg.ShutdownTimeout.
func Run(ctx context.Context, cfg estimator.ServerConfig, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", cfg.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

var templateFuncs = template.FuncMap{
	"num": func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	},
	"value": func(v any) string {
		switch x := v.(type) {
		case nil:
			return ""
		case float64:
			return strconv.FormatFloat(x, 'f', -1, 64)
		case string:
			return x
		}
		return fmt.Sprint(v)
	},
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
	"summary": func(raw estimator.RawInputs) string {
		parts := make([]string, len(raw))
		for i, v := range raw {
			switch x := v.(type) {
			case float64:
				parts[i] = strconv.FormatFloat(x, 'f', -1, 64)
			default:
				parts[i] = fmt.Sprint(x)
			}
		}
		return strings.Join(parts, " · ")
	},
}
