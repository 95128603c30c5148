package estimator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "yashubustudio/tasador/estimator"

// Service is the request-facing wrapper around an Estimator: it stamps
// predictions, logs outcomes and reports metrics and spans.
type Service struct {
	est       *Estimator
	artifacts *Artifacts
	logger    *zap.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

// NewService loads artifacts from cfg and builds the pipeline.
func NewService(cfg Config, logger *zap.Logger, reg prometheus.Registerer) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	arts, err := LoadArtifacts(cfg, logger)
	if err != nil {
		return nil, err
	}
	est, err := New(arts)
	if err != nil {
		_ = arts.Close()
		return nil, err
	}
	svc := NewServiceWith(est, logger, NewMetrics(reg))
	svc.artifacts = arts
	return svc, nil
}

// NewServiceWith wraps an already-built estimator.
func NewServiceWith(est *Estimator, logger *zap.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		est:     est,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
	}
}

// Close releases the model held by the service.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	if s.artifacts != nil {
		return s.artifacts.Close()
	}
	return nil
}

// Estimator exposes the underlying pipeline.
func (s *Service) Estimator() *Estimator {
	return s.est
}

// Schema returns the form contract.
func (s *Service) Schema() Schema {
	return s.est.Schema()
}

// Artifacts returns the loaded artifacts, or nil when the service wraps a
// custom estimator.
func (s *Service) Artifacts() *Artifacts {
	return s.artifacts
}

// Predict runs the pipeline for positional inputs.
func (s *Service) Predict(ctx context.Context, raw RawInputs) (Prediction, error) {
	return s.observe(ctx, func() (Record, error) { return s.est.Validate(raw) })
}

// PredictNamed runs the pipeline for name-keyed inputs.
func (s *Service) PredictNamed(ctx context.Context, values map[string]any) (Prediction, error) {
	return s.observe(ctx, func() (Record, error) { return s.est.ValidateNamed(values) })
}

func (s *Service) observe(ctx context.Context, validate func() (Record, error)) (Prediction, error) {
	id := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "estimator.Predict", trace.WithAttributes(attribute.String("prediction.id", id)))
	defer span.End()

	start := time.Now()
	p, err := s.run(ctx, validate)
	elapsed := time.Since(start)
	s.metrics.observe(err, elapsed.Seconds())

	if err != nil {
		kind := KindOf(err)
		span.SetAttributes(attribute.String("error.kind", string(kind)))
		if kind.UserCorrectable() {
			s.logger.Debug("input rejected", zap.String("id", id), zap.String("kind", string(kind)), zap.String("field", fieldOf(err)))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(kind))
			s.logger.Error("prediction failed", zap.String("id", id), zap.String("kind", string(kind)), zap.Error(err))
		}
		return Prediction{}, err
	}

	p.ID = id
	p.Elapsed = elapsed
	span.SetAttributes(attribute.Float64("prediction.estimate", p.Value))
	s.logger.Info("prediction",
		zap.String("id", id),
		zap.Float64("estimate", p.Value),
		zap.Duration("elapsed", elapsed),
	)
	return p, nil
}

func (s *Service) run(ctx context.Context, validate func() (Record, error)) (Prediction, error) {
	rec, err := validate()
	if err != nil {
		return Prediction{}, err
	}
	return s.est.runRecord(ctx, rec)
}

func fieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
