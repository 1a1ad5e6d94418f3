package screening

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/eclipseagency/jobly/internal/logger"
	"github.com/eclipseagency/jobly/internal/screening/metrics"
	"github.com/eclipseagency/jobly/internal/utils"
)

const (
	tracerName = "github.com/eclipseagency/jobly/internal/screening"

	// statusInvalid labels validation failures in metrics and logs.
	statusInvalid = "invalid"

	defaultPreviewLen = 80
)

// Service wraps Process with logging, metrics and tracing. The engine itself
// stays free of side effects.
type Service struct {
	logger     *zap.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	opts       []Option
	previewLen int
	now        func() time.Time
}

// NewService builds a Service. logger and m may be nil.
func NewService(log *zap.Logger, m *metrics.Metrics, opts ...Option) *Service {
	return &Service{
		logger:     logger.WithFields(log),
		metrics:    m,
		tracer:     otel.Tracer(tracerName),
		opts:       opts,
		previewLen: defaultPreviewLen,
		now:        time.Now,
	}
}

// Screen runs one screening evaluation. The returned error is the engine's
// *ConfigError, if any.
func (s *Service) Screen(ctx context.Context, form *Form, answers []Answer) (*Result, error) {
	runID := uuid.NewString()

	log := s.logger.With(zap.String(logger.FieldRunID, runID))
	if form != nil {
		log = logger.WithForm(log, form.ID, form.JobID, form.Version)
	}

	_, span := s.tracer.Start(ctx, "screening.Process", trace.WithAttributes(
		attribute.String("jobly.run_id", runID),
		attribute.Int("jobly.answers", len(answers)),
	))
	defer span.End()
	if form != nil {
		span.SetAttributes(
			attribute.String("jobly.form_id", form.ID),
			attribute.String("jobly.job_id", form.JobID),
			attribute.Int("jobly.form_version", form.Version),
		)
	}

	if log.Core().Enabled(zap.DebugLevel) {
		for _, a := range answers {
			log.Debug("answer received",
				zap.String(logger.FieldQuestionID, a.QuestionID),
				zap.String("kind", a.Answer.Kind().String()),
				zap.String("preview", utils.TruncateForLog(a.Answer.String(), s.previewLen)),
			)
		}
	}

	start := s.now()
	result, err := Process(form, answers, s.opts...)
	elapsed := s.now().Sub(start)
	s.metrics.ObserveEvaluateLatency(elapsed)

	if err != nil {
		code := "UNKNOWN"
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			code = string(cfgErr.Code)
		}
		s.metrics.IncrementConfigDefect(code)
		span.RecordError(err)
		span.SetStatus(codes.Error, "form configuration defect")
		log.Error("screening form rejected", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	if !result.IsValid {
		s.metrics.IncrementOutcome(statusInvalid)
		span.SetAttributes(attribute.String("jobly.status", statusInvalid))
		fields := make([]string, 0, len(result.ValidationErrors))
		for _, ve := range result.ValidationErrors {
			fields = append(fields, ve.QuestionID)
		}
		log.Info("screening incomplete",
			zap.Strings("missing", fields),
			zap.Duration("took", elapsed),
		)
		return result, nil
	}

	s.metrics.IncrementOutcome(string(result.RecommendedStatus))
	s.metrics.ObserveScore(result.TotalScore)
	span.SetAttributes(
		attribute.String("jobly.status", string(result.RecommendedStatus)),
		attribute.Float64("jobly.score", result.TotalScore),
		attribute.Bool("jobly.knockout", result.HasKnockout),
	)

	fields := []zap.Field{
		zap.String("status", string(result.RecommendedStatus)),
		zap.Float64("score", result.TotalScore),
		zap.Bool("knockout", result.HasKnockout),
		zap.Duration("took", elapsed),
	}
	if result.HasKnockout {
		fields = append(fields, zap.String("reason", utils.TruncateForLog(result.KnockoutReason, s.previewLen)))
	}
	log.Info("screening done", fields...)

	return result, nil
}
