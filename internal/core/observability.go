package core

import (
	"context"
	"time"

	"chambercore/pkg/domain"
)

// Logger is the minimal leveled key-value logging contract used by the
// service. *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan terminates a started span.
type TraceSpan interface {
	End(err error)
}

// Tracer starts one span per service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopSpan) End(error) {}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

// AuditStatus labels the outcome recorded in an audit entry.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// AuditEntry describes one completed service operation for the audit trail.
type AuditEntry struct {
	Operation string
	Entity    EntityType
	EntityID  string
	Action    Action
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries for completed operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

// Clock abstracts the service time source.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// ServiceOption configures a Service at construction time.
type ServiceOption func(*Service)

// WithLogger installs a logger for operation diagnostics.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder installs a metrics recorder.
func WithMetricsRecorder(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAuditRecorder installs an audit recorder.
func WithAuditRecorder(rec AuditRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.audit = rec
		}
	}
}

// WithClock overrides the service time source.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// operationMetadata maps service operation names to the entity and action
// recorded in the audit trail. Operations absent from the map are not audited.
var operationMetadata = map[string]struct {
	entity EntityType
	action Action
}{
	"register_specimen":      {EntitySpecimen, ActionCreate},
	"register_setting":       {EntitySetting, ActionCreate},
	"register_run":           {EntityRun, ActionCreate},
	"append_sample":          {EntitySample, ActionCreate},
	"record_reading":         {EntityReading, ActionCreate},
	"reidentify_specimen":    {EntitySpecimen, ActionReidentify},
	"reidentify_setting":     {EntitySetting, ActionReidentify},
	"reidentify_run":         {EntityRun, ActionReidentify},
	"reindex_sample":         {EntitySample, ActionReidentify},
	"remove_specimen":        {EntitySpecimen, ActionDelete},
	"remove_setting":         {EntitySetting, ActionDelete},
	"remove_run":             {EntityRun, ActionDelete},
	"remove_sample":          {EntitySample, ActionDelete},
	"remove_reading":         {EntityReading, ActionDelete},
	"load_batch":             {EntitySpecimen, ActionCreate},
	"import_legacy_readings": {EntityReading, ActionCreate},
}

func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID string, duration time.Duration) {
	meta, ok := operationMetadata[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    meta.entity,
		EntityID:  entityID,
		Action:    meta.action,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}

func (s *Service) recordAuditFailure(ctx context.Context, operation, entityID string, duration time.Duration, err error) {
	meta, ok := operationMetadata[operation]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: operation,
		Entity:    meta.entity,
		EntityID:  entityID,
		Action:    meta.action,
		Status:    AuditStatusFailure,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// instrument opens a span for operation and returns a finish callback that
// records metrics, audit, and logging once the operation settles.
func (s *Service) instrument(ctx context.Context, operation string) (context.Context, func(entityID string, err error)) {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, operation)
	return ctx, func(entityID string, err error) {
		duration := s.clock.Now().Sub(start)
		span.End(err)
		s.metrics.Observe(ctx, operation, err == nil, duration)
		if err != nil {
			s.logger.Warn("operation failed", "operation", operation, "key", entityID, "error", err)
			s.recordAuditFailure(ctx, operation, entityID, duration, err)
			return
		}
		s.logger.Debug("operation completed", "operation", operation, "key", entityID)
		s.recordAuditSuccess(ctx, operation, entityID, duration)
	}
}

var _ domain.RuleView = (TransactionView)(nil)
