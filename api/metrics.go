package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	listTasksRoute    = "/api/boards/:id/tasks"
	listTasksSpanName = "kanban.tasks.list"
	tracerName        = "kanban-api"
)

// listRequestMetrics instruments the task-list path, the hot endpoint behind
// the drag-and-drop UI. It emits one structured log record and one span per
// request.
type listRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	fetchDuration  time.Duration
	encodeDuration time.Duration
	filtered       bool
	tasksReturned  int
	errorStage     string
}

func newListRequestMetrics(ctx context.Context, logger *log.Logger) (*listRequestMetrics, context.Context) {
	m := &listRequestMetrics{logger: logger, start: time.Now()}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, listTasksSpanName)
	m.span = span
	return m, spanCtx
}

func (m *listRequestMetrics) ObserveFetch(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.fetchDuration = duration
}

func (m *listRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *listRequestMetrics) SetFiltered(filtered bool) {
	m.filtered = filtered
}

func (m *listRequestMetrics) SetTasksReturned(count int) {
	if count < 0 {
		count = 0
	}
	m.tasksReturned = count
}

func (m *listRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *listRequestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	total := time.Since(m.start)

	if m.span != nil {
		m.span.SetAttributes(
			attribute.String("http.route", listTasksRoute),
			attribute.Int("http.status_code", status),
			attribute.Bool("kanban.tasks.filtered", m.filtered),
			attribute.Int("kanban.tasks.returned", m.tasksReturned),
			attribute.Float64("kanban.tasks.total_ms", durationToMillis(total)),
		)
		switch {
		case err != nil:
			m.span.SetStatus(codes.Error, err.Error())
		case m.errorStage != "":
			m.span.SetStatus(codes.Error, m.errorStage)
		default:
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"route":          listTasksRoute,
		"status":         status,
		"total_ms":       durationToMillis(total),
		"filtered":       m.filtered,
		"tasks_returned": m.tasksReturned,
	}
	if m.fetchDuration > 0 {
		fields["fetch_ms"] = durationToMillis(m.fetchDuration)
	}
	if m.encodeDuration > 0 {
		fields["encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Info("tasks.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
