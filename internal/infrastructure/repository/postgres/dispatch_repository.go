package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/fantasysports/season-core/internal/domain/dispatch"
	qb "github.com/fantasysports/season-core/internal/platform/querybuilder"
)

// DispatchRepository persists the C7 job-dispatch audit trail. Each
// call upserts by dispatch id so a sent/completed/failed sequence for
// the same attempt accumulates onto one row instead of three.
type DispatchRepository struct {
	db *sqlx.DB
}

func NewDispatchRepository(db *sqlx.DB) *DispatchRepository {
	return &DispatchRepository{db: db}
}

func (r *DispatchRepository) UpsertEvent(ctx context.Context, event dispatch.Event) error {
	dispatchID := strings.TrimSpace(event.DispatchID)
	if dispatchID == "" {
		return fmt.Errorf("dispatch id is required")
	}

	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}
	jobPath := strings.TrimSpace(event.JobPath)
	if jobPath == "" {
		jobPath = "/unknown"
	}
	seasonID := strings.TrimSpace(event.SeasonID)
	if seasonID == "" {
		seasonID = "unknown"
	}

	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := marshalDispatchPayload(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal job dispatch payload: %w", err)
	}

	model := dispatchEventInsertModel{
		DispatchID: dispatchID,
		JobName:    jobName,
		JobPath:    jobPath,
		SeasonID:   seasonID,
		Payload:    payloadJSON,
		Status:     string(event.Status),
		LastError:  optionalDispatchString(event.ErrorMessage),
	}

	switch event.Status {
	case dispatch.StatusSent:
		model.SentAt = &occurredAt
		model.SentTraceID = optionalDispatchString(event.TraceID)
		model.SentSpanID = optionalDispatchString(event.SpanID)
		model.LastError = nil
	case dispatch.StatusCompleted:
		model.CompletedAt = &occurredAt
		model.CompletedTraceID = optionalDispatchString(event.TraceID)
		model.CompletedSpanID = optionalDispatchString(event.SpanID)
		model.LastError = nil
	case dispatch.StatusFailed:
		model.FailedAt = &occurredAt
		model.FailedTraceID = optionalDispatchString(event.TraceID)
		model.FailedSpanID = optionalDispatchString(event.SpanID)
	}

	query, args, err := qb.InsertModel("dispatch_events", model, `ON CONFLICT (dispatch_id)
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    job_path = EXCLUDED.job_path,
    season_id = EXCLUDED.season_id,
    payload = EXCLUDED.payload,
    status = EXCLUDED.status,
    sent_at = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_at
        ELSE COALESCE(dispatch_events.sent_at, EXCLUDED.sent_at)
    END,
    completed_at = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_at
        ELSE dispatch_events.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE dispatch_events.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        ELSE NULL
    END,
    sent_trace_id = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_trace_id
        ELSE dispatch_events.sent_trace_id
    END,
    sent_span_id = CASE
        WHEN EXCLUDED.status = 'sent' THEN EXCLUDED.sent_span_id
        ELSE dispatch_events.sent_span_id
    END,
    completed_trace_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_trace_id
        ELSE dispatch_events.completed_trace_id
    END,
    completed_span_id = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_span_id
        ELSE dispatch_events.completed_span_id
    END,
    failed_trace_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_trace_id
        ELSE dispatch_events.failed_trace_id
    END,
    failed_span_id = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_span_id
        ELSE dispatch_events.failed_span_id
    END`)
	if err != nil {
		return fmt.Errorf("build upsert dispatch event query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert dispatch event dispatch_id=%s status=%s: %w", dispatchID, event.Status, err)
	}
	return nil
}

func marshalDispatchPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func optionalDispatchString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
