package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campus-atrium/atrium/internal/jobs"
)

// AuditPruner deletes session audit rows issued before a cutoff.
type AuditPruner interface {
	PruneSessionAudits(ctx context.Context, before time.Time) (int64, error)
}

// SessionSweepJob removes audit rows for sessions old enough that their
// tokens have long been rotated or revoked.
type SessionSweepJob struct {
	pruner  AuditPruner
	logger  *slog.Logger
	maxAge  time.Duration
	metrics *jobmetrics.Metrics
}

// NewSessionSweepJob constructs the sweep job. maxAge is the fallback
// retention window when a task carries no explicit bound.
func NewSessionSweepJob(pruner AuditPruner, logger *slog.Logger, maxAge time.Duration, metrics *jobmetrics.Metrics) *SessionSweepJob {
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &SessionSweepJob{pruner: pruner, logger: logger, maxAge: maxAge, metrics: metrics}
}

// Handle processes TaskSessionSweep tasks.
func (j *SessionSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track("session_sweep")
	var payload SessionSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	maxAge := j.maxAge
	if payload.MaxAgeHours > 0 {
		maxAge = time.Duration(payload.MaxAgeHours) * time.Hour
	}
	cutoff := time.Now().UTC().Add(-maxAge)
	removed, err := j.pruner.PruneSessionAudits(ctx, cutoff)
	if err != nil {
		if j.logger != nil {
			j.logger.Error("session sweep failed", slog.Any("error", err))
		}
		return tracker.End(err)
	}
	if j.logger != nil {
		j.logger.Info("session sweep completed",
			slog.Int64("removed", removed),
			slog.Time("cutoff", cutoff))
	}
	return tracker.End(nil)
}
