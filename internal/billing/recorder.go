package billing

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sip-gateway/internal/aeims"
	"github.com/spec-kit/sip-gateway/internal/domain"
)

// Upstream forwards usage records to the platform's billing API.
type Upstream interface {
	RecordUsage(ctx context.Context, rec aeims.UsageRecord) error
}

// UsageRepository retains usage records locally for audit and
// reconciliation.
type UsageRepository interface {
	Insert(ctx context.Context, rec *domain.UsageRecord) error
}

// Recorder prices completed calls and emits usage records downstream.
type Recorder struct {
	upstream      Upstream
	repo          UsageRepository
	ratePerMinute float64
	logger        *zap.Logger
}

// NewRecorder builds a recorder. The repository may be nil when no local
// store is configured; records are then only forwarded upstream.
func NewRecorder(upstream Upstream, repo UsageRepository, ratePerMinute float64, logger *zap.Logger) *Recorder {
	if ratePerMinute <= 0 {
		ratePerMinute = 0.05
	}
	return &Recorder{upstream: upstream, repo: repo, ratePerMinute: ratePerMinute, logger: logger}
}

// RecordCallUsage emits one usage record for a completed call. The record
// is forwarded to the platform's billing API and retained locally; a local
// insert failure is logged but does not block the upstream forward.
func (r *Recorder) RecordCallUsage(ctx context.Context, subjectID string, durationSeconds int, endedAt time.Time) error {
	rec := domain.UsageRecord{
		ID:              uuid.NewString(),
		SubjectID:       subjectID,
		Kind:            domain.UsageKindCall,
		DurationSeconds: durationSeconds,
		Cost:            CallCost(durationSeconds, r.ratePerMinute),
		Timestamp:       endedAt,
	}

	if r.repo != nil {
		if err := r.repo.Insert(ctx, &rec); err != nil {
			r.logger.Error("failed to persist usage record",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}
	}

	return r.upstream.RecordUsage(ctx, aeims.UsageRecord{
		UserID:          rec.SubjectID,
		Kind:            string(rec.Kind),
		DurationSeconds: rec.DurationSeconds,
		Cost:            rec.Cost,
		Timestamp:       rec.Timestamp,
	})
}

// CallCost prices a call: started minutes are billed in full.
func CallCost(durationSeconds int, ratePerMinute float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	minutes := math.Ceil(float64(durationSeconds) / 60)
	return minutes * ratePerMinute
}
