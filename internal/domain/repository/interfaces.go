package repository

import (
	"context"
	"time"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
)

// RollingStore persists the rolling map. Read never fails: an absent or corrupt
// backing record yields an empty map. Save replaces the whole record atomically.
type RollingStore interface {
	Read(ctx context.Context) *models.Rolling
	Save(ctx context.Context, r *models.Rolling) error
	Location() string
}

// Publisher hands pass outputs to downstream consumers.
type Publisher interface {
	PublishRegime(ctx context.Context, r models.RegimeResult) error
	PublishPolicies(ctx context.Context, policies map[string]models.PolicyBlock) error
	Close() error
}

type Metrics interface {
	ObservePass(stage string, d time.Duration)
	RecordSymbol(stage, result string)
	RecordMacroAttempt(source, result string)
	RecordRegime(label string, confidence float64)
	ObserveExposure(scale float64)
	Flush() error
}
