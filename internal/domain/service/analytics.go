package service

import (
	"context"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
)

// MacroSource resolves the authoritative macro snapshot for a pass.
type MacroSource interface {
	Load(ctx context.Context) models.MacroResult
}

// MetaSource yields the current behavioral-meta snapshot.
type MetaSource interface {
	Snapshot(ctx context.Context) models.BehavioralMeta
}

// RegimeDetector classifies the market regime; it never fails.
type RegimeDetector interface {
	DetectRegime(ctx context.Context) models.RegimeResult
}
