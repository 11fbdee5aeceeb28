package usecase

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/internal/services/snapshot"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
)

// setPrediction stores p under horizon h the way a model collaborator writes it.
func setPrediction(n *models.SymbolNode, h models.Horizon, p models.Prediction) {
	b, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	if n.Predictions == nil {
		n.Predictions = make(map[string]json.RawMessage)
	}
	n.Predictions[string(h)] = b
}

type stubMacro struct{ res models.MacroResult }

func (s stubMacro) Load(context.Context) models.MacroResult { return s.res }

type stubMeta struct{ meta models.BehavioralMeta }

func (s stubMeta) Snapshot(context.Context) models.BehavioralMeta { return s.meta }

const rollingJSON = `{
  "AAPL": {
    "symbol": "AAPL",
    "history": [{"date": "2024-05-08", "close": 182.1}, {"date": "2024-05-09", "close": 184.0}],
    "predictions": {
      "1w": {"score": 0.8, "confidence": 0.9, "predicted_return": 0.05},
      "2w": {"score": 0.1, "confidence": 0.6},
      "13w": {"score": -0.2, "confidence": 0.4},
      "5y": {"score": 9}
    },
    "fundamentals": {"sector": "Technology"},
    "policy": {"kill_switch": true, "owner_note": "risk desk"}
  },
  "msft": {
    "history": [],
    "predictions": {"1d": {"score": -0.05, "confidence": 0.7}}
  },
  "_meta": {"confidence_bias": 1.1}
}`

func decodeRolling(t *testing.T) *models.Rolling {
	t.Helper()
	r := models.NewRolling()
	require.NoError(t, json.Unmarshal([]byte(rollingJSON), r))
	return r
}

type inputDirs struct {
	news   string
	social string
}

func writeInputs(t *testing.T) inputDirs {
	t.Helper()
	root := t.TempDir()
	dirs := inputDirs{news: filepath.Join(root, "news"), social: filepath.Join(root, "social")}
	require.NoError(t, os.MkdirAll(dirs.news, 0o755))
	require.NoError(t, os.MkdirAll(dirs.social, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dirs.news, "news_2024-05-09.json"), []byte(`{"symbols": {
		"AAPL": {"long_horizon": {"sentiment_mean": 2}, "buzz": {"buzz_count": 40, "buzz_score": 1.2}, "shock": {"score": 0.3, "direction": "up"}}
	}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dirs.social, "social_2024-05-09.json"), []byte(`{"data": {
		"AAPL": {"avg_sentiment": 2, "buzz": 25}
	}}`), 0o644))
	return dirs
}

func testMacro() models.MacroSnapshot {
	return models.MacroSnapshot{VIX: 14, SPYPct: 0.015, Breadth: 0.2, Volatility: 0.1, RegimeHint: "bull"}.WithLegacyAliases()
}

func newFuser(dirs inputDirs, macro models.MacroResult, meta models.BehavioralMeta) *ContextFuser {
	cfg := config.Default()
	return NewContextFuser(
		snapshot.NewNewsReader(dirs.news, cfg.Snapshots.NewsPrefix, logger.Nop()),
		snapshot.NewSocialReader(dirs.social, cfg.Snapshots.SocialPrefix, logger.Nop()),
		stubMacro{macro},
		stubMeta{meta},
		cfg.Fusion,
		nil,
		logger.Nop(),
	)
}
