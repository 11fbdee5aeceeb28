package models

const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

// HorizonSignal is the clamped score/confidence pair of one horizon.
type HorizonSignal struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// ContextBlock is the fused per-symbol context. It is replaced wholesale on every
// fusion pass and carries no wall-clock values of its own.
type ContextBlock struct {
	NewsSentiment  float64 `json:"news_sentiment"`
	NewsBuzzCount  float64 `json:"news_buzz_count"`
	NewsBuzzScore  float64 `json:"news_buzz_score"`
	ShockScore     float64 `json:"shock_score"`
	ShockDirection string  `json:"shock_direction"`

	SocialSentiment float64 `json:"social_sentiment"`
	SocialBuzz      float64 `json:"social_buzz"`

	Sentiment float64 `json:"sentiment"`
	Buzz      float64 `json:"buzz"`

	Predictions    map[Horizon]HorizonSignal `json:"predictions"`
	PredScoreShort float64                   `json:"pred_score_short"`
	PredScoreMid   float64                   `json:"pred_score_mid"`
	PredScoreLong  float64                   `json:"pred_score_long"`
	PredConfShort  float64                   `json:"pred_conf_short"`
	PredConfMid    float64                   `json:"pred_conf_mid"`
	PredConfLong   float64                   `json:"pred_conf_long"`
	PredScore      float64                   `json:"pred_score"`
	PredConfidence float64                   `json:"pred_confidence"`
	PredGroup      string                    `json:"pred_group"`
	Trend          string                    `json:"trend"`

	Volatility float64 `json:"volatility"`
	Breadth    float64 `json:"breadth"`
	RiskOff    float64 `json:"risk_off"`
	RegimeHint string  `json:"regime_hint"`

	// RealizedVol is the annualized deviation of the symbol's own daily closes.
	RealizedVol float64 `json:"realized_vol"`

	BehavioralMeta BehavioralMeta `json:"behavioral_meta"`
	Sector         string         `json:"sector,omitempty"`
}
