package models

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/aionanalytics/Aion-sub001/pkg/util"
)

// Bar is one daily OHLCV record. A bar decoded from storage keeps its original bytes
// and is written back verbatim, so fields other collaborators add (adj_close, vwap)
// survive and absent prices are never written as zero.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`

	raw json.RawMessage
}

func (b *Bar) UnmarshalJSON(data []byte) error {
	m, err := util.DecodeObject(data)
	if err != nil {
		return err
	}
	*b = Bar{
		Date:   util.Str(m["date"]),
		Open:   util.FloatDefault(m["open"], 0),
		High:   util.FloatDefault(m["high"], 0),
		Low:    util.FloatDefault(m["low"], 0),
		Close:  util.FloatDefault(m["close"], 0),
		Volume: util.FloatDefault(m["volume"], 0),
		raw:    append(json.RawMessage(nil), data...),
	}
	return nil
}

func (b Bar) MarshalJSON() ([]byte, error) {
	if b.raw != nil {
		return b.raw, nil
	}
	type plain Bar
	return json.Marshal(plain(b))
}

// Prediction is one horizon's model output.
type Prediction struct {
	Score           float64 `json:"score"`
	Confidence      float64 `json:"confidence"`
	PredictedReturn float64 `json:"predicted_return"`
	TargetPrice     float64 `json:"target_price"`
}

// PredictionFromMap converts a loosely-typed prediction object; malformed numbers read as 0.
func PredictionFromMap(m map[string]any) Prediction {
	return Prediction{
		Score:           util.FloatDefault(m["score"], 0),
		Confidence:      util.FloatDefault(m["confidence"], 0),
		PredictedReturn: util.FloatDefault(m["predicted_return"], 0),
		TargetPrice:     util.FloatDefault(m["target_price"], 0),
	}
}

// SymbolNode is one instrument's record in the rolling map. Fields owned by other
// collaborators (fundamentals, news caches, ...) ride along in Extra.
type SymbolNode struct {
	Symbol      string
	History     []Bar
	Predictions map[string]json.RawMessage
	Context     *ContextBlock
	Policy      *PolicyBlock
	Sector      string
	Extra       map[string]json.RawMessage
}

func (n *SymbolNode) UnmarshalJSON(data []byte) error {
	var (
		symbol string
		sector string
		hist   []Bar
		preds  map[string]json.RawMessage
		ctx    *ContextBlock
		pol    *PolicyBlock
	)
	extra, err := splitKnown(data, map[string]any{
		"symbol":      &symbol,
		"sector":      &sector,
		"history":     &hist,
		"predictions": &preds,
		"context":     &ctx,
		"policy":      &pol,
	})
	if err != nil {
		return err
	}
	// a known key left in extra failed to decode; drop any partial value
	if _, bad := extra["history"]; bad {
		hist = nil
	}
	if _, bad := extra["context"]; bad {
		ctx = nil
	}
	if _, bad := extra["policy"]; bad {
		pol = nil
	}
	*n = SymbolNode{
		Symbol:      symbol,
		History:     hist,
		Predictions: preds,
		Context:     ctx,
		Policy:      pol,
		Sector:      sector,
		Extra:       extra,
	}
	return nil
}

func (n SymbolNode) MarshalJSON() ([]byte, error) {
	known := map[string]any{"symbol": n.Symbol}
	if n.History != nil {
		known["history"] = n.History
	}
	if n.Predictions != nil {
		known["predictions"] = n.Predictions
	}
	if n.Context != nil {
		known["context"] = n.Context
	}
	if n.Policy != nil {
		known["policy"] = n.Policy
	}
	if n.Sector != "" {
		known["sector"] = n.Sector
	}
	return mergeKnown(n.Extra, known)
}

// PredictionBlocks decodes the known horizons of the node's predictions. Unknown
// horizons and non-object entries are ignored.
func (n *SymbolNode) PredictionBlocks() map[Horizon]Prediction {
	out := make(map[Horizon]Prediction, len(n.Predictions))
	for key, raw := range n.Predictions {
		h, ok := ParseHorizon(key)
		if !ok {
			continue
		}
		m, err := util.DecodeObject(raw)
		if err != nil {
			continue
		}
		out[h] = PredictionFromMap(m)
	}
	return out
}

// ResolveSector returns the node's sector, falling back to fundamentals.sector.
func (n *SymbolNode) ResolveSector() string {
	if n.Sector != "" {
		return n.Sector
	}
	raw, ok := n.Extra["fundamentals"]
	if !ok {
		return ""
	}
	m, err := util.DecodeObject(raw)
	if err != nil {
		return ""
	}
	return util.Str(m["sector"])
}

// NormalizeHistory enforces unique dates (last write wins), ascending order and a
// trailing window of at most max dated bars. Bars without a date cannot be placed in
// the series; they are kept ahead of it in their original order.
func NormalizeHistory(bars []Bar, max int) []Bar {
	if len(bars) == 0 {
		return bars
	}
	var undated []Bar
	byDate := make(map[string]Bar, len(bars))
	for _, b := range bars {
		d := strings.TrimSpace(b.Date)
		if d == "" {
			undated = append(undated, b)
			continue
		}
		b.Date = d
		byDate[d] = b
	}
	dated := make([]Bar, 0, len(byDate))
	for _, b := range byDate {
		dated = append(dated, b)
	}
	sort.Slice(dated, func(i, j int) bool { return dated[i].Date < dated[j].Date })
	if max > 0 && len(dated) > max {
		dated = dated[len(dated)-max:]
	}
	return append(undated, dated...)
}

// DatedHistory is NormalizeHistory without the undated bars: the ordered price series.
func DatedHistory(bars []Bar, max int) []Bar {
	out := NormalizeHistory(bars, max)
	i := 0
	for i < len(out) && strings.TrimSpace(out[i].Date) == "" {
		i++
	}
	return out[i:]
}
