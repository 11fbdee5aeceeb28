package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
)

const rollingFixture = `{
  "aapl": {
    "symbol": "AAPL",
    "history": [
      {"date": "2024-01-03", "close": 3},
      {"date": "2024-01-01", "close": 1},
      {"date": "2024-01-02", "close": 2},
      {"date": "2024-01-03", "close": 4}
    ],
    "fundamentals": {"sector": "Technology", "pe": 31.2},
    "policy": {"exposure_scale": 1, "notes": "keep me"}
  },
  "_meta": {"owner": "brain"},
  "BROKEN": "not an object"
}`

func TestFileRollingStoreMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := NewFileRollingStore(filepath.Join(dir, "missing.json"), 750, logger.Nop())
	r := s.Read(ctx)
	require.NotNil(t, r)
	assert.Empty(t, r.Symbols)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	bs := NewFileRollingStore(bad, 750, logger.Nop())
	bs.(*FileRollingStore).now = func() time.Time { return time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC) }
	r = bs.Read(ctx)
	require.NotNil(t, r)
	assert.Empty(t, r.Symbols)

	aside, err := os.ReadFile(bad + ".corrupt-20240510T083000Z")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(aside))
	_, err = os.Stat(bad)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, bs.Save(ctx, r))
	aside, err = os.ReadFile(bad + ".corrupt-20240510T083000Z")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(aside))
}

func TestFileRollingStoreKeepsBarFieldsVerbatim(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rolling.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"AAPL":{"history":[
		{"date":"2024-01-01","close":1,"adj_close":0.98,"vwap":1.01},
		{"date":"","close":7,"note":"undated"}
	]}}`), 0o644))

	s := NewFileRollingStore(path, 750, logger.Nop())
	require.NoError(t, s.Save(ctx, s.Read(ctx)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var back map[string]struct {
		History []map[string]any `json:"history"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	hist := back["AAPL"].History
	require.Len(t, hist, 2)
	assert.Equal(t, map[string]any{"date": "", "close": 7.0, "note": "undated"}, hist[0])
	assert.Equal(t, map[string]any{"date": "2024-01-01", "close": 1.0, "adj_close": 0.98, "vwap": 1.01}, hist[1])
	assert.NotContains(t, hist[1], "open")
}

func TestFileRollingStoreRoundTripPreservesUnknownFields(t *testing.T) {
	for _, name := range []string{"rolling.json", "rolling.json.gz"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), name)

			var seed models.Rolling
			require.NoError(t, json.Unmarshal([]byte(rollingFixture), &seed))
			s := NewFileRollingStore(path, 2, logger.Nop())
			require.NoError(t, s.Save(ctx, &seed))

			got := s.Read(ctx)
			node := got.Symbols["AAPL"]
			require.NotNil(t, node)

			// deduped, ascending, capped to the window
			require.Len(t, node.History, 2)
			assert.Equal(t, "2024-01-02", node.History[0].Date)
			assert.Equal(t, "2024-01-03", node.History[1].Date)
			assert.Equal(t, 4.0, node.History[1].Close)

			assert.Equal(t, "Technology", node.ResolveSector())
			require.NotNil(t, node.Policy)
			assert.JSONEq(t, `"keep me"`, string(node.Policy.Extra["notes"]))
			assert.JSONEq(t, `{"owner":"brain"}`, string(got.Other["_meta"]))
			assert.JSONEq(t, `"not an object"`, string(got.Other["BROKEN"]))
		})
	}
}

func TestFileRollingStoreGzipOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rolling.json.gz")
	s := NewFileRollingStore(path, 750, logger.Nop())
	require.NoError(t, s.Save(context.Background(), models.NewRolling()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, gzipMagic, b[:2])
}

func TestRedisRollingStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisRollingStore(client, "aion:rolling", 750, logger.Nop())
	assert.Empty(t, s.Read(ctx).Symbols)

	var seed models.Rolling
	require.NoError(t, json.Unmarshal([]byte(rollingFixture), &seed))
	require.NoError(t, s.Save(ctx, &seed))
	assert.True(t, mr.Exists("aion:rolling"))

	got := s.Read(ctx)
	require.Contains(t, got.Symbols, "AAPL")
	assert.Len(t, got.Symbols["AAPL"].History, 3)

	require.NoError(t, mr.Set("aion:rolling", "garbage"))
	assert.Empty(t, s.Read(ctx).Symbols)
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "global.json")
	require.NoError(t, WriteJSONAtomic(path, models.GlobalState{RunID: "r1", HasNews: true}))

	var g models.GlobalState
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &g))
	assert.Equal(t, "r1", g.RunID)
	assert.True(t, g.HasNews)
}
