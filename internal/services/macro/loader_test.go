package macro

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionanalytics/Aion-sub001/pkg/cache"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/logger"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	dir string
	cfg config.MacroConfig
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default().Macro
	cfg.MarketStatePath = filepath.Join(dir, "market_state.json")
	cfg.MacroStatePath = filepath.Join(dir, "macro_state.json")
	cfg.Dir = filepath.Join(dir, "macro")
	return fixture{dir: dir, cfg: cfg}
}

func (f fixture) write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func (f fixture) loader(c cache.Service) *Loader {
	return NewLoader(f.cfg, logger.Nop(), WithCache(c), WithClock(func() time.Time { return testNow }))
}

func TestLoaderPrefersFreshPrimary(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.cfg.MarketStatePath, `{"vix": 18, "spy_pct": 0.5, "breadth": 0.2, "generated_at": "2024-05-09T12:00:00Z"}`)
	f.write(t, f.cfg.MacroStatePath, `{"vix": 40}`)

	res := f.loader(nil).Load(context.Background())
	require.False(t, res.Empty())
	assert.False(t, res.FromCache)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, SourceMarketState, res.Snapshot.Source)
	assert.InDelta(t, 0.005, res.Snapshot.SPYPct, 1e-12)
}

func TestLoaderFallsBackThroughChain(t *testing.T) {
	f := newFixture(t)
	// stale primary
	f.write(t, f.cfg.MarketStatePath, `{"vix": 18, "generated_at": "2024-05-01T00:00:00Z"}`)
	// degenerate secondary
	f.write(t, f.cfg.MacroStatePath, `{"vix": 0, "spy_pct": 0, "breadth": 0}`)
	f.write(t, filepath.Join(f.cfg.Dir, "macro_2024-05-08.json"), `{"vix": 21}`)
	f.write(t, filepath.Join(f.cfg.Dir, "macro_2024-05-09.json"), `{"vix": 22, "spy_pct": 0.02}`)

	res := f.loader(nil).Load(context.Background())
	require.False(t, res.Empty())
	assert.Equal(t, SourceMacroDir, res.Snapshot.Source)
	assert.Equal(t, 22.0, res.Snapshot.VIX)
	assert.Equal(t, 0.02, res.Snapshot.SPYPct)
}

func TestLoaderAllMissingReturnsEmptyWithDiagnostics(t *testing.T) {
	f := newFixture(t)
	res := f.loader(nil).Load(context.Background())
	assert.True(t, res.Empty())
	require.Len(t, res.Diagnostics, 3)
	for _, d := range res.Diagnostics {
		assert.False(t, d.Loaded)
		assert.NotEmpty(t, d.Error)
	}
}

func TestLoaderReturnsLastGoodAfterConsecutiveFailures(t *testing.T) {
	f := newFixture(t)
	mc := cache.NewMemoryCache()
	defer mc.Close()
	l := f.loader(mc)

	f.write(t, f.cfg.MarketStatePath, `{"vix": 19.5, "spy_pct": 0.01, "breadth": 0.15, "generated_at": "2024-05-10T09:00:00Z"}`)
	first := l.Load(context.Background())
	require.False(t, first.Empty())
	good := *first.Snapshot

	// stale primary
	f.write(t, f.cfg.MarketStatePath, `{"vix": 35, "spy_pct": -0.03, "breadth": -0.4, "generated_at": "2024-04-01T00:00:00Z"}`)
	// degenerate secondary
	f.write(t, f.cfg.MacroStatePath, `{"vix": 0}`)

	for i := 0; i < 2; i++ {
		res := l.Load(context.Background())
		require.False(t, res.Empty())
		assert.True(t, res.FromCache)
		require.Len(t, res.Diagnostics, 3)
		assert.True(t, res.Diagnostics[0].Sane)
		assert.False(t, res.Diagnostics[0].Fresh)
		assert.False(t, res.Diagnostics[1].Sane)

		got := *res.Snapshot
		assert.True(t, good.GeneratedAt.Equal(got.GeneratedAt))
		got.GeneratedAt = good.GeneratedAt
		assert.Equal(t, good, got)
	}
}

func TestLoaderFallsBackToModTimeForFreshness(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.cfg.MarketStatePath, `{"vix": 18}`)
	old := testNow.Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(f.cfg.MarketStatePath, old, old))

	res := f.loader(nil).Load(context.Background())
	assert.True(t, res.Empty())
	require.NotEmpty(t, res.Diagnostics)
	assert.InDelta(t, 10, res.Diagnostics[0].AgeDays, 0.01)
}

func TestLoaderLastGoodSurvivesAcrossRuns(t *testing.T) {
	f := newFixture(t)
	cachePath := filepath.Join(f.dir, "macro_last_good.json")

	f.write(t, f.cfg.MarketStatePath, `{"vix": 19.5, "spy_pct": 0.01, "breadth": 0.15, "generated_at": "2024-05-10T09:00:00Z"}`)
	first := f.loader(cache.NewFileCache(cachePath)).Load(context.Background())
	require.False(t, first.Empty())
	require.False(t, first.FromCache)

	require.NoError(t, os.Remove(f.cfg.MarketStatePath))
	f.write(t, f.cfg.MacroStatePath, `{"vix": 0}`)

	for i := 0; i < 2; i++ {
		res := f.loader(cache.NewFileCache(cachePath)).Load(context.Background())
		require.False(t, res.Empty())
		assert.True(t, res.FromCache)
		assert.Len(t, res.Diagnostics, 3)
		assert.Equal(t, SourceMarketState, res.Snapshot.Source)
		assert.Equal(t, 19.5, res.Snapshot.VIX)
		assert.Equal(t, 0.01, res.Snapshot.SPYPct)
		assert.True(t, first.Snapshot.GeneratedAt.Equal(res.Snapshot.GeneratedAt))
	}
}
