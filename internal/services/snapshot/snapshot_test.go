package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionanalytics/Aion-sub001/pkg/logger"
)

func writeAt(t *testing.T, path, body string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestNewsReaderPicksNewestAndLooksUp(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	writeAt(t, filepath.Join(dir, "news_b.json"), `{"symbols": {"AAPL": {"long_horizon": {"sentiment_mean": -1}}}}`, base)
	writeAt(t, filepath.Join(dir, "news_a.json"), `{"symbols": {
		"aapl": {"long_horizon": {"sentiment_mean": 0.8}, "buzz": {"buzz_count": 12, "buzz_score": 1.5}, "shock": {"score": 2.1, "direction": "UP"}},
		"MSFT": {"long_horizon": {"sentiment_mean": "bad"}}
	}}`, base.Add(time.Hour))

	news := NewNewsReader(dir, "news_", logger.Nop()).Load(context.Background())
	require.True(t, news.Present())
	assert.Equal(t, filepath.Join(dir, "news_a.json"), news.Path())

	got := news.Lookup("AAPL")
	assert.Equal(t, NewsSignal{SentimentMean: 0.8, BuzzCount: 12, BuzzScore: 1.5, ShockScore: 2.1, ShockDirection: "up"}, got)

	assert.Equal(t, NewsSignal{ShockDirection: "neutral"}, news.Lookup("MSFT"))
	assert.Equal(t, NewsSignal{ShockDirection: "neutral"}, news.Lookup("TSLA"))
}

func TestNilSnapshotsAreNeutral(t *testing.T) {
	var news *News
	var social *Social
	assert.False(t, news.Present())
	assert.False(t, social.Present())
	assert.Equal(t, NewsSignal{ShockDirection: "neutral"}, news.Lookup("AAPL"))
	assert.Equal(t, SocialSignal{}, social.Lookup("AAPL"))

	assert.Nil(t, NewNewsReader(t.TempDir(), "news_", logger.Nop()).Load(context.Background()))
	assert.Nil(t, NewSocialReader(filepath.Join(t.TempDir(), "nope"), "social_", logger.Nop()).Load(context.Background()))
}

func TestSocialReaderLookup(t *testing.T) {
	dir := t.TempDir()
	writeAt(t, filepath.Join(dir, "social_2024.json"), `{"data": {
		"AAPL": {"avg_sentiment": 0.4, "sentiment": -0.9, "buzz": 33},
		"TSLA": {"sentiment": -0.2},
		"BAD": 7
	}}`, time.Now())

	social := NewSocialReader(dir, "social_", logger.Nop()).Load(context.Background())
	require.True(t, social.Present())
	assert.Equal(t, SocialSignal{Sentiment: 0.4, Buzz: 33}, social.Lookup("aapl"))
	assert.Equal(t, SocialSignal{Sentiment: -0.2}, social.Lookup("TSLA"))
	assert.Equal(t, SocialSignal{}, social.Lookup("BAD"))
}

func TestMalformedSnapshotIsAbsent(t *testing.T) {
	dir := t.TempDir()
	writeAt(t, filepath.Join(dir, "social_x.json"), `{"rows": []}`, time.Now())
	assert.Nil(t, NewSocialReader(dir, "social_", logger.Nop()).Load(context.Background()))
}
