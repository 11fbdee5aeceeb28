package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	pkgkafka "github.com/aionanalytics/Aion-sub001/pkg/kafka"
)

type fakeProducer struct {
	single  []string
	batches map[string][]pkgkafka.Message
	fail    int
	calls   int
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, _ interface{}) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("broker unavailable")
	}
	f.single = append(f.single, topic+"/"+string(key))
	return nil
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, msgs []pkgkafka.Message) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("broker unavailable")
	}
	if f.batches == nil {
		f.batches = make(map[string][]pkgkafka.Message)
	}
	f.batches[topic] = append(f.batches[topic], msgs...)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaDirectivePublisherOrdersAndKeysBySymbol(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaDirectivePublisher(fp, "regime", "policy")
	ctx := context.Background()

	require.NoError(t, p.PublishRegime(ctx, models.RegimeResult{Label: models.RegimeBull, Confidence: 0.7}))
	assert.Equal(t, []string{"regime/bull"}, fp.single)

	require.NoError(t, p.PublishPolicies(ctx, map[string]models.PolicyBlock{
		"MSFT": {ExposureScale: 0.9},
		"AAPL": {ExposureScale: 1.1, TradeGate: true},
	}))
	msgs := fp.batches["policy"]
	require.Len(t, msgs, 2)
	assert.Equal(t, "AAPL", string(msgs[0].Key))
	assert.Equal(t, "MSFT", string(msgs[1].Key))

	require.NoError(t, p.PublishPolicies(ctx, nil))
}

func TestKafkaDirectivePublisherRetries(t *testing.T) {
	fp := &fakeProducer{fail: 1}
	p := NewKafkaDirectivePublisher(fp, "regime", "policy")
	require.NoError(t, p.PublishRegime(context.Background(), models.RegimeResult{Label: models.RegimeChop}))
	assert.Equal(t, 2, fp.calls)
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.PublishRegime(context.Background(), models.RegimeResult{}))
	assert.NoError(t, p.PublishPolicies(context.Background(), map[string]models.PolicyBlock{"A": {}}))
	assert.NoError(t, p.Close())
}
