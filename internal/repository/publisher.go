package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aionanalytics/Aion-sub001/internal/domain/models"
	"github.com/aionanalytics/Aion-sub001/internal/domain/repository"
	pkgkafka "github.com/aionanalytics/Aion-sub001/pkg/kafka"
)

// Producer is the subset of pkg/kafka.Producer used for publishing.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaDirectivePublisher implements Publisher for Kafka. Writes go through a circuit
// breaker and are retried with backoff.
type KafkaDirectivePublisher struct {
	producer    Producer
	regimeTopic string
	policyTopic string
	breaker     *gobreaker.CircuitBreaker
}

// NewKafkaDirectivePublisher creates Kafka publisher.
func NewKafkaDirectivePublisher(producer Producer, regimeTopic, policyTopic string) repository.Publisher {
	st := gobreaker.Settings{
		Name:     "kafka-directives",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &KafkaDirectivePublisher{
		producer:    producer,
		regimeTopic: regimeTopic,
		policyTopic: policyTopic,
		breaker:     gobreaker.NewCircuitBreaker(st),
	}
}

type policyMessage struct {
	Symbol string             `json:"symbol"`
	Policy models.PolicyBlock `json:"policy"`
}

func (p *KafkaDirectivePublisher) PublishRegime(ctx context.Context, r models.RegimeResult) error {
	return p.send(ctx, func() error {
		return p.producer.Publish(ctx, p.regimeTopic, []byte(r.Label), r)
	})
}

// PublishPolicies sends one message per symbol, keyed by symbol, in symbol order.
func (p *KafkaDirectivePublisher) PublishPolicies(ctx context.Context, policies map[string]models.PolicyBlock) error {
	if len(policies) == 0 {
		return nil
	}
	symbols := make([]string, 0, len(policies))
	for sym := range policies {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	msgs := make([]pkgkafka.Message, len(symbols))
	for i, sym := range symbols {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(sym),
			Value: policyMessage{Symbol: sym, Policy: policies[sym]},
		}
	}
	return p.send(ctx, func() error {
		return p.producer.PublishBatch(ctx, p.policyTopic, msgs)
	})
}

func (p *KafkaDirectivePublisher) send(ctx context.Context, op func() error) error {
	err := retry(ctx, 2, func() error {
		_, err := p.breaker.Execute(func() (interface{}, error) {
			return nil, op()
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (p *KafkaDirectivePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher discards everything; used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishRegime(context.Context, models.RegimeResult) error { return nil }

func (NoopPublisher) PublishPolicies(context.Context, map[string]models.PolicyBlock) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
