package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"
)

const (
	// CatalogTopic carries deferred book availability writes that failed
	// against the catalog store and must be re-applied.
	CatalogTopic = "catalog"
	// LoanEventsTopic carries loan lifecycle events (borrowed/returned/renewed).
	LoanEventsTopic = "loan-events"

	CatalogConsumerGroup = "lending-catalog"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

type Enqueuer struct {
	producer sarama.SyncProducer
}

func NewEnqueuer(producer sarama.SyncProducer) *Enqueuer {
	return &Enqueuer{producer: producer}
}

func (q *Enqueuer) Enqueue(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.StringEncoder(data)}
	if _, _, err = q.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}

// Consume runs the consumer group loop until the group is closed.
func Consume(cg sarama.ConsumerGroup, h sarama.ConsumerGroupHandler, topics ...string) {
	ctx := context.Background()
	for {
		if err := cg.Consume(ctx, topics, h); err != nil {
			if err == sarama.ErrClosedConsumerGroup {
				return
			}
			log.Printf("kafka consume: %v", err)
		}
	}
}
