package handler

import (
	"context"
	"encoding/json"

	"github.com/bookhive/lending-service/internal/model"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type setBookStatus func(ctx context.Context, bookUid string, status model.BookStatus) error

// Consumer re-applies deferred catalog availability writes from the broker.
type Consumer struct {
	setBookStatusHandler setBookStatus
	log                  *zap.Logger
	ready                chan bool
}

func NewConsumer(setBookStatus setBookStatus, log *zap.Logger) *Consumer {
	return &Consumer{
		setBookStatusHandler: setBookStatus,
		log:                  log.Named("consumer"),
		ready:                make(chan bool),
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	// Mark the consumer as ready
	close(consumer.ready)
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var req model.SetBookStatus
			if err := json.Unmarshal(message.Value, &req); err != nil {
				consumer.log.Error("unmarshal", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.setBookStatusHandler(context.Background(), req.BookUid, req.Status); err != nil {
				consumer.log.Error("consumer.setBookStatusHandler", zap.Error(err))
				continue
			}

			consumer.log.Debug("message claimed",
				zap.String("value", string(message.Value)),
				zap.Time("timestamp", message.Timestamp),
				zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
