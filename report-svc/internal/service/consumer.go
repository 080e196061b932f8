package service

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"restaurant-pos/report-svc/internal/domain"
)

type Consumer struct {
	Reader *kafka.Reader
	Store  StoreInterface
}

func NewConsumer(reader *kafka.Reader, store StoreInterface) *Consumer {
	return &Consumer{
		Reader: reader,
		Store:  store,
	}
}

// Start reads floor events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	log.Println("Starting Report Service consumer...")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Report Service consumer stopped")
				return
			}
			log.Printf("Error reading message: %v", err)
			continue
		}

		var event domain.PaymentEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		c.ProcessPayment(ctx, event)
	}
}

func (c *Consumer) ProcessPayment(ctx context.Context, event domain.PaymentEvent) {
	if event.Type != domain.EventPaymentCompleted {
		return
	}
	logger := log.WithFields(log.Fields{"receipt_id": event.ReceiptID, "table_id": event.TableID})

	first, err := c.Store.MarkProcessed(ctx, event.ReceiptID)
	if err != nil {
		logger.WithError(err).Error("Error marking receipt as processed")
		return
	}
	if !first {
		logger.Debug("Skipping already counted receipt")
		return
	}

	date := event.Date()
	if err := c.Store.RecordSale(ctx, date, event.Items, event.GrandTotal); err != nil {
		logger.WithError(err).Error("Error recording sale")
		if err := c.Store.ForgetProcessed(ctx, event.ReceiptID); err != nil {
			logger.WithError(err).Error("Error releasing receipt marker")
		}
		return
	}

	logger.WithField("date", date).Info("Counted payment")
}
