package consumer

import (
	"Jarvis_Memory/backend/go/internal/database/kafka"
	"Jarvis_Memory/backend/go/internal/memory/service"
	"Jarvis_Memory/backend/go/internal/models"
	"Jarvis_Memory/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
)

// KafkaConsumer consumes extraction batches from a Kafka topic and
// feeds them to the MemoryService. The extractor publishes one batch
// per processed conversation turn; the offset is committed only after
// the whole batch has been handled, so a crash replays the batch and
// the duplicate resolver absorbs the replay.
type KafkaConsumer struct {
	kafkaClient   *kafka.KafkaClient
	memoryService *service.MemoryService
	logger        *logger.Logger
}

// NewKafkaConsumer creates a new KafkaConsumer.
func NewKafkaConsumer(kafkaClient *kafka.KafkaClient, memoryService *service.MemoryService, logger *logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		kafkaClient:   kafkaClient,
		memoryService: memoryService,
		logger:        logger,
	}
}

// Start runs the consume loop in a goroutine until ctx is cancelled.
func (c *KafkaConsumer) Start(ctx context.Context) {
	go func() {
		for {
			msg, err := c.kafkaClient.Reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to fetch message")
				continue
			}

			var batch models.ExtractionBatch
			if err := json.Unmarshal(msg.Value, &batch); err != nil {
				// Malformed messages are skipped, not retried forever.
				c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to unmarshal extraction batch")
				c.commit(ctx, msg)
				continue
			}

			results, err := c.memoryService.StoreFactsBatch(ctx, &batch)
			if err != nil {
				// Guard rejections are terminal for the batch: no retry
				// will make a malformed user id valid.
				c.logger.WithUser(batch.UserID).WithError(models.ErrorInfo{Message: err.Error()}).Error("batch rejected")
				c.commit(ctx, msg)
				continue
			}
			c.logOutcomes(batch.UserID, results)
			c.commit(ctx, msg)
		}
	}()
}

func (c *KafkaConsumer) commit(ctx context.Context, msg kafkago.Message) {
	if err := c.kafkaClient.Reader.CommitMessages(ctx, msg); err != nil {
		c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("failed to commit message")
	}
}

func (c *KafkaConsumer) logOutcomes(userID string, results []*models.StorageResult) {
	stored, failed := 0, 0
	for _, result := range results {
		if result == nil {
			continue
		}
		if result.Status == models.StatusFailed {
			failed++
			continue
		}
		stored++
	}
	entry := c.logger.WithUser(userID).WithPayload(map[string]interface{}{
		"stored": stored,
		"failed": failed,
	})
	if failed > 0 {
		entry.Warn(fmt.Sprintf("extraction batch processed with %d failures", failed))
		return
	}
	entry.Info("extraction batch processed")
}
