package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/textmatch/internal/matching"
	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/RishiKendai/textmatch/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	readBatch    = 10
	readBlock    = time.Second
	claimBatch   = 100
	claimMinIdle = time.Minute
	claimEvery   = 30 * time.Second
	trimEvery    = time.Hour
	readBackoff  = time.Second
)

// Dispatcher queues analysis requests
type Dispatcher interface {
	Dispatch(ctx context.Context, req *models.JobRequest) (*models.JobRecord, error)
}

// Consumer reads analysis submissions from a Redis stream through a
// consumer group and hands them to a Dispatcher. An entry is acked once it
// is queued or safely dead-lettered; anything else stays in the group's
// pending list and is reclaimed after claimMinIdle.
type Consumer struct {
	client     redis.Cmdable
	streamKey  string
	group      string
	name       string
	dispatcher Dispatcher
	retry      *RetryHandler
	retention  time.Duration
	lastClaim  time.Time
}

func NewConsumer(
	client redis.Cmdable,
	streamKey string,
	group string,
	name string,
	dispatcher Dispatcher,
	retry *RetryHandler,
	retention time.Duration,
) *Consumer {
	return &Consumer{
		client:     client,
		streamKey:  streamKey,
		group:      group,
		name:       name,
		dispatcher: dispatcher,
		retry:      retry,
		retention:  retention,
	}
}

// Start blocks until ctx is cancelled
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		log.Warn().Err(err).Str("group", c.group).Msg("Could not create consumer group")
	}

	// entries left pending by a previous run of this group
	c.reclaim(ctx)

	go c.trimLoop(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if time.Since(c.lastClaim) >= claimEvery {
			c.reclaim(ctx)
		}

		if err := c.read(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("stream", c.streamKey).Msg("Stream read failed")
			select {
			case <-ctx.Done():
			case <-time.After(readBackoff):
			}
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	// "$" so a new group starts with submissions made after it exists
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	if err == nil {
		log.Info().Str("group", c.group).Str("stream", c.streamKey).Msg("Created consumer group")
	}
	return nil
}

// reclaim takes over entries idle in the pending list and processes them again
func (c *Consumer) reclaim(ctx context.Context) {
	c.lastClaim = time.Now()

	start := "0-0"
	for {
		messages, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.streamKey,
			Group:    c.group,
			Consumer: c.name,
			MinIdle:  claimMinIdle,
			Start:    start,
			Count:    claimBatch,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Str("stream", c.streamKey).Msg("Could not reclaim pending entries")
			}
			return
		}

		if len(messages) > 0 {
			log.Info().Int("count", len(messages)).Msg("Reclaimed pending stream entries")
		}
		for i := range messages {
			c.handle(ctx, &messages[i])
		}

		if next == "" || next == "0-0" || ctx.Err() != nil {
			return
		}
		start = next
	}
}

func (c *Consumer) read(ctx context.Context) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.streamKey, ">"},
		Count:    readBatch,
		Block:    readBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, s := range streams {
		if s.Stream != c.streamKey {
			continue
		}
		for i := range s.Messages {
			c.handle(ctx, &s.Messages[i])
		}
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg *redis.XMessage) {
	if err := c.processMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Stream submission not queued")
	}
}

// processMessage dispatches one entry. Transient failures are retried;
// malformed entries and request errors go straight to the dead-letter
// stream. The entry is acked only when it was queued or dead-lettered.
func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	fields := make(map[string]string, len(msg.Values))
	raw := make(map[string]interface{}, len(msg.Values))
	for key, val := range msg.Values {
		if s, ok := val.(string); ok {
			fields[key] = s
		}
		raw[key] = val
	}

	var record *models.JobRecord
	err := c.retry.RetryWithBackoff(ctx, func() error {
		submission, perr := ParseSubmission(&StreamMessage{ID: msg.ID, Fields: fields})
		if perr != nil {
			return Permanent(perr)
		}

		var derr error
		record, derr = c.dispatcher.Dispatch(ctx, submission.JobRequest())
		if isRequestError(derr) {
			return Permanent(derr)
		}
		return derr
	}, msg.ID, raw)

	switch {
	case err == nil:
		log.Info().Str("message_id", msg.ID).Str("jobId", record.JobID).Msg("Stream submission queued")
		return c.ack(ctx, msg.ID)
	case errors.Is(err, ErrDeadLettered):
		if ackErr := c.ack(ctx, msg.ID); ackErr != nil {
			log.Warn().Err(ackErr).Str("message_id", msg.ID).Msg("Dead-lettered entry left pending")
		}
		return err
	default:
		// not dead-lettered; reclaim will replay it
		return err
	}
}

func (c *Consumer) ack(ctx context.Context, id string) error {
	if err := c.client.XAck(ctx, c.streamKey, c.group, id).Err(); err != nil {
		return fmt.Errorf("failed to ack %s: %w", id, err)
	}
	log.Debug().Str("message_id", id).Msg("Stream entry acked")
	return nil
}

// trim drops stream entries older than the retention window
func (c *Consumer) trim(ctx context.Context) error {
	cutoff := time.Now().Add(-c.retention)
	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, fmt.Sprintf("%d-0", cutoff.UnixMilli())).Result()
	if err != nil {
		return fmt.Errorf("failed to trim stream: %w", err)
	}
	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Time("cutoff", cutoff).
			Msg("Trimmed expired stream entries")
	}
	return nil
}

func (c *Consumer) trimLoop(ctx context.Context) {
	ticker := time.NewTicker(trimEvery)
	defer ticker.Stop()

	for {
		if err := c.trim(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Str("stream", c.streamKey).Msg("Stream trim failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// isRequestError reports failures that retrying cannot fix
func isRequestError(err error) bool {
	return errors.Is(err, matching.ErrUnknownAlgorithm) ||
		errors.Is(err, matching.ErrInvalidMatchLength) ||
		errors.Is(err, repository.ErrDocumentNotFound)
}
