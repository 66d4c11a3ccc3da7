package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	defaultMaxRetries   = 3
	defaultInitialDelay = 500 * time.Millisecond
	defaultMaxDelay     = 10 * time.Second
)

var (
	// ErrDeadLettered wraps the processing error of a message that now sits
	// in the dead-letter stream; its stream entry can be acked.
	ErrDeadLettered = errors.New("moved to dead-letter stream")
	// ErrDeadLetterFailed means the dead-letter write itself failed and the
	// entry must stay pending.
	ErrDeadLetterFailed = errors.New("dead-letter write failed")
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryHandler retries failed processing with exponential backoff and moves
// messages that still fail to a dead-letter stream.
type RetryHandler struct {
	client        redis.Cmdable
	deadLetterKey string
	maxRetries    int
	initialDelay  time.Duration
	maxDelay      time.Duration
}

func NewRetryHandler(client redis.Cmdable, deadLetterKey string) *RetryHandler {
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxRetries:    defaultMaxRetries,
		initialDelay:  defaultInitialDelay,
		maxDelay:      defaultMaxDelay,
	}
}

// Backoff returns the delay before retry attempt n (1-based)
func (h *RetryHandler) Backoff(attempt int) time.Duration {
	delay := h.initialDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= h.maxDelay {
			return h.maxDelay
		}
	}
	return delay
}

// RetryWithBackoff runs fn up to maxRetries+1 times. When every attempt
// fails, or fn returns a Permanent error, the message is dead-lettered and
// the last error is returned wrapped in ErrDeadLettered, or in
// ErrDeadLetterFailed when the dead-letter write did not succeed. A
// cancelled ctx returns ctx.Err() and dead-letters nothing.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	var err error
	attempt := 0

	for {
		err = fn()
		if err == nil {
			return nil
		}
		if isPermanent(err) || attempt >= h.maxRetries {
			break
		}

		attempt++
		delay := h.Backoff(attempt)
		log.Warn().
			Err(err).
			Str("message_id", messageID).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Processing failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	if dlqErr := h.sendToDeadLetter(ctx, messageID, fields, err, attempt); dlqErr != nil {
		return fmt.Errorf("%w: %w (%v)", ErrDeadLetterFailed, err, dlqErr)
	}
	return fmt.Errorf("%w: %w", ErrDeadLettered, err)
}

func (h *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error, retries int) error {
	values := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		values[k] = v
	}
	values["original_id"] = messageID
	values["error"] = cause.Error()
	values["retries"] = retries
	values["failed_at"] = time.Now().UTC().Format(time.RFC3339)

	err := h.client.XAdd(ctx, &redis.XAddArgs{
		Stream: h.deadLetterKey,
		Values: values,
	}).Err()
	if err != nil {
		log.Error().Err(err).Str("message_id", messageID).Msg("Failed to move message to dead-letter stream")
		return err
	}

	log.Warn().
		Err(cause).
		Str("message_id", messageID).
		Str("stream", h.deadLetterKey).
		Int("retries", retries).
		Msg("Message moved to dead-letter stream")
	return nil
}
