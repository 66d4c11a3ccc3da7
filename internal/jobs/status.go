package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	jobKeyPrefix  = "textmatch:job:"
	DefaultJobTTL = 12 * time.Hour
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrUnknownStep = errors.New("unknown step")
)

var validSteps = map[models.Step]bool{
	models.StepIdle:      true,
	models.StepQueued:    true,
	models.StepStarted:   true,
	models.StepAnalyzing: true,
	models.StepCompleted: true,
	models.StepFailed:    true,
}

// Recorder publishes the progress of a job
type Recorder interface {
	SetStep(ctx context.Context, record *models.JobRecord, step models.Step) error
	Finish(ctx context.Context, record *models.JobRecord) error
}

// Store keeps job records in Redis for a bounded time. Records are a
// hand-off for pollers, not an archive: they expire after ttl.
type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func jobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

// SetStep moves the record to step and saves it
func (s *Store) SetStep(ctx context.Context, record *models.JobRecord, step models.Step) error {
	if !validSteps[step] {
		return fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	record.Step = step

	if err := s.save(ctx, record); err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("jobId", record.JobID).
			Msg("Failed to update job status in Redis")
		return err
	}

	log.Trace().
		Str("step", string(step)).
		Str("jobId", record.JobID).
		Msg("Job status updated")

	return nil
}

// Finish saves a terminal record, completed or failed
func (s *Store) Finish(ctx context.Context, record *models.JobRecord) error {
	if record.Step != models.StepCompleted && record.Step != models.StepFailed {
		return fmt.Errorf("job %s is not finished: %s", record.JobID, record.Step)
	}
	return s.save(ctx, record)
}

func (s *Store) save(ctx context.Context, record *models.JobRecord) error {
	record.UpdatedAt = time.Now().UTC()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}

	if err := s.rdb.Set(ctx, jobKey(record.JobID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job record: %w", err)
	}
	return nil
}

// Get returns the stored record for jobID
func (s *Store) Get(ctx context.Context, jobID string) (*models.JobRecord, error) {
	payload, err := s.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job record: %w", err)
	}

	var record models.JobRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job record: %w", err)
	}
	return &record, nil
}
