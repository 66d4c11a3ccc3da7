package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/RishiKendai/textmatch/internal/matching"
	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DocumentSource loads stored documents by id.
// Unknown ids yield repository.ErrDocumentNotFound.
type DocumentSource interface {
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
}

// Submitter accepts jobs for asynchronous execution
type Submitter interface {
	Submit(ctx context.Context, job Job) error
}

type DispatcherOptions struct {
	Timeout               time.Duration
	DefaultMinMatchLength int
}

// Dispatcher turns job requests into queued AnalysisJobs
type Dispatcher struct {
	documents DocumentSource
	recorder  Recorder
	pool      Submitter
	opts      DispatcherOptions
}

func NewDispatcher(documents DocumentSource, recorder Recorder, pool Submitter, opts DispatcherOptions) *Dispatcher {
	if opts.DefaultMinMatchLength <= 0 {
		opts.DefaultMinMatchLength = matching.DefaultMinMatchLength
	}
	return &Dispatcher{
		documents: documents,
		recorder:  recorder,
		pool:      pool,
		opts:      opts,
	}
}

// Dispatch validates req, loads both documents, records the job as queued
// and hands it to the pool. A missing job id is generated.
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.JobRequest) (*models.JobRecord, error) {
	algorithm, err := matching.ParseAlgorithm(req.Algorithm)
	if err != nil {
		return nil, err
	}

	minMatchLength := req.MinMatchLength
	if minMatchLength == 0 {
		minMatchLength = d.opts.DefaultMinMatchLength
	}
	if minMatchLength < 0 {
		return nil, fmt.Errorf("%w: got %d", matching.ErrInvalidMatchLength, minMatchLength)
	}

	source, err := d.documents.GetDocumentByID(ctx, req.SourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source document: %w", err)
	}
	target, err := d.documents.GetDocumentByID(ctx, req.TargetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load target document: %w", err)
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}

	record := &models.JobRecord{
		JobID:    jobID,
		SourceID: req.SourceID,
		TargetID: req.TargetID,
	}
	if err := d.recorder.SetStep(ctx, record, models.StepQueued); err != nil {
		return nil, err
	}
	snapshot := *record

	job := &AnalysisJob{
		Record:         record,
		Source:         source.Text,
		Target:         target.Text,
		Algorithm:      algorithm,
		MinMatchLength: minMatchLength,
		Timeout:        d.opts.Timeout,
		Recorder:       d.recorder,
	}
	if err := d.pool.Submit(ctx, job); err != nil {
		record.Step = models.StepFailed
		record.Error = err.Error()
		if ferr := d.recorder.Finish(context.WithoutCancel(ctx), record); ferr != nil {
			log.Error().Err(ferr).Str("jobId", jobID).Msg("Failed to record rejected job")
		}
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}

	log.Info().
		Str("jobId", jobID).
		Str("sourceId", req.SourceID).
		Str("targetId", req.TargetID).
		Str("algorithm", algorithm.Label()).
		Msg("Analysis job queued")

	return &snapshot, nil
}
