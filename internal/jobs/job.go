package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/textmatch/internal/matching"
	"github.com/RishiKendai/textmatch/internal/metrics"
	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/rs/zerolog/log"
)

var ErrComputationTimeout = errors.New("analysis timed out")

// analyze is the engine entry point; tests swap it for a controllable stub
var analyze = matching.Analyze

// AnalysisJob compares two document texts and publishes the outcome
type AnalysisJob struct {
	Record         *models.JobRecord
	Source         string
	Target         string
	Algorithm      matching.Algorithm
	MinMatchLength int
	Timeout        time.Duration
	Recorder       Recorder
}

type analysisOutcome struct {
	result *models.AnalysisResult
	err    error
}

// Execute runs the engine in its own goroutine. When the timeout or ctx
// fires first the job is recorded as failed straight away and the result
// discarded, but Execute only returns once the engine goroutine has ended,
// so a worker never has more than one run going.
func (j *AnalysisJob) Execute(ctx context.Context) error {
	metrics.JobsInFlight.Inc()
	defer metrics.JobsInFlight.Dec()

	if err := j.Recorder.SetStep(ctx, j.Record, models.StepStarted); err != nil {
		return err
	}

	runCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	if err := j.Recorder.SetStep(runCtx, j.Record, models.StepAnalyzing); err != nil {
		return err
	}

	done := make(chan analysisOutcome, 1)
	go func() {
		result, err := analyze(j.Source, j.Target, j.Algorithm, j.MinMatchLength)
		done <- analysisOutcome{result: result, err: err}
	}()

	var outcome analysisOutcome
	select {
	case outcome = <-done:
	case <-runCtx.Done():
		outcome.err = ErrComputationTimeout
		if ctx.Err() != nil {
			outcome.err = ctx.Err()
		}
		started := time.Now()
		defer func() {
			<-done
			log.Debug().
				Str("jobId", j.Record.JobID).
				Dur("overrun", time.Since(started)).
				Msg("Abandoned analysis run ended")
		}()
	}

	var timeTaken, percentage float64
	if outcome.result != nil {
		timeTaken = outcome.result.TimeTaken
		percentage = outcome.result.PlagiarismPercentage
	}
	metrics.ObserveAnalysis(j.Algorithm.Label(), timeTaken, percentage, outcome.err)

	// The finishing write gets its own deadline so a timed-out run is still recorded.
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if outcome.err != nil {
		j.Record.Step = models.StepFailed
		j.Record.Error = outcome.err.Error()
		if err := j.Recorder.Finish(finishCtx, j.Record); err != nil {
			return fmt.Errorf("failed to record failure: %w", err)
		}
		log.Warn().Err(outcome.err).Str("jobId", j.Record.JobID).Msg("Analysis job failed")
		return outcome.err
	}

	verdict := matching.GetVerdict(outcome.result.PlagiarismPercentage)
	j.Record.Step = models.StepCompleted
	j.Record.Result = outcome.result
	j.Record.Verdict = &verdict
	if err := j.Recorder.Finish(finishCtx, j.Record); err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}

	log.Info().
		Str("jobId", j.Record.JobID).
		Str("algorithm", outcome.result.Algorithm).
		Float64("percentage", outcome.result.PlagiarismPercentage).
		Int("matches", len(outcome.result.Matches)).
		Msg("Analysis job completed")

	return nil
}
