package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pictor-cli/internal/domain"
	"pictor-cli/internal/ports"
)

// Poller drives one job from submission to a terminal state by repeatedly
// fetching the project's job-list snapshot. Three conditions share the same
// retry budget because all three are transient upstream-consistency states:
// the job not yet appearing in the list, the job present but pending, and
// the job complete but its artifact not yet fetchable. An explicit error
// field on the job is authoritative and short-circuits immediately.
type Poller struct {
	client      ports.PictorClient
	maxAttempts int
	interval    time.Duration
	logger      *zap.Logger
}

// NewPoller constructs a Poller with the given attempt cap and inter-attempt
// interval.
func NewPoller(client ports.PictorClient, maxAttempts int, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{client: client, maxAttempts: maxAttempts, interval: interval, logger: logger}
}

// Await polls until the job identified by generationID reaches a terminal
// state or the attempt budget runs out. A failed job-list fetch terminates
// the loop abnormally — it is a transport problem, not a polling attempt.
// A failed artifact fetch is the one failure deliberately absorbed into the
// retry budget: from the artifact store's perspective the job is still in
// flight.
func (p *Poller) Await(ctx context.Context, projectID, generationID string) (domain.PollResult, error) {
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		jobs, err := p.client.ListJobs(ctx, projectID)
		if err != nil {
			return domain.PollResult{}, domain.EnsureKnown(err, "Poll")
		}

		job, found := findJob(jobs, generationID)
		switch {
		case !found:
			p.logger.Debug("job not yet visible",
				zap.String("generation_id", generationID), zap.Int("attempt", attempt))
		case job.Error != "":
			return domain.PollResult{}, domain.NewError(domain.KindGeneration,
				fmt.Sprintf("generation failed: %s", job.Error)).WithOp("Poll")
		case job.Output != "":
			uri, err := p.client.FetchArtifact(ctx, projectID, job.Output)
			if err == nil {
				seed := domain.SeedUnspecified
				if job.HasSeed {
					seed = job.Seed
				}
				return domain.PollResult{ArtifactRefs: []string{uri}, Seed: seed}, nil
			}
			p.logger.Warn("artifact not yet fetchable, consuming one attempt",
				zap.String("generation_id", generationID), zap.Int("attempt", attempt), zap.Error(err))
		default:
			p.logger.Debug("job still processing",
				zap.String("generation_id", generationID), zap.Int("attempt", attempt))
		}

		if err := sleep(ctx, p.interval); err != nil {
			return domain.PollResult{}, domain.EnsureKnown(err, "Poll")
		}
	}
	return domain.PollResult{}, domain.NewError(domain.KindPolling,
		fmt.Sprintf("no result after %d polling attempts", p.maxAttempts))
}

func findJob(jobs []domain.JobSnapshot, generationID string) (domain.JobSnapshot, bool) {
	for _, job := range jobs {
		if job.ID == generationID {
			return job, true
		}
	}
	return domain.JobSnapshot{}, false
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
