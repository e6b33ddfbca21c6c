package service_test

import (
	"context"
	"sync"

	"pictor-cli/internal/domain"
)

// fakePictorClient implements ports.PictorClient for testing the service
// layer at the port boundary. We stub only the port — never internal
// collaborators. Function fields override the happy-path defaults; the
// fake is safe for concurrent pipelines.
type fakePictorClient struct {
	mu sync.Mutex

	listProjectsFn   func(ctx context.Context) ([]domain.Project, error)
	resolveProjectFn func(ctx context.Context) (string, error)
	createFn         func(ctx context.Context, projectID string, sub domain.Submission) (string, error)
	listJobsFn       func(ctx context.Context, projectID string) ([]domain.JobSnapshot, error)
	fetchFn          func(ctx context.Context, projectID, imageID string) (string, error)
	expandFn         func(ctx context.Context, projectID, prompt string, variants int) ([]string, error)
	chatFn           func(ctx context.Context, projectID string, turns []domain.ChatTurn) (string, error)

	// Recorded calls, guarded by mu.
	submissions  []domain.Submission
	listJobCalls int
	fetchCalls   int
	expandCalls  int
}

func (f *fakePictorClient) ListProjects(ctx context.Context) ([]domain.Project, error) {
	if f.listProjectsFn != nil {
		return f.listProjectsFn(ctx)
	}
	return []domain.Project{{ID: "proj-test", Name: "Test"}}, nil
}

func (f *fakePictorClient) ResolveProject(ctx context.Context) (string, error) {
	if f.resolveProjectFn != nil {
		return f.resolveProjectFn(ctx)
	}
	return "proj-test", nil
}

func (f *fakePictorClient) CreateGeneration(ctx context.Context, projectID string, sub domain.Submission) (string, error) {
	f.mu.Lock()
	f.submissions = append(f.submissions, sub)
	f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(ctx, projectID, sub)
	}
	return "gen-" + sub.Caption, nil
}

func (f *fakePictorClient) ListJobs(ctx context.Context, projectID string) ([]domain.JobSnapshot, error) {
	f.mu.Lock()
	f.listJobCalls++
	f.mu.Unlock()
	if f.listJobsFn != nil {
		return f.listJobsFn(ctx, projectID)
	}
	// By default every submitted job is already complete.
	f.mu.Lock()
	defer f.mu.Unlock()
	var jobs []domain.JobSnapshot
	for _, sub := range f.submissions {
		jobs = append(jobs, domain.JobSnapshot{
			ID:      "gen-" + sub.Caption,
			Output:  "img-" + sub.Caption,
			Seed:    sub.Seed,
			HasSeed: true,
		})
	}
	return jobs, nil
}

func (f *fakePictorClient) FetchArtifact(ctx context.Context, projectID, imageID string) (string, error) {
	f.mu.Lock()
	f.fetchCalls++
	f.mu.Unlock()
	if f.fetchFn != nil {
		return f.fetchFn(ctx, projectID, imageID)
	}
	return domain.EncodeDataURL("image/png", []byte(imageID)), nil
}

func (f *fakePictorClient) ExpandPrompt(ctx context.Context, projectID, prompt string, variants int) ([]string, error) {
	f.mu.Lock()
	f.expandCalls++
	f.mu.Unlock()
	if f.expandFn != nil {
		return f.expandFn(ctx, projectID, prompt, variants)
	}
	return nil, domain.NewError(domain.KindAPI, "prompt expansion unavailable")
}

func (f *fakePictorClient) Chat(ctx context.Context, projectID string, turns []domain.ChatTurn) (string, error) {
	if f.chatFn != nil {
		return f.chatFn(ctx, projectID, turns)
	}
	return "edited caption", nil
}

func (f *fakePictorClient) recordedSubmissions() []domain.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Submission(nil), f.submissions...)
}

func (f *fakePictorClient) recordedListJobCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listJobCalls
}

func (f *fakePictorClient) recordedFetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func (f *fakePictorClient) recordedExpandCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expandCalls
}
