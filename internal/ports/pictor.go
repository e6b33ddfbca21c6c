package ports

import (
	"context"

	"pictor-cli/internal/domain"
)

// PictorClient defines the hexagonal port used by the service layer to talk
// to the Pictor API. Implementations of this interface may communicate over
// HTTP, mocks or other transports.
type PictorClient interface {
	// ListProjects returns the caller's project records.
	ListProjects(ctx context.Context) ([]domain.Project, error)
	// ResolveProject returns the configured project id, auto-detecting the
	// first available project when none is configured.
	ResolveProject(ctx context.Context) (string, error)
	// CreateGeneration submits one job and returns the canonical generation
	// id echoed by the server, which is authoritative for polling.
	CreateGeneration(ctx context.Context, projectID string, sub domain.Submission) (string, error)
	// ListJobs fetches the current job-list snapshot for a project.
	ListJobs(ctx context.Context, projectID string) ([]domain.JobSnapshot, error)
	// FetchArtifact retrieves a job's binary output and re-encodes it as a
	// base64 data URI.
	FetchArtifact(ctx context.Context, projectID, imageID string) (string, error)
	// ExpandPrompt requests expanded prompt variants from the auxiliary
	// inference endpoint.
	ExpandPrompt(ctx context.Context, projectID, prompt string, variants int) ([]string, error)
	// Chat runs a chat-style inference call and returns the prompt-bearing
	// content extracted from the response.
	Chat(ctx context.Context, projectID string, turns []domain.ChatTurn) (string, error)
}
