package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"pictor-cli/internal/domain"
	"pictor-cli/internal/ports"
)

// Auxiliary inference models used by the enhancement endpoints.
const (
	expandModelID = "prompt-expand-v1"
	chatModelID   = "pictor-chat"
)

// APIClient is the concrete implementation of the PictorClient port that
// communicates with the Pictor REST API over HTTP.
type APIClient struct {
	t      *transport
	logger *zap.Logger
}

// NewAPIClient constructs an APIClient from static configuration. Defaults
// are applied to zero-valued config fields; a missing token is rejected
// immediately rather than on first use.
func NewAPIClient(cfg domain.ClientConfig, logger *zap.Logger) (*APIClient, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIClient{t: newTransport(cfg, logger), logger: logger}, nil
}

// ListProjects implements the PictorClient port.
func (c *APIClient) ListProjects(ctx context.Context) ([]domain.Project, error) {
	body, err := c.t.getJSON(ctx, "/api/projects")
	if err != nil {
		return nil, err
	}
	records := gjson.ParseBytes(body)
	if !records.IsArray() {
		return nil, domain.NewError(domain.KindUnexpectedResponse, "project listing is not an array").
			WithRawBody(body).WithOp("ListProjects")
	}
	var projects []domain.Project
	records.ForEach(func(_, record gjson.Result) bool {
		if id := record.Get("id"); id.Type == gjson.String {
			projects = append(projects, domain.Project{
				ID:   id.Str,
				Name: record.Get("name").String(),
			})
		}
		return true
	})
	return projects, nil
}

// ResolveProject implements the PictorClient port. The resolved id is cached
// in the session so a batch of pipelines only pays for detection once.
func (c *APIClient) ResolveProject(ctx context.Context) (string, error) {
	if id := c.t.session.cachedProject(); id != "" {
		return id, nil
	}
	projects, err := c.ListProjects(ctx)
	if err != nil {
		var e *domain.Error
		if errors.As(err, &e) && e.StatusCode == http.StatusNotFound {
			return "", domain.NewError(domain.KindAPI,
				"project auto-detection failed with 404; configure an explicit project id").
				WithStatus(http.StatusNotFound).WithCause(err)
		}
		return "", err
	}
	if len(projects) == 0 {
		return "", domain.NewError(domain.KindAPI, "account has no projects; configure an explicit project id")
	}
	c.t.session.cacheProject(projects[0].ID)
	return projects[0].ID, nil
}

type inferenceInputs struct {
	Caption         string `json:"caption"`
	Height          int    `json:"height"`
	NegativeCaption string `json:"negative_caption"`
	Seed            int    `json:"seed"`
	Width           int    `json:"width"`
}

type generationData struct {
	ClientMetadata  map[string]string `json:"client_metadata"`
	InferenceInputs inferenceInputs   `json:"inference_inputs"`
	InferenceModel  string            `json:"inference_model"`
}

type generationNode struct {
	Description string `json:"description"`
	ID          string `json:"id"`
	Name        string `json:"name"`
}

type generationPayload struct {
	Data generationData `json:"data"`
	Node generationNode `json:"node"`
}

// CreateGeneration implements the PictorClient port. The node id is
// client-generated, but the id echoed back by the server is the canonical
// one and is what gets returned.
func (c *APIClient) CreateGeneration(ctx context.Context, projectID string, sub domain.Submission) (string, error) {
	payload := generationPayload{
		Data: generationData{
			ClientMetadata: map[string]string{
				"client":     "pictor-cli",
				"request_id": uuid.NewString(),
			},
			InferenceInputs: inferenceInputs{
				Caption:         sub.Caption,
				Height:          sub.Height,
				NegativeCaption: sub.NegativeCaption,
				Seed:            sub.Seed,
				Width:           sub.Width,
			},
			InferenceModel: sub.Model,
		},
		Node: generationNode{ID: uuid.NewString(), Name: "generation"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", domain.EnsureKnown(err, "CreateGeneration")
	}
	resp, err := c.t.postJSON(ctx, fmt.Sprintf("/api/project/%s/generation", projectID), body)
	if err != nil {
		return "", err
	}
	id, err := extractGenerationID(resp)
	if err != nil {
		return "", err
	}
	c.logger.Debug("generation submitted",
		zap.String("project_id", projectID), zap.String("generation_id", id))
	return id, nil
}

// ListJobs implements the PictorClient port.
func (c *APIClient) ListJobs(ctx context.Context, projectID string) ([]domain.JobSnapshot, error) {
	body, err := c.t.getJSON(ctx, fmt.Sprintf("/api/project/%s/node", projectID))
	if err != nil {
		return nil, err
	}
	list := gjson.GetBytes(body, "list")
	if !list.IsArray() {
		return nil, domain.NewError(domain.KindUnexpectedResponse, "job listing carries no list array").
			WithRawBody(body).WithOp("ListJobs")
	}
	var jobs []domain.JobSnapshot
	list.ForEach(func(_, entry gjson.Result) bool {
		id := entry.Get("node.id")
		if id.Type != gjson.String {
			return true
		}
		job := domain.JobSnapshot{
			ID:     id.Str,
			Output: entry.Get("data.output").String(),
			Error:  entry.Get("data.error").String(),
		}
		if seed := entry.Get("data.inference_inputs.seed"); seed.Type == gjson.Number {
			job.Seed = int(seed.Int())
			job.HasSeed = true
		}
		jobs = append(jobs, job)
		return true
	})
	return jobs, nil
}

// FetchArtifact implements the PictorClient port. The binary payload is
// re-encoded as a base64 data URI using the reported content type.
func (c *APIClient) FetchArtifact(ctx context.Context, projectID, imageID string) (string, error) {
	resp, err := c.t.getBinary(ctx, fmt.Sprintf("/api/project/%s/image/%s/url", projectID, imageID), "image/*")
	if err != nil {
		return "", err
	}
	return domain.EncodeDataURL(resp.contentType, resp.body), nil
}

type inferSyncPayload struct {
	Inputs struct {
		NumVariants int    `json:"num_variants"`
		Prompt      string `json:"prompt"`
	} `json:"inputs"`
	ModelID   string `json:"model_id"`
	ProjectID string `json:"project_id"`
}

// ExpandPrompt implements the PictorClient port. Any transport, shape or
// status failure is reported to the caller; the decision to fall back to the
// original prompt belongs to the service layer, not here.
func (c *APIClient) ExpandPrompt(ctx context.Context, projectID, prompt string, variants int) ([]string, error) {
	var payload inferSyncPayload
	payload.Inputs.NumVariants = variants
	payload.Inputs.Prompt = prompt
	payload.ModelID = expandModelID
	payload.ProjectID = projectID
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.EnsureKnown(err, "ExpandPrompt")
	}
	resp, err := c.t.postJSON(ctx, "/api/misc/model_infer_sync", body)
	if err != nil {
		return nil, err
	}

	// The endpoint replies with an array of step records; only the last one
	// carries the terminal status and outputs.
	steps := gjson.ParseBytes(resp)
	if !steps.IsArray() || len(steps.Array()) == 0 {
		return nil, domain.NewError(domain.KindUnexpectedResponse, "infer-sync response carries no step records").
			WithRawBody(resp).WithOp("ExpandPrompt")
	}
	last := steps.Array()[len(steps.Array())-1]
	if status := last.Get("status").String(); status != "completed" {
		return nil, domain.NewError(domain.KindAPI, fmt.Sprintf("prompt expansion did not complete: status %q", status)).
			WithOp("ExpandPrompt")
	}
	var expanded []string
	for _, v := range last.Get("outputs.expanded_prompts").Array() {
		if v.Type == gjson.String && v.Str != "" {
			expanded = append(expanded, v.Str)
		}
	}
	if len(expanded) == 0 {
		return nil, domain.NewError(domain.KindUnexpectedResponse, "infer-sync response carries no expanded prompts").
			WithRawBody(resp).WithOp("ExpandPrompt")
	}
	return expanded, nil
}

type chatPayload struct {
	Messages  []domain.ChatTurn `json:"messages"`
	ModelID   string            `json:"model_id"`
	ProjectID string            `json:"project_id"`
}

// Chat implements the PictorClient port. The prompt-bearing content is
// located by the ordered chat extractors; an unmatched shape is logged
// distinctly from transport failures because the successful shape was never
// observed upstream.
func (c *APIClient) Chat(ctx context.Context, projectID string, turns []domain.ChatTurn) (string, error) {
	body, err := json.Marshal(chatPayload{Messages: turns, ModelID: chatModelID, ProjectID: projectID})
	if err != nil {
		return "", domain.EnsureKnown(err, "Chat")
	}
	resp, err := c.t.postJSON(ctx, "/api/misc/chat", body)
	if err != nil {
		return "", err
	}
	prompt, shape, err := extractChatPrompt(resp)
	if err != nil {
		c.logger.Warn("chat response shape unmatched", zap.ByteString("body", resp))
		return "", err
	}
	c.logger.Debug("chat prompt extracted", zap.String("shape", shape))
	return prompt, nil
}

// Ensure APIClient satisfies the PictorClient port at compile time.
var _ ports.PictorClient = (*APIClient)(nil)
