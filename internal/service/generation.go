package service

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pictor-cli/internal/domain"
	"pictor-cli/internal/ports"
)

// Seed resolution bounds. When no explicit seed is given, a base seed is
// drawn once per batch and each item jitters it by a small random offset so
// a batch never silently reuses one seed across items. This is observed
// behavior, not a distinct-seed guarantee.
const (
	seedMax    = 1 << 31
	seedJitter = 1000
)

// GenerationService is the application layer for starting and monitoring
// generations. It fans a logical request out into independent submit+poll
// pipelines and reduces their results into one aggregate. It depends on the
// PictorClient port, which abstracts the underlying API.
type GenerationService struct {
	client   ports.PictorClient
	enhancer *Enhancer
	poller   *Poller
	logger   *zap.Logger

	// Injected for tests.
	now     func() time.Time
	randInt func(n int) int
}

// NewGenerationService constructs a GenerationService given a client port
// and the static configuration (defaults applied to zero values).
func NewGenerationService(client ports.PictorClient, cfg domain.ClientConfig, logger *zap.Logger) *GenerationService {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		client:   client,
		enhancer: NewEnhancer(client, logger),
		poller:   NewPoller(client, cfg.MaxPollAttempts, cfg.PollInterval, logger),
		logger:   logger,
		now:      time.Now,
		randInt:  rand.IntN,
	}
}

// pipelineResult is one pipeline's slot in the aggregate; slots are assigned
// by submission index so output ordering matches submission order, not
// completion order.
type pipelineResult struct {
	generationID string
	imageURL     string
	caption      string
	seed         int
}

// Generate validates the request, fans out BatchSize independent pipelines,
// awaits them all, and reduces the results. Any single pipeline's
// unrecovered failure fails the whole batch; no partial results are ever
// returned.
func (s *GenerationService) Generate(ctx context.Context, req domain.GenerationRequest) (domain.BatchResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.BatchResult{}, err
	}
	projectID, err := s.client.ResolveProject(ctx)
	if err != nil {
		return domain.BatchResult{}, err
	}

	// For multi-item batches with enhancement on, fetch all variants up
	// front in one call; single-item pipelines enhance lazily.
	var variants []string
	if req.EnhancePrompt && req.BatchSize > 1 {
		variants = s.enhancer.Enhance(ctx, projectID, req.Prompt, req.BatchSize)
	}

	baseSeed := req.Seed
	jitter := false
	if baseSeed == domain.SeedUnspecified {
		baseSeed = s.randInt(seedMax - seedJitter)
		jitter = true
	}

	items := make([]pipelineResult, req.BatchSize)
	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		g.Go(func() error {
			caption := req.Prompt
			if req.EnhancePrompt {
				if len(variants) > 0 {
					caption = variants[i%len(variants)]
				} else {
					caption = s.enhancer.Enhance(gctx, projectID, req.Prompt, 1)[0]
				}
			}
			seed := baseSeed
			if jitter {
				seed = baseSeed + s.randInt(seedJitter)
			}

			generationID, err := s.client.CreateGeneration(gctx, projectID, domain.Submission{
				Caption:         caption,
				NegativeCaption: req.NegativePrompt,
				Width:           req.Width,
				Height:          req.Height,
				Seed:            seed,
				Model:           req.Model,
			})
			if err != nil {
				return err
			}
			res, err := s.poller.Await(gctx, projectID, generationID)
			if err != nil {
				return err
			}
			usedSeed := res.Seed
			if usedSeed < 0 {
				usedSeed = seed
			}
			items[i] = pipelineResult{
				generationID: generationID,
				imageURL:     res.ArtifactRefs[0],
				caption:      caption,
				seed:         usedSeed,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.BatchResult{}, domain.EnsureKnown(err, "Generate")
	}

	ids := make([]string, len(items))
	urls := make([]string, len(items))
	captions := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.generationID
		urls[i] = item.imageURL
		captions[i] = item.caption
	}
	result := domain.BatchResult{
		GenerationIDs:  ids,
		ImageURLs:      urls,
		Seed:           items[0].seed,
		Prompt:         req.Prompt,
		Captions:       domain.OneOrMany(captions),
		NegativePrompt: req.NegativePrompt,
		CompletedAt:    s.now().UTC().Format(time.RFC3339),
	}
	if req.EnhancePrompt {
		result.EnhancedPrompts = domain.OneOrMany(append([]string(nil), captions...))
	}
	return result, nil
}

// Edit runs a single-item edit pipeline. Edits never batch and never use
// independent prompt enhancement; the caption is always synthesized by
// EnhanceForEdit so it is contextualized by the instruction and the
// originating generation, and a failure there fails the edit.
func (s *GenerationService) Edit(ctx context.Context, req domain.EditRequest) (domain.BatchResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.BatchResult{}, err
	}
	projectID, err := s.client.ResolveProject(ctx)
	if err != nil {
		return domain.BatchResult{}, err
	}

	caption, err := s.enhancer.EnhanceForEdit(ctx, projectID, req)
	if err != nil {
		return domain.BatchResult{}, err
	}

	seed := req.Seed
	if seed == domain.SeedUnspecified {
		seed = s.randInt(seedMax)
	}
	generationID, err := s.client.CreateGeneration(ctx, projectID, domain.Submission{
		Caption:         caption,
		NegativeCaption: req.NegativePrompt,
		Width:           req.Width,
		Height:          req.Height,
		Seed:            seed,
		Model:           req.Model,
	})
	if err != nil {
		return domain.BatchResult{}, err
	}
	res, err := s.poller.Await(ctx, projectID, generationID)
	if err != nil {
		return domain.BatchResult{}, err
	}
	usedSeed := res.Seed
	if usedSeed < 0 {
		usedSeed = seed
	}

	return domain.BatchResult{
		GenerationIDs:  []string{generationID},
		ImageURLs:      res.ArtifactRefs,
		Seed:           usedSeed,
		Prompt:         req.Prompt,
		Captions:       domain.OneOrMany{caption},
		NegativePrompt: req.NegativePrompt,
		CompletedAt:    s.now().UTC().Format(time.RFC3339),
	}, nil
}

// Enhance exposes prompt expansion directly; it resolves the project and
// applies the same never-fail fallback policy as batch generation.
func (s *GenerationService) Enhance(ctx context.Context, prompt string, variantCount int) ([]string, error) {
	projectID, err := s.client.ResolveProject(ctx)
	if err != nil {
		return nil, err
	}
	return s.enhancer.Enhance(ctx, projectID, prompt, variantCount), nil
}

// Projects returns the caller's project records by delegating to the client.
func (s *GenerationService) Projects(ctx context.Context) ([]domain.Project, error) {
	return s.client.ListProjects(ctx)
}
