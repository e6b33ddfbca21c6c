package domain

import "fmt"

// SeedUnspecified is the sentinel value indicating that no explicit seed was
// requested and the service layer should pick one.
const SeedUnspecified = -1

// Default request parameters applied by Normalize.
const (
	DefaultWidth     = 1024
	DefaultHeight    = 1024
	DefaultBatchSize = 1
	DefaultModel     = "pictor-xl-v2"
)

// allowedDimensions is the discrete set of pixel sizes the upstream service
// accepts on each axis. Requests outside this set are rejected before any
// network call.
var allowedDimensions = map[int]bool{
	512:  true,
	640:  true,
	768:  true,
	896:  true,
	1024: true,
	1152: true,
	1280: true,
	1536: true,
	2048: true,
}

// GenerationRequest defines the parameters necessary to start one logical
// generation, which may fan out into several jobs when BatchSize > 1.
// Zero values for Width, Height, BatchSize and Model are filled in by
// Normalize; prefer NewGenerationRequest, which also enables prompt
// enhancement and leaves the seed unspecified.
type GenerationRequest struct {
	Prompt         string // required text prompt
	NegativePrompt string // optional negative prompt
	Width          int    // pixel width, must be in the supported set
	Height         int    // pixel height, must be in the supported set
	Seed           int    // explicit seed, or SeedUnspecified
	BatchSize      int    // number of independent jobs to run (>= 1)
	Model          string // inference model identifier
	EnhancePrompt  bool   // expand the prompt server-side before submission
}

// NewGenerationRequest returns a request for the given prompt with all
// documented defaults applied: 1024x1024, batch of one, enhancement on,
// seed unspecified.
func NewGenerationRequest(prompt string) GenerationRequest {
	return GenerationRequest{
		Prompt:        prompt,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Seed:          SeedUnspecified,
		BatchSize:     DefaultBatchSize,
		Model:         DefaultModel,
		EnhancePrompt: true,
	}
}

// Normalize fills zero-valued fields with their defaults. It does not touch
// Seed: the zero seed is a legitimate explicit seed.
func (r *GenerationRequest) Normalize() {
	if r.Width == 0 {
		r.Width = DefaultWidth
	}
	if r.Height == 0 {
		r.Height = DefaultHeight
	}
	if r.BatchSize == 0 {
		r.BatchSize = DefaultBatchSize
	}
	if r.Model == "" {
		r.Model = DefaultModel
	}
}

// Validate checks the request shape. It returns a *Error of KindValidation
// so callers can reject bad input before spending a network call.
func (r GenerationRequest) Validate() error {
	if r.Prompt == "" {
		return NewError(KindValidation, "prompt must not be empty")
	}
	if err := validateDimensions(r.Width, r.Height); err != nil {
		return err
	}
	if r.BatchSize < 1 {
		return NewError(KindValidation, "batch size must be at least 1")
	}
	return nil
}

// EditRequest describes an instruction-driven edit of a previous generation.
// Edits are always single-job and never use independent prompt enhancement;
// the caption is synthesized from the instruction and the originating
// generation instead.
type EditRequest struct {
	Prompt                string // prompt of the originating generation
	NegativePrompt        string // optional negative prompt
	Width                 int    // pixel width, must be in the supported set
	Height                int    // pixel height, must be in the supported set
	Seed                  int    // explicit seed, or SeedUnspecified
	Model                 string // inference model identifier
	Instruction           string // required edit instruction
	OriginatingGeneration string // required id of the generation being edited
	OriginalCaption       string // caption actually used by the original job, if known
	AnnotatedPrompt       string // optional prompt with user annotations
}

// Normalize fills zero-valued fields with their defaults.
func (r *EditRequest) Normalize() {
	if r.Width == 0 {
		r.Width = DefaultWidth
	}
	if r.Height == 0 {
		r.Height = DefaultHeight
	}
	if r.Model == "" {
		r.Model = DefaultModel
	}
}

// Validate checks the request shape before enhancement or submission.
func (r EditRequest) Validate() error {
	if r.Instruction == "" {
		return NewError(KindValidation, "edit instruction must not be empty")
	}
	if r.OriginatingGeneration == "" {
		return NewError(KindValidation, "originating generation id must not be empty")
	}
	return validateDimensions(r.Width, r.Height)
}

func validateDimensions(width, height int) error {
	if !allowedDimensions[width] {
		return NewError(KindValidation, fmt.Sprintf("unsupported width: %d", width))
	}
	if !allowedDimensions[height] {
		return NewError(KindValidation, fmt.Sprintf("unsupported height: %d", height))
	}
	return nil
}

// Submission is the wire-level payload for one job: the caption is the text
// actually sent to the inference model, which may differ from the user's
// prompt after enhancement.
type Submission struct {
	Caption         string
	NegativeCaption string
	Width           int
	Height          int
	Seed            int
	Model           string
}

// Project is one upstream project record. The first project is used when no
// explicit project id is configured.
type Project struct {
	ID   string
	Name string
}

// JobSnapshot is the observed state of one job inside a job-list snapshot.
// Output and Error are mutually exclusive in practice but the engine treats
// an explicit Error as authoritative regardless.
type JobSnapshot struct {
	ID      string // canonical generation identifier
	Output  string // artifact reference, empty while processing
	Error   string // upstream failure text, empty unless failed
	Seed    int    // seed the server recorded for the job
	HasSeed bool   // whether the snapshot carried a recorded seed
}

// ChatTurn is one message of a chat-style enhancement conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PollResult is produced once per completed job.
type PollResult struct {
	ArtifactRefs []string // encoded data URIs, exactly one per completed job
	Seed         int      // seed the job actually ran with, -1 if unrecorded
}

// BatchResult aggregates the per-item outcomes of one logical request.
// It is constructed once and never mutated afterwards.
type BatchResult struct {
	GenerationIDs   []string  `json:"generation_ids"`
	ImageURLs       []string  `json:"image_urls"`
	Seed            int       `json:"seed"`
	Prompt          string    `json:"prompt"`
	Captions        OneOrMany `json:"caption"`
	EnhancedPrompts OneOrMany `json:"enhanced_prompt,omitempty"`
	NegativePrompt  string    `json:"negative_prompt,omitempty"`
	CompletedAt     string    `json:"completed_at"`
}
