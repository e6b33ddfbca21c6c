package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"pictor-cli/internal/domain"
	"pictor-cli/internal/ports"
)

// editDirective is the fixed opening turn of an edit-enhancement
// conversation. The closing assistant turn primes the model to complete a
// JSON object holding the rewritten prompt.
const editDirective = `Rewrite the caption of an existing image generation so that it reflects the requested edit while keeping everything else intact. Reply with a JSON object of the form {"prompt": "..."} and nothing else.`

// Enhancer implements the two prompt-enhancement policies. Enhance absorbs
// every failure into a fallback because an expanded prompt is advisory;
// EnhanceForEdit propagates failures because an edit's caption is
// load-bearing.
type Enhancer struct {
	client ports.PictorClient
	logger *zap.Logger
}

// NewEnhancer constructs an Enhancer over the given client port.
func NewEnhancer(client ports.PictorClient, logger *zap.Logger) *Enhancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enhancer{client: client, logger: logger}
}

// Enhance requests variantCount expanded variants of prompt. It never fails:
// any transport or shape problem degrades to a single-element slice holding
// the original prompt unchanged.
func (e *Enhancer) Enhance(ctx context.Context, projectID, prompt string, variantCount int) []string {
	if variantCount < 1 {
		variantCount = 1
	}
	expanded, err := e.client.ExpandPrompt(ctx, projectID, prompt, variantCount)
	if err != nil {
		e.logger.Debug("prompt enhancement unavailable, using original prompt", zap.Error(err))
		return []string{prompt}
	}
	return expanded
}

// EnhanceForEdit synthesizes an edit-specific caption from conversational
// context: the directive, the original prompt, a JSON context object, the
// instruction, and a placeholder assistant turn for the model to complete.
// Failures propagate, unlike Enhance.
func (e *Enhancer) EnhanceForEdit(ctx context.Context, projectID string, req domain.EditRequest) (string, error) {
	caption := req.OriginalCaption
	if caption == "" {
		caption = req.Prompt
	}
	contextObj := map[string]any{"caption": caption}
	if req.Seed >= 0 {
		contextObj["seed"] = req.Seed
	}
	if ratio := aspectRatio(req.Width, req.Height); ratio != "" {
		contextObj["aspect_ratio"] = ratio
	}
	contextJSON, err := json.Marshal(contextObj)
	if err != nil {
		return "", domain.EnsureKnown(err, "EnhanceForEdit")
	}

	prompt := req.Prompt
	if req.AnnotatedPrompt != "" {
		prompt = req.AnnotatedPrompt
	}
	turns := []domain.ChatTurn{
		{Role: "user", Content: editDirective},
		{Role: "user", Content: prompt},
		{Role: "assistant", Content: string(contextJSON)},
		{Role: "user", Content: req.Instruction},
		{Role: "assistant", Content: "{"},
	}

	rewritten, err := e.client.Chat(ctx, projectID, turns)
	if err != nil {
		return "", domain.EnsureKnown(err, "EnhanceForEdit")
	}
	return rewritten, nil
}

func aspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	g := gcd(width, height)
	return fmt.Sprintf("%d:%d", width/g, height/g)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
