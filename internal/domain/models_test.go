package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pictor-cli/internal/domain"
)

// --- Behavior: Request defaults ---

func TestNewGenerationRequest_AppliesDocumentedDefaults(t *testing.T) {
	req := domain.NewGenerationRequest("a red fox")

	assert.Equal(t, "a red fox", req.Prompt)
	assert.Equal(t, 1024, req.Width)
	assert.Equal(t, 1024, req.Height)
	assert.Equal(t, 1, req.BatchSize)
	assert.Equal(t, domain.SeedUnspecified, req.Seed)
	assert.Equal(t, domain.DefaultModel, req.Model)
	assert.True(t, req.EnhancePrompt)
}

func TestGenerationRequest_Normalize_FillsZeroValues(t *testing.T) {
	req := domain.GenerationRequest{Prompt: "a red fox"}
	req.Normalize()

	assert.Equal(t, 1024, req.Width)
	assert.Equal(t, 1024, req.Height)
	assert.Equal(t, 1, req.BatchSize)
	assert.Equal(t, domain.DefaultModel, req.Model)
	// Seed is untouched: zero is a legitimate explicit seed.
	assert.Equal(t, 0, req.Seed)
}

// --- Behavior: Validation rejects bad input before any network call ---

func TestGenerationRequest_Validate_RejectsUnsupportedDimensions(t *testing.T) {
	for _, tc := range []struct {
		name          string
		width, height int
	}{
		{"width not in supported set", 1000, 1024},
		{"height not in supported set", 1024, 999},
		{"both out of range", 3, 7},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := domain.NewGenerationRequest("a red fox")
			req.Width = tc.width
			req.Height = tc.height

			err := req.Validate()

			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindValidation))
		})
	}
}

func TestGenerationRequest_Validate_AcceptsSupportedDimensions(t *testing.T) {
	for _, size := range []int{512, 640, 768, 896, 1024, 1152, 1280, 1536, 2048} {
		req := domain.NewGenerationRequest("a red fox")
		req.Width = size
		req.Height = size
		assert.NoError(t, req.Validate(), "size %d should be supported", size)
	}
}

func TestGenerationRequest_Validate_RejectsNonPositiveBatchSize(t *testing.T) {
	req := domain.NewGenerationRequest("a red fox")
	req.BatchSize = -3

	err := req.Validate()

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestGenerationRequest_Validate_RejectsEmptyPrompt(t *testing.T) {
	req := domain.NewGenerationRequest("")

	err := req.Validate()

	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestEditRequest_Validate_RequiresInstructionAndOriginatingGeneration(t *testing.T) {
	base := domain.EditRequest{
		Prompt:                "a red fox",
		Width:                 1024,
		Height:                1024,
		Instruction:           "make it snowy",
		OriginatingGeneration: "gen-123",
	}

	missingInstruction := base
	missingInstruction.Instruction = ""
	err := missingInstruction.Validate()
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	missingOrigin := base
	missingOrigin.OriginatingGeneration = ""
	err = missingOrigin.Validate()
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	assert.NoError(t, base.Validate())
}

// --- Behavior: Singleton collapsing of captions and enhanced prompts ---

func TestOneOrMany_MarshalsSingletonAsBareString(t *testing.T) {
	data, err := json.Marshal(domain.OneOrMany{"a fox at dusk"})
	require.NoError(t, err)
	assert.JSONEq(t, `"a fox at dusk"`, string(data))
}

func TestOneOrMany_MarshalsMultipleAsArray(t *testing.T) {
	data, err := json.Marshal(domain.OneOrMany{"one", "two"})
	require.NoError(t, err)
	assert.JSONEq(t, `["one","two"]`, string(data))
}

func TestOneOrMany_UnmarshalsEitherForm(t *testing.T) {
	var single domain.OneOrMany
	require.NoError(t, json.Unmarshal([]byte(`"solo"`), &single))
	assert.Equal(t, domain.OneOrMany{"solo"}, single)

	var many domain.OneOrMany
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &many))
	assert.Equal(t, domain.OneOrMany{"a", "b"}, many)
}

func TestBatchResult_OmitsEnhancedPromptsWhenEnhancementWasOff(t *testing.T) {
	result := domain.BatchResult{
		GenerationIDs: []string{"gen-1"},
		ImageURLs:     []string{"data:image/png;base64,AA=="},
		Captions:      domain.OneOrMany{"a red fox"},
	}
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "enhanced_prompt")
}
