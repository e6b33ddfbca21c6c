package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"pictor-cli/internal/domain"
	"pictor-cli/internal/provider"
	"pictor-cli/internal/service"
)

// printUsage prints the top level usage instructions.
func printUsage() {
	program := os.Args[0]
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", program)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  generate  Generate one or more images from a prompt")
	fmt.Fprintln(os.Stderr, "  edit      Edit a previous generation with an instruction")
	fmt.Fprintln(os.Stderr, "  enhance   Expand a prompt into detailed variants")
	fmt.Fprintln(os.Stderr, "  projects  List available projects")
	fmt.Fprintln(os.Stderr, "Use \"", program, " <command> -h\" for more information about a command.")
}

// ensureCredentials retrieves the bearer token and session cookie from the
// environment. The cookie is optional; the token is not.
func ensureCredentials() (token, cookie string, err error) {
	token = strings.TrimSpace(os.Getenv("PICTOR_TOKEN"))
	if token == "" {
		return "", "", fmt.Errorf("environment variable PICTOR_TOKEN is not set")
	}
	return token, os.Getenv("PICTOR_COOKIE"), nil
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newService(projectID, baseURL string, verbose bool) (*service.GenerationService, error) {
	token, cookie, err := ensureCredentials()
	if err != nil {
		return nil, err
	}
	cfg := domain.ClientConfig{
		Token:     token,
		Cookie:    cookie,
		ProjectID: projectID,
		BaseURL:   baseURL,
		Verbose:   verbose,
	}
	logger := newLogger(verbose)
	client, err := provider.NewAPIClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	return service.NewGenerationService(client, cfg, logger), nil
}

// extensionForMIME maps artifact MIME types onto file extensions, defaulting
// to .png for anything unrecognized.
func extensionForMIME(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// writeArtifacts decodes the result's data URIs and saves them to outputDir
// using the pattern {generationID}_{index}{ext}. It returns the written
// file paths.
func writeArtifacts(result domain.BatchResult, outputDir string) ([]string, error) {
	var paths []string
	for i, uri := range result.ImageURLs {
		mimeType, data, err := domain.DecodeDataURL(uri)
		if err != nil {
			return nil, fmt.Errorf("decoding artifact %d: %w", i+1, err)
		}
		name := fmt.Sprintf("%s_%d%s", result.GenerationIDs[i], i+1, extensionForMIME(mimeType))
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing artifact %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// prettyPrintJSON marshals v and prints it indented.
func prettyPrintJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Println(v)
		return
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(out.String())
}

func runGenerate(args []string) error {
	cmd := flag.NewFlagSet("generate", flag.ExitOnError)
	prompt := cmd.String("prompt", "", "Text prompt for image generation (required)")
	negative := cmd.String("negative", "", "Negative prompt")
	width := cmd.Int("width", domain.DefaultWidth, "Width of the generated image")
	height := cmd.Int("height", domain.DefaultHeight, "Height of the generated image")
	seed := cmd.Int("seed", domain.SeedUnspecified, "Explicit seed (-1 picks one per item)")
	batch := cmd.Int("batch", 1, "Number of images to generate")
	model := cmd.String("model", domain.DefaultModel, "Inference model identifier")
	noEnhance := cmd.Bool("no-enhance", false, "Disable server-side prompt enhancement")
	project := cmd.String("project", "", "Explicit project id (auto-detected when empty)")
	baseURL := cmd.String("base-url", "", "Override the upstream base URL")
	outDir := cmd.String("out", ".", "Directory to write generated images to")
	asJSON := cmd.Bool("json", false, "Print the aggregate result as JSON")
	verbose := cmd.Bool("verbose", false, "Enable diagnostic logging")
	cmd.Parse(args)
	if strings.TrimSpace(*prompt) == "" {
		cmd.Usage()
		return fmt.Errorf("-prompt is required")
	}

	svc, err := newService(*project, *baseURL, *verbose)
	if err != nil {
		return err
	}
	req := domain.GenerationRequest{
		Prompt:         *prompt,
		NegativePrompt: *negative,
		Width:          *width,
		Height:         *height,
		Seed:           *seed,
		BatchSize:      *batch,
		Model:          *model,
		EnhancePrompt:  !*noEnhance,
	}
	result, err := svc.Generate(context.Background(), req)
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(result, *outDir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println("Saved:", path)
	}
	if *asJSON {
		prettyPrintJSON(result)
	}
	return nil
}

func runEdit(args []string) error {
	cmd := flag.NewFlagSet("edit", flag.ExitOnError)
	prompt := cmd.String("prompt", "", "Prompt of the originating generation (required)")
	instruction := cmd.String("instruction", "", "Edit instruction (required)")
	generation := cmd.String("generation", "", "Id of the generation being edited (required)")
	caption := cmd.String("caption", "", "Caption the original job actually ran with, if known")
	annotated := cmd.String("annotated", "", "Prompt with user annotations")
	negative := cmd.String("negative", "", "Negative prompt")
	width := cmd.Int("width", domain.DefaultWidth, "Width of the edited image")
	height := cmd.Int("height", domain.DefaultHeight, "Height of the edited image")
	seed := cmd.Int("seed", domain.SeedUnspecified, "Explicit seed (-1 picks one)")
	model := cmd.String("model", domain.DefaultModel, "Inference model identifier")
	project := cmd.String("project", "", "Explicit project id (auto-detected when empty)")
	baseURL := cmd.String("base-url", "", "Override the upstream base URL")
	outDir := cmd.String("out", ".", "Directory to write the edited image to")
	asJSON := cmd.Bool("json", false, "Print the aggregate result as JSON")
	verbose := cmd.Bool("verbose", false, "Enable diagnostic logging")
	cmd.Parse(args)

	svc, err := newService(*project, *baseURL, *verbose)
	if err != nil {
		return err
	}
	req := domain.EditRequest{
		Prompt:                *prompt,
		NegativePrompt:        *negative,
		Width:                 *width,
		Height:                *height,
		Seed:                  *seed,
		Model:                 *model,
		Instruction:           *instruction,
		OriginatingGeneration: *generation,
		OriginalCaption:       *caption,
		AnnotatedPrompt:       *annotated,
	}
	result, err := svc.Edit(context.Background(), req)
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(result, *outDir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println("Saved:", path)
	}
	if *asJSON {
		prettyPrintJSON(result)
	}
	return nil
}

func runEnhance(args []string) error {
	cmd := flag.NewFlagSet("enhance", flag.ExitOnError)
	prompt := cmd.String("prompt", "", "Prompt to expand (required)")
	variants := cmd.Int("variants", 1, "Number of expanded variants to request")
	project := cmd.String("project", "", "Explicit project id (auto-detected when empty)")
	baseURL := cmd.String("base-url", "", "Override the upstream base URL")
	verbose := cmd.Bool("verbose", false, "Enable diagnostic logging")
	cmd.Parse(args)
	if strings.TrimSpace(*prompt) == "" {
		cmd.Usage()
		return fmt.Errorf("-prompt is required")
	}

	svc, err := newService(*project, *baseURL, *verbose)
	if err != nil {
		return err
	}
	expanded, err := svc.Enhance(context.Background(), *prompt, *variants)
	if err != nil {
		return err
	}
	for _, v := range expanded {
		fmt.Println(v)
	}
	return nil
}

func runProjects(args []string) error {
	cmd := flag.NewFlagSet("projects", flag.ExitOnError)
	baseURL := cmd.String("base-url", "", "Override the upstream base URL")
	verbose := cmd.Bool("verbose", false, "Enable diagnostic logging")
	cmd.Parse(args)

	svc, err := newService("", *baseURL, *verbose)
	if err != nil {
		return err
	}
	projects, err := svc.Projects(context.Background())
	if err != nil {
		return err
	}
	for _, p := range projects {
		fmt.Printf("%s\t%s\n", p.ID, p.Name)
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	var err error
	switch cmd := os.Args[1]; cmd {
	case "generate":
		err = runGenerate(os.Args[2:])
	case "edit":
		err = runEdit(os.Args[2:])
	case "enhance":
		err = runEnhance(os.Args[2:])
	case "projects":
		err = runProjects(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
