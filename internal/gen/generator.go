// Package gen drives the ad-image generation pipeline: one external CLI
// invocation per hook and aspect variant, with a fixed model-priority
// fallback chain and progress reporting.
package gen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marktr/adbot/internal/creative"
)

// Variants are the two aspect ratios produced for every hook.
var Variants = [2]string{"square", "vertical"}

// defaultVisual is used when a hook carries no visual-style hint.
const defaultVisual = "Close-up portrait of a woman with radiant skin"

// Progress is invoked after every attempted image, produced or skipped.
// Failures inside the callback never abort the run.
type Progress func(completed, total int, hookText, variant string)

// runner abstracts the CLI invocation so tests can stub it. It returns
// the combined stdout+stderr text.
type runner func(ctx context.Context, bin string, args []string) (string, error)

func execRunner(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Generator owns the generation pipeline configuration.
type Generator struct {
	bin       string
	outputDir string
	models    []string
	timeout   time.Duration
	logger    *slog.Logger
	run       runner
}

// New creates a generator.
func New(bin, outputDir string, models []string, timeout time.Duration, logger *slog.Logger) *Generator {
	return &Generator{
		bin:       bin,
		outputDir: outputDir,
		models:    models,
		timeout:   timeout,
		logger:    logger,
		run:       execRunner,
	}
}

// setRunner swaps the CLI invocation, for tests.
func (g *Generator) setRunner(r runner) { g.run = r }

// buildPrompt renders the deterministic generation instruction for one
// hook, offer and variant.
func buildPrompt(hook creative.Hook, offer creative.Offer, variant string) string {
	visual := hook.Visual
	if visual == "" {
		visual = defaultVisual
	}
	offerLine := fmt.Sprintf("%s — %s", offer.Name, offer.Price)

	if variant == "square" {
		return fmt.Sprintf(
			"Ultra-realistic professional photography, %s. "+
				"Soft golden-hour window light, professional studio lighting. "+
				"Elegant text overlay reading %q in modern sans-serif font at top, "+
				"smaller text %q below in accent color. "+
				"Shot on Canon EOS R5, 85mm lens, f/2.8, shallow depth of field. "+
				"Beauty advertising campaign quality, high-end med-spa aesthetic, "+
				"square 1:1 aspect ratio, 1080x1080.",
			visual, hook.Hook, offerLine,
		)
	}
	return fmt.Sprintf(
		"Ultra-realistic professional photography, %s. "+
			"Soft golden-hour window light, professional studio lighting. "+
			"Elegant text overlay reading %q in modern sans-serif font at upper third, "+
			"smaller text %q in lower third. "+
			"Shot on Canon EOS R5, 85mm lens, f/2.8, shallow depth of field. "+
			"Beauty advertising campaign quality, high-end med-spa aesthetic, "+
			"vertical 9:16 aspect ratio, 1080x1920.",
		visual, hook.Hook, offerLine,
	)
}

// quotaExhausted reports whether the combined CLI output signals a quota
// or rate-limit failure worth falling back on.
func quotaExhausted(output string) bool {
	return strings.Contains(output, "QuotaError") || strings.Contains(output, "429")
}

// generateOne attempts a single image, walking the model priority list.
// It returns the produced artifact path, or "" when every model was
// exhausted or the backend produced no file.
func (g *Generator) generateOne(ctx context.Context, runID string, hook creative.Hook, offer creative.Offer, variant string) string {
	prompt := buildPrompt(hook, offer, variant)

	for _, model := range g.models {
		// Re-snapshot per attempt: a failed attempt can still leak a file,
		// which must not be attributed to a later model's success.
		before, err := snapshot(g.outputDir)
		if err != nil {
			g.logger.Error("failed to snapshot output dir", "run_id", runID, "error", err)
			return ""
		}

		g.logger.Info("generating image",
			"run_id", runID,
			"model", model,
			"variant", variant,
			"hook", truncate(hook.Hook, 80),
		)

		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		output, runErr := g.run(attemptCtx, g.bin, []string{
			"--model", model,
			"--yolo",
			fmt.Sprintf("/generate '%s' --preview", prompt),
		})
		timedOut := attemptCtx.Err() == context.DeadlineExceeded
		cancel()

		// Timeouts and quota signals mean: same request, next model.
		if timedOut {
			g.logger.Warn("generation timed out", "run_id", runID, "model", model)
			continue
		}
		if runErr != nil || quotaExhausted(output) {
			g.logger.Warn("quota or error, falling back", "run_id", runID, "model", model, "error", runErr)
			continue
		}

		path, err := newestNewFile(g.outputDir, before)
		if err != nil {
			g.logger.Error("failed to diff output dir", "run_id", runID, "error", err)
			return ""
		}
		if path == "" {
			g.logger.Warn("no new file found after generation", "run_id", runID, "model", model)
		}
		return path
	}

	g.logger.Warn("all models exhausted for image", "run_id", runID, "variant", variant)
	return ""
}

// Run generates square and vertical images for each hook, sequentially,
// one image at a time. It returns the produced artifact paths; an empty
// result means every image was skipped.
func (g *Generator) Run(ctx context.Context, hooks []creative.Hook, offer creative.Offer, progress Progress) ([]string, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	runID := uuid.NewString()
	total := len(hooks) * len(Variants)
	g.logger.Info("starting generation run", "run_id", runID, "images", total, "offer", offer.Slug)

	var results []string
	completed := 0
	for _, hook := range hooks {
		for _, variant := range Variants {
			path := g.generateOne(ctx, runID, hook, offer, variant)
			if path != "" {
				results = append(results, path)
			}
			completed++
			if progress != nil {
				progress(completed, total, hook.Hook, variant)
			}
		}
	}

	g.logger.Info("generation run finished", "run_id", runID, "produced", len(results), "total", total)
	return results, nil
}

// snapshot returns the current file set of dir.
func snapshot(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e.Name()] = true
	}
	return set, nil
}

// newestNewFile returns the newest file (by mtime) present in dir but not
// in the before snapshot, "" when the diff is empty. A concurrent writer
// to the same directory can be misattributed; the directory is expected
// to be private to this process.
func newestNewFile(dir string, before map[string]bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var newest string
	var newestMod time.Time
	for _, e := range entries {
		if before[e.Name()] || e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, e.Name())
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
