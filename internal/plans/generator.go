package plans

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careerpath-backend/internal/llm"
	"careerpath-backend/internal/shared/metrics"
	"careerpath-backend/internal/shared/telemetry"
)

const (
	planTemperature = 0.7
	planMaxTokens   = 4000
)

// Generator turns a profile into an HTML plan with one completion call.
type Generator struct {
	LLM llm.Client
}

// NewGenerator constructs a Generator.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{LLM: client}
}

// Generate returns the model's HTML fragment unmodified.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) (string, error) {
	if missing := in.Profile.Missing(); len(missing) > 0 {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	started := time.Now()
	out, err := g.LLM.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt()},
			{Role: llm.RoleUser, Content: BuildPrompt(in)},
		},
		Temperature: planTemperature,
		MaxTokens:   planMaxTokens,
	})
	elapsed := time.Since(started)
	metrics.ObservePlanDurationMs(float64(elapsed.Milliseconds()))
	if err != nil {
		metrics.IncPlanFailed()
		telemetry.Error("plan.generate.failed", map[string]any{
			"err":         err,
			"duration_ms": elapsed.Milliseconds(),
		})
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	metrics.IncPlanGenerated()
	telemetry.Info("plan.generated", map[string]any{
		"duration_ms":   elapsed.Milliseconds(),
		"resume_text":   in.ResumeText != "",
		"response_size": len(out.Content),
	})
	return out.Content, nil
}
