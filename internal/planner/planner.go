package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecochef/internal/llm"
	"ecochef/internal/shared"

	"go.uber.org/zap"
)

const agentName = "EcoChef"

// Reasons a generation can fail.
const (
	ReasonTransport = "transport"
	ReasonEmpty     = "empty"
	ReasonMalformed = "malformed"
)

// GenerationError means no usable plan came back. The cause is kept for logs;
// users only ever see a generic message.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("plan generation failed (%s): %v", e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Planner turns plan requests into generated plans.
type Planner struct {
	textGen llm.TextGenerator
	log     *zap.Logger
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator, log *zap.Logger) *Planner {
	return &Planner{textGen: textGen, log: log}
}

// RequestPlan performs one generation call. It either returns a complete,
// validated plan or an error; there are no partial results and no retries.
// Invalid requests fail with *ValidationError before anything is sent.
func (p *Planner) RequestPlan(ctx context.Context, req PlanRequest) (*PlanResponse, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: agentName}

	if err := req.Validate(); err != nil {
		return nil, meta, err
	}

	system, prompt, err := buildPrompts(req)
	if err != nil {
		return nil, meta, err
	}

	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, llm.GenerateRequest{
		SystemInstruction: system,
		Prompt:            prompt,
		ResponseSchema:    ResponseSchema(),
	})
	meta.Latency = time.Since(start)
	meta.Usage = resp.Usage

	if err != nil {
		reason := ReasonTransport
		if errors.Is(err, llm.ErrNoContent) {
			reason = ReasonEmpty
		}
		return nil, meta, &GenerationError{Reason: reason, Err: err}
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, meta, &GenerationError{Reason: ReasonEmpty, Err: llm.ErrNoContent}
	}

	plan, err := ParseResponse([]byte(resp.Content))
	if err != nil {
		return nil, meta, &GenerationError{Reason: ReasonMalformed, Err: err}
	}

	if missing := plan.MissingRecipes(); len(missing) > 0 {
		p.log.Warn("plan has meals without a recipe",
			zap.Strings("meals", missing),
			zap.Int("recipes", len(plan.Recipes)))
	}

	p.log.Info("plan generated",
		zap.Int("days", req.Days),
		zap.String("language", string(req.Language)),
		zap.Int("meals", len(plan.Plan)),
		zap.Int("prompt_tokens", meta.Usage.PromptTokens),
		zap.Int("completion_tokens", meta.Usage.CompletionTokens),
		zap.Duration("latency", meta.Latency))

	return plan, meta, nil
}
