package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coursepilot/pkg/llm"
	"coursepilot/pkg/logging"
)

const (
	defaultMaxRounds = 2
	maxAnswerTokens  = 800

	noTextResponse = "No text response available"
	toolErrorReply = "I encountered an error while searching for information. Please try rephrasing your question."
)

// ToolExecutor exposes tool definitions to the model and dispatches
// invocations by name. Satisfied by tools.Registry.
type ToolExecutor interface {
	Definitions() []llm.Tool
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// Generator runs the multi-round tool conversation against the model.
type Generator struct {
	provider  llm.Provider
	maxRounds int
	logger    logging.Logger
}

func New(provider llm.Provider, maxRounds int, logger logging.Logger) *Generator {
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}
	return &Generator{
		provider:  provider,
		maxRounds: maxRounds,
		logger:    logger,
	}
}

// Generate answers a query, letting the model invoke tools for up to
// maxRounds rounds. The final round withholds tool definitions so the model
// must produce text. At most maxRounds+1 model calls are made.
func (g *Generator) Generate(ctx context.Context, query, history string, executor ToolExecutor) (string, error) {
	system := SystemPrompt
	if history != "" {
		system = SystemPrompt + "\n\nPrevious conversation:\n" + history
	}

	var defs []llm.Tool
	if executor != nil {
		defs = executor.Definitions()
	}

	messages := []llm.Message{llm.UserText(query)}

	resp, err := g.complete(ctx, system, messages, defs)
	if err != nil {
		return "", err
	}

	rounds := 0
	defer func() { toolRoundsPerQuery.Observe(float64(rounds)) }()

	for round := 1; round <= g.maxRounds; round++ {
		if executor == nil || !resp.HasToolUse() {
			return textOrFallback(resp), nil
		}
		rounds = round

		messages = append(messages, llm.Message{Role: "assistant", Content: resp.Content})

		results, execErr := g.executeTools(ctx, resp, executor)
		if execErr != nil {
			g.logger.WithError(execErr).Warn("Tool dispatch failed, falling back to last reply")
			if text := resp.FirstText(); text != "" {
				return text, nil
			}
			return toolErrorReply, nil
		}
		messages = append(messages, llm.Message{Role: "user", Content: results})

		if round == g.maxRounds {
			// Tools withheld so the model must answer in text.
			final, err := g.complete(ctx, system, messages, nil)
			if err != nil {
				return "", err
			}
			return textOrFallback(final), nil
		}

		resp, err = g.complete(ctx, system, messages, defs)
		if err != nil {
			return "", err
		}
	}

	return textOrFallback(resp), nil
}

func (g *Generator) complete(ctx context.Context, system string, messages []llm.Message, tools []llm.Tool) (*llm.Response, error) {
	start := time.Now()
	resp, err := g.provider.Complete(ctx, llm.Request{
		System:      system,
		Messages:    messages,
		Tools:       tools,
		MaxTokens:   maxAnswerTokens,
		Temperature: 0,
	})
	modelCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		modelCallsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	modelCallsTotal.WithLabelValues("ok").Inc()
	return resp, nil
}

// executeTools dispatches every tool-use block in reply order and returns one
// tool-result block per invocation. The first failure aborts the round;
// earlier results are discarded.
func (g *Generator) executeTools(ctx context.Context, resp *llm.Response, executor ToolExecutor) ([]llm.ContentBlock, error) {
	var results []llm.ContentBlock
	for _, use := range resp.ToolUses() {
		args := map[string]any{}
		if len(use.Input) > 0 {
			if err := json.Unmarshal(use.Input, &args); err != nil {
				toolExecutionsTotal.WithLabelValues(use.Name, "error").Inc()
				return nil, fmt.Errorf("decode arguments for %s: %w", use.Name, err)
			}
		}

		output, err := executor.Execute(ctx, use.Name, args)
		if err != nil {
			toolExecutionsTotal.WithLabelValues(use.Name, "error").Inc()
			return nil, err
		}
		toolExecutionsTotal.WithLabelValues(use.Name, "ok").Inc()

		results = append(results, llm.ToolResultBlock{
			ToolUseID: use.ID,
			Content:   output,
		})
	}
	return results, nil
}

func textOrFallback(resp *llm.Response) string {
	if text := resp.FirstText(); text != "" {
		return text
	}
	return noTextResponse
}
