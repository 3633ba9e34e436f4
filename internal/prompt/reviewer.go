// Package prompt provides an optional Claude-backed review of the
// natural-language trading instruction attached to an agent. Review feedback
// is advisory only and never blocks a deployment.
package prompt

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
)

const systemPrompt = `You review trading instructions for automated swap agents.
In at most two sentences, point out anything ambiguous, contradictory, or
missing (tokens, amounts, cadence). If the instruction is clear, reply "OK".`

// Reviewer sends agent prompts to Claude for a sanity check.
type Reviewer struct {
	client anthropic.Client
	log    zerolog.Logger
}

// NewReviewer creates a reviewer, or nil when no API key is configured.
// A nil *Reviewer is safe to call; Review then returns an empty string.
func NewReviewer(apiKey string, log zerolog.Logger) *Reviewer {
	if apiKey == "" {
		return nil
	}
	return &Reviewer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		log:    log.With().Str("service", "prompt_review").Logger(),
	}
}

// Review returns short feedback on a trading instruction. Failures are logged
// and swallowed - the deploy flow must never stall on the review.
func (r *Reviewer) Review(ctx context.Context, instruction string) string {
	if r == nil || strings.TrimSpace(instruction) == "" {
		return ""
	}

	msg, err := r.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaude3_5HaikuLatest,
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(instruction)),
		},
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("Prompt review failed")
		return ""
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	feedback := strings.TrimSpace(out.String())
	if feedback == "OK" {
		return ""
	}
	return feedback
}
