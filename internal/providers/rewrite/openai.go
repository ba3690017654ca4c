package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const systemPrompt = `You rewrite CV bullet points to match a job description.
Keep every factual claim; never invent metrics or tools. Target 100-130
characters per bullet. Return exactly one rewritten bullet per line, in the
same order as the input, with no numbering and no extra lines.`

type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int64
}

func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required for openai rewriting")
	}
	if model == "" {
		model = "gpt-4o"
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{client: &client, model: model, maxTokens: 1024}, nil
}

func (p *OpenAI) RewriteBullets(ctx context.Context, jdSummary string, bullets []string) ([]string, error) {
	if len(bullets) == 0 {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString("Job description summary:\n")
	b.WriteString(jdSummary)
	b.WriteString("\n\nBullets to rewrite:\n")
	for _, bullet := range bullets {
		b.WriteString(bullet)
		b.WriteString("\n")
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(b.String()),
		},
		MaxTokens: openai.Int(p.maxTokens),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}

	lines := splitNonEmptyLines(resp.Choices[0].Message.Content)
	if len(lines) != len(bullets) {
		return nil, fmt.Errorf("expected %d rewritten bullets, got %d", len(bullets), len(lines))
	}
	return lines, nil
}

func (p *OpenAI) Close() error { return nil }

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
