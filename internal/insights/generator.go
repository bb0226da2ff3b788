// Package insights explains why a search term peaked, using a language model
// when one is configured and a templated summary otherwise.
package insights

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
)

// Supported providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderNone      = "none"
)

const (
	DefaultAnthropicModel = "claude-3-7-sonnet-20250219"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultMaxTokens      = 800
	DefaultTemperature    = 0.7
	DefaultTimeout        = 60 * time.Second
)

// Config selects and configures the model provider. It is passed in
// explicitly so the fallback path can be exercised without environment state.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature *float32 // nil uses DefaultTemperature; 0 is deterministic sampling
	Timeout     time.Duration
	Disabled    bool
}

// temperature resolves the configured sampling temperature
func (c Config) temperature() float32 {
	if c.Temperature == nil || *c.Temperature < 0 {
		return DefaultTemperature
	}
	return *c.Temperature
}

// Enabled reports whether the config can reach a model at all
func (c Config) Enabled() bool {
	if c.Disabled || strings.TrimSpace(c.APIKey) == "" {
		return false
	}
	switch strings.ToLower(c.Provider) {
	case ProviderAnthropic, ProviderOpenAI:
		return true
	}
	return false
}

// Result holds the generated text blocks
type Result struct {
	Blocks    []string
	AIPowered bool
}

// completer sends one system+user prompt to a model and returns its text
type completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Generator produces insights for analysis results
type Generator struct {
	completer completer
	timeout   time.Duration
	logger    *log.Logger
}

// New creates a Generator. With a disabled or incomplete config it only
// ever returns the templated summary.
func New(cfg Config, logger *log.Logger) *Generator {
	g := &Generator{
		timeout: cfg.Timeout,
		logger:  logger,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	if !cfg.Enabled() {
		return g
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic:
		g.completer = newAnthropicCompleter(cfg)
	case ProviderOpenAI:
		g.completer = newOpenAICompleter(cfg)
	}
	return g
}

// AIEnabled reports whether a model provider is configured
func (g *Generator) AIEnabled() bool {
	return g.completer != nil
}

// Generate explains the top peak of req. It never fails: any provider error
// falls back to BasicInsights.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	if g.completer == nil || !req.HasPeak() {
		return Result{Blocks: BasicInsights(req)}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.completer.Complete(ctx, systemPrompt, BuildPrompt(req))
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("Insight generation failed, using summary", "term", req.Term, "err", err)
		}
		return Result{Blocks: BasicInsights(req)}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		if g.logger != nil {
			g.logger.Warn("Model returned empty insight, using summary", "term", req.Term)
		}
		return Result{Blocks: BasicInsights(req)}
	}

	return Result{Blocks: []string{text}, AIPowered: true}
}

type anthropicCompleter struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

func newAnthropicCompleter(cfg Config) *anthropicCompleter {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &anthropicCompleter{
		client:      anthropic.NewClient(cfg.APIKey, opts...),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.temperature(),
	}
}

func (c *anthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	temperature := c.temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      system,
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var parts []string
	for _, content := range resp.Content {
		if text := content.GetText(); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

type openAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func newOpenAICompleter(cfg Config) *openAICompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &openAICompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.temperature(),
	}
}

func (c *openAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: wireTemperature(c.temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// wireTemperature keeps a zero temperature on the wire: go-openai omits a zero
// value, which the server would read as its own default.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
