package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/al0dan/absher/config"
	"github.com/al0dan/absher/pkg/logger"
)

// ProviderTemplate tags results produced by the static fallback.
const ProviderTemplate = "template"

// GenerationResult is the outcome of the pipeline. Text is never empty.
type GenerationResult struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
}

// AIService runs the contract-text generation pipeline: context extraction,
// prompt construction, the ordered provider chain, and the static template
// fallback. It holds no mutable state; every call is independent.
type AIService struct {
	providers []Provider
	minChars  int
	now       func() time.Time
}

// NewAIService wires the default chain: Groq first (sovereign ALLaM), then
// HuggingFace-hosted ALLaM, then Kimi.
func NewAIService(cfg *config.AIConfig) *AIService {
	return &AIService{
		providers: []Provider{
			NewGroqProvider(cfg.Groq),
			NewHuggingFaceProvider(cfg.HuggingFace),
			NewKimiProvider(cfg.Kimi),
		},
		minChars: cfg.MinPlausibleChars,
		now:      time.Now,
	}
}

// NewAIServiceWithProviders builds a service over an explicit chain; used by
// tests to inject fake backends.
func NewAIServiceWithProviders(providers []Provider, minChars int) *AIService {
	if minChars <= 0 {
		minChars = 100
	}
	return &AIService{providers: providers, minChars: minChars, now: time.Now}
}

// GenerateContractText runs the full pipeline for one request. It never
// fails: if every backend is skipped or errors, the deterministic template
// is returned tagged with ProviderTemplate.
func (s *AIService) GenerateContractText(ctx context.Context, req ContractRequest) GenerationResult {
	ectx := ExtractContext(req.Items)
	prompt := BuildPrompt(req, ectx)

	for _, p := range s.providers {
		if !p.Configured() {
			logger.Debug(ctx, "skipping unconfigured provider", "provider", p.Name())
			continue
		}

		raw, err := p.Generate(ctx, prompt)
		if err != nil {
			logger.Warn(ctx, "provider failed", "provider", p.Name(), "error", err)
			continue
		}

		// All backends share the repetition-prone model family, so all
		// output goes through the same cleaning pass.
		text := Sanitize(raw)
		if utf8.RuneCountInString(text) <= s.minChars {
			logger.Warn(ctx, "provider returned implausibly short output",
				"provider", p.Name(),
				"chars", utf8.RuneCountInString(text),
			)
			continue
		}

		logger.Info(ctx, "contract text generated",
			"provider", p.Name(),
			"raw_chars", utf8.RuneCountInString(raw),
			"clean_chars", utf8.RuneCountInString(text),
		)
		return GenerationResult{Text: text, Provider: p.Name()}
	}

	logger.Info(ctx, "all providers failed, using static template")
	return GenerationResult{
		Text:     TemplateContract(req, ectx, s.now()),
		Provider: ProviderTemplate,
	}
}
