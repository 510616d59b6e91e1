package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/al0dan/absher/config"
	"github.com/al0dan/absher/pkg/logger"
)

// Provider is one text-generation backend in the fallback chain.
type Provider interface {
	// Name identifies the backend in logs and results.
	Name() string
	// Configured reports whether the backend has the credential it needs.
	// Unconfigured backends are skipped by the chain without counting as
	// a failure.
	Configured() bool
	// Generate performs a single attempt against the backend. There is no
	// retry within a backend.
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Sentinel errors for the failure taxonomy. Every one of them is handled the
// same way by the chain: log at warn and advance to the next backend.
var (
	ErrNotConfigured     = errors.New("provider credential not set")
	ErrMalformedResponse = errors.New("unexpected response shape")
	ErrEmptyCompletion   = errors.New("empty completion")
)

// chatProvider calls an OpenAI-style chat-completions API. Both Groq and
// Kimi (Moonshot) expose this shape.
type chatProvider struct {
	name        string
	cfg         config.ProviderConfig
	temperature float64
	topP        float64
	stop        []string
	httpClient  *http.Client
}

// NewGroqProvider returns the primary backend: ALLaM-2-7B served by Groq.
// The stop list mirrors the sanitizer's artifact and ending markers to cut
// runaway generation server-side.
func NewGroqProvider(cfg config.ProviderConfig) Provider {
	return &chatProvider{
		name:        "groq",
		cfg:         cfg,
		temperature: 0.2,
		topP:        0.9,
		stop:        stopSequences,
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
	}
}

// NewKimiProvider returns the Moonshot chat backend.
func NewKimiProvider(cfg config.ProviderConfig) Provider {
	return &chatProvider{
		name:        "kimi",
		cfg:         cfg,
		temperature: 0.2,
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
	}
}

func (p *chatProvider) Name() string     { return p.name }
func (p *chatProvider) Configured() bool { return p.cfg.APIKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *chatProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}

	reqBody := chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: p.temperature,
		MaxTokens:   p.cfg.MaxTokens,
		TopP:        p.topP,
		Stop:        p.stop,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s API error: status %d: %s", p.name, resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	content := result.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyCompletion
	}

	logger.Debug(ctx, "chat completion finished",
		"provider", p.name,
		"model", p.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"chars", len(content),
	)
	return content, nil
}

// hfProvider calls the HuggingFace Inference API with the [INST] prompt
// format instruction-tuned ALLaM expects.
type hfProvider struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewHuggingFaceProvider returns the HuggingFace-hosted ALLaM backup backend.
func NewHuggingFaceProvider(cfg config.ProviderConfig) Provider {
	return &hfProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

func (p *hfProvider) Name() string     { return "huggingface" }
func (p *hfProvider) Configured() bool { return p.cfg.APIKey != "" }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfResult struct {
	GeneratedText string `json:"generated_text"`
}

func (p *hfProvider) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}

	fullPrompt := fmt.Sprintf("<s>[INST] <<SYS>>\n%s\n<</SYS>>\n\n%s [/INST]", prompt.System, prompt.User)

	reqBody := hfRequest{
		Inputs: fullPrompt,
		Parameters: hfParameters{
			MaxNewTokens:   p.cfg.MaxTokens,
			Temperature:    0.2,
			DoSample:       true,
			ReturnFullText: false,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint+"/models/"+p.cfg.Model, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("huggingface API error: status %d: %s", resp.StatusCode, string(body))
	}

	var results []hfResult
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(results) == 0 || results[0].GeneratedText == "" {
		return "", ErrEmptyCompletion
	}

	return results[0].GeneratedText, nil
}
