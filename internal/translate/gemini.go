package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const (
	defaultModel          = "gemini-2.0-flash"
	defaultTemperature    = 0.2
	defaultMaxTokens      = 2048
	defaultTimeoutSeconds = 30
	geminiRetries         = 3
)

// GeminiConfig holds configuration for the Gemini translator.
type GeminiConfig struct {
	APIKey         string
	Model          string
	Temperature    float32
	MaxTokens      int
	TimeoutSeconds int
}

// GeminiTranslator implements Translator using Google's Gemini API.
type GeminiTranslator struct {
	client         *genai.Client
	logger         *logrus.Logger
	model          string
	temperature    float32
	maxTokens      int
	timeoutSeconds int
}

var _ Translator = (*GeminiTranslator)(nil)

func NewGeminiTranslator(ctx context.Context, cfg GeminiConfig, logger *logrus.Logger) (*GeminiTranslator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	timeoutSeconds := cfg.TimeoutSeconds
	if timeoutSeconds == 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &GeminiTranslator{
		client:         client,
		logger:         logger,
		model:          model,
		temperature:    temperature,
		maxTokens:      maxTokens,
		timeoutSeconds: timeoutSeconds,
	}, nil
}

func (g *GeminiTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s.\n"+
			"Return ONLY the translated text, no explanations or additional text.\n\n"+
			"Text to translate: %s",
		sourceLang, targetLang, text)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: int32(g.maxTokens),
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.timeoutSeconds)*time.Second)
	defer cancel()

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < geminiRetries; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}
		g.logger.Warnf("Gemini request failed (attempt %d): %v", attempt+1, err)
		if attempt < geminiRetries-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("gemini translation failed: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var out string
	for _, part := range response.Candidates[0].Content.Parts {
		out += part.Text
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("gemini returned empty translation")
	}

	g.logger.Debugf("Translated %q (%s -> %s)", text, sourceLang, targetLang)
	return out, nil
}
